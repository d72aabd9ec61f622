package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/config"
)

// Storage 文件存储接口
// Save 返回可长期引用的地址，业务表只保存该地址
type Storage interface {
	Save(ctx context.Context, key, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, ref string) error
}

// 文件分类（对象 key 的第一级目录）
const (
	CategoryProof     = "proofs"
	CategoryRecording = "recordings"
)

// NewKey 生成对象 key：<category>/<uuid><ext>
func NewKey(category, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return path.Join(category, uuid.NewString()+strings.ToLower(ext))
}

// New 按配置创建存储实现
func New(ctx context.Context, cfg *config.StorageConfig, logger *zap.Logger) (Storage, error) {
	switch cfg.Driver {
	case "local":
		logger.Info("使用本地文件存储", zap.String("dir", cfg.LocalDir))
		return NewLocal(cfg.LocalDir, cfg.PublicBaseURL)
	case "gcs":
		logger.Info("使用 GCS 文件存储", zap.String("bucket", cfg.GCSBucket))
		return NewGCS(ctx, cfg.GCSBucket, cfg.GCSCredentialsFile)
	default:
		return nil, fmt.Errorf("未知的存储驱动: %s", cfg.Driver)
	}
}
