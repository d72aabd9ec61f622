package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const gcsPublicHost = "https://storage.googleapis.com/"

// GCS Google Cloud Storage 存储
type GCS struct {
	client *gcs.Client
	bucket string
}

// NewGCS 创建 GCS 客户端；credentialsFile 为空时使用默认凭据
func NewGCS(ctx context.Context, bucket, credentialsFile string) (*GCS, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("创建 GCS 客户端失败: %w", err)
	}

	return &GCS{client: client, bucket: bucket}, nil
}

// Save 上传对象并返回公开访问地址
func (g *GCS) Save(ctx context.Context, key, contentType string, r io.Reader) (string, error) {
	w := g.client.Bucket(g.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "private, max-age=0"

	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return "", fmt.Errorf("上传对象 %s 失败: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("关闭对象写入 %s 失败: %w", key, err)
	}

	return gcsPublicHost + g.bucket + "/" + key, nil
}

// Delete 删除对象，对象不存在视为成功
func (g *GCS) Delete(ctx context.Context, ref string) error {
	key := strings.TrimPrefix(ref, gcsPublicHost+g.bucket+"/")
	if key == ref {
		return fmt.Errorf("无效的文件引用: %s", ref)
	}
	err := g.client.Bucket(g.bucket).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return err
	}
	return nil
}

// Close 关闭客户端
func (g *GCS) Close() error {
	return g.client.Close()
}
