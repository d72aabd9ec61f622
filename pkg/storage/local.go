package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Local 本地磁盘存储，由 HTTP 服务以 PublicBaseURL 静态暴露
type Local struct {
	root    string
	baseURL string
}

// NewLocal 创建本地存储，root 不存在时自动创建
func NewLocal(root, baseURL string) (*Local, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("创建存储目录失败: %w", err)
	}
	return &Local{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Root 存储根目录
func (l *Local) Root() string { return l.root }

// Save 先写临时文件再改名，避免读到半截文件
func (l *Local) Save(ctx context.Context, key, _ string, r io.Reader) (string, error) {
	dst := filepath.Join(l.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("创建目录失败: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("创建临时文件失败: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, &ctxReader{ctx: ctx, r: r}); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("关闭临时文件失败: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", fmt.Errorf("保存文件失败: %w", err)
	}

	return l.baseURL + "/" + key, nil
}

// Delete 删除文件，文件不存在视为成功
func (l *Local) Delete(_ context.Context, ref string) error {
	key := strings.TrimPrefix(strings.TrimPrefix(ref, l.baseURL), "/")
	if key == "" || strings.Contains(key, "..") {
		return fmt.Errorf("无效的文件引用: %s", ref)
	}
	err := os.Remove(filepath.Join(l.root, filepath.FromSlash(key)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// ctxReader 在客户端断开时中止大文件复制
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
