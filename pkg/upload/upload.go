package upload

import (
	"bytes"
	"errors"
	"io"

	"github.com/gabriel-vasile/mimetype"
)

// 上传相关错误
var (
	ErrFileMissing        = errors.New("未上传文件")
	ErrFileTooLarge       = errors.New("文件超过大小上限")
	ErrFileTypeNotAllowed = errors.New("文件类型不允许")
)

// sniffLen 内容嗅探读取的头部字节数
const sniffLen = 3072

// Policy 某类上传文件的限制
type Policy struct {
	MaxBytes    int64
	AllowedMIME []string
}

// ProofPolicy 辅导凭证图片
func ProofPolicy(maxBytes int64) Policy {
	return Policy{
		MaxBytes:    maxBytes,
		AllowedMIME: []string{"image/jpeg", "image/png", "image/webp", "image/heic"},
	}
}

// RecordingPolicy 辅导录屏
func RecordingPolicy(maxBytes int64) Policy {
	return Policy{
		MaxBytes:    maxBytes,
		AllowedMIME: []string{"video/mp4"},
	}
}

// File 客户端提交的文件
type File struct {
	Name   string
	Size   int64
	Reader io.Reader
}

// Accepted 通过校验的文件
// Reader 从头开始读，读取超过上限时返回 ErrFileTooLarge
type Accepted struct {
	MIME   string
	Ext    string
	Size   int64
	Reader io.Reader
}

// Accept 校验大小并按内容（而非扩展名）识别类型
func (p Policy) Accept(f *File) (*Accepted, error) {
	if f == nil || f.Reader == nil || f.Size == 0 {
		return nil, ErrFileMissing
	}
	if f.Size > p.MaxBytes {
		return nil, ErrFileTooLarge
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f.Reader, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	head = head[:n]
	if n == 0 {
		return nil, ErrFileMissing
	}

	mt := mimetype.Detect(head)
	if !p.allows(mt) {
		return nil, ErrFileTypeNotAllowed
	}

	return &Accepted{
		MIME: mt.String(),
		Ext:  mt.Extension(),
		Size: f.Size,
		Reader: &capReader{
			r:      io.MultiReader(bytes.NewReader(head), f.Reader),
			remain: p.MaxBytes,
		},
	}, nil
}

func (p Policy) allows(mt *mimetype.MIME) bool {
	for _, allowed := range p.AllowedMIME {
		if mt.Is(allowed) {
			return true
		}
	}
	return false
}

// capReader 防止声明大小与实际内容不符
type capReader struct {
	r      io.Reader
	remain int64
}

func (c *capReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.remain -= int64(n)
	if c.remain < 0 {
		return n, ErrFileTooLarge
	}
	return n, err
}
