package handler

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/internal/api/middleware"
	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/internal/service"
	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/pkg/response"
	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/pkg/upload"
	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/pkg/validate"
)

// MustGetCaller 从 Gin 上下文中提取 JWT 中间件注入的调用者。
// 缺少 user_id 时写入 401 响应并返回 false，调用方应直接 return。
func MustGetCaller(c *gin.Context) (service.Caller, bool) {
	uid := c.GetString(middleware.CtxUserID)
	if uid == "" {
		response.Unauthorized(c, 10002, "未认证")
		return service.Caller{}, false
	}
	return service.Caller{
		UserID: uid,
		Role:   c.GetString(middleware.CtxRole),
		Name:   c.GetString(middleware.CtxName),
	}, true
}

// bindJSON 绑定并校验请求体，失败时写入 400（含逐字段中文提示）
func bindJSON(c *gin.Context, obj interface{}) bool {
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return true
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		response.TooLarge(c, 10005, "请求体过大")
		return false
	}
	if details := validate.Translate(err); details != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "参数校验失败", details)
		return false
	}
	response.BadRequest(c, 10001, "请求体格式错误")
	return false
}

// formFile 读取 multipart 文件字段
// 字段缺失时返回 (nil, nil)，由 service 决定对应的业务错误
func formFile(c *gin.Context, field string) (*upload.File, func(), error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, func() {}, nil
		}
		return nil, func() {}, err
	}
	f, err := header.Open()
	if err != nil {
		return nil, func() {}, err
	}
	return toUploadFile(header, f), func() { _ = f.Close() }, nil
}

func toUploadFile(header *multipart.FileHeader, f multipart.File) *upload.File {
	return &upload.File{Name: header.Filename, Size: header.Size, Reader: f}
}
