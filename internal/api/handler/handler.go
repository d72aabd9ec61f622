package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/internal/service"
	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/pkg/response"
	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/pkg/upload"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Semester   *SemesterHandler
	Session    *SessionHandler
	Attendance *AttendanceHandler
	Home       *HomeHandler
	User       *UserHandler
	Export     *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Semester:   NewSemesterHandler(svc.Semester),
		Session:    NewSessionHandler(svc.Session),
		Attendance: NewAttendanceHandler(svc.Attendance),
		Home:       NewHomeHandler(svc.Home),
		User:       NewUserHandler(svc.User),
		Export:     NewExportHandler(svc.Export),
	}
}

// handleCommonError 处理跨模块共用的错误（学期、角色、上传）
// 已写入响应时返回 true
func handleCommonError(c *gin.Context, err error) bool {
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.Is(err, service.ErrNoActiveSemester):
		response.BadRequest(c, 11001, "当前没有进行中的学期")
	case errors.Is(err, service.ErrNoSemesterRole):
		response.Forbidden(c, 11002, "你在当前学期没有 mentor 或 mentee 角色")
	case errors.Is(err, service.ErrNotMentor):
		response.Forbidden(c, 11003, "你在当前学期不是 mentor")
	case errors.As(err, &maxBytesErr):
		response.TooLarge(c, 10005, "请求体过大")
	case errors.Is(err, upload.ErrFileMissing):
		response.BadRequest(c, 15001, "缺少上传文件")
	case errors.Is(err, upload.ErrFileTooLarge):
		response.BadRequest(c, 15002, "文件超过大小上限")
	case errors.Is(err, upload.ErrFileTypeNotAllowed):
		response.BadRequest(c, 15003, "不支持的文件类型")
	default:
		return false
	}
	return true
}
