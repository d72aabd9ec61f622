package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/internal/service"
	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/pkg/response"
)

// AttendanceHandler 签到模块 HTTP 处理器
type AttendanceHandler struct {
	attendanceSvc service.AttendanceService
}

// NewAttendanceHandler 创建 AttendanceHandler
func NewAttendanceHandler(attendanceSvc service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendanceSvc: attendanceSvc}
}

// GetDetails 场次签到名单
// GET /api/v1/attendance/:sessionId/details
func (h *AttendanceHandler) GetDetails(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	details, err := h.attendanceSvc.GetDetails(c.Request.Context(), caller, c.Param("sessionId"))
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, details)
}

// Confirm mentee 签到
// POST /api/v1/attendance/:sessionId/confirm
func (h *AttendanceHandler) Confirm(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.attendanceSvc.Confirm(c.Request.Context(), caller, c.Param("sessionId"))
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.Created(c, result)
}

// handleAttendanceError 统一处理签到模块业务错误
func (h *AttendanceHandler) handleAttendanceError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		response.NotFound(c, 12001, "辅导场次不存在")
	case errors.Is(err, service.ErrSessionAccessDenied):
		response.Forbidden(c, 12003, "无权查看该场次")
	case errors.Is(err, service.ErrNotPairedMentee):
		response.Forbidden(c, 13001, "你不是该场次 mentor 在本学期的配对 mentee")
	case errors.Is(err, service.ErrSessionNotEnded):
		response.BadRequest(c, 12009, "场次尚未结束")
	case errors.Is(err, service.ErrAttendanceWindowClosed):
		response.BadRequest(c, 13002, "签到已截止，只能在场次结束后 3 天内签到")
	case errors.Is(err, service.ErrSessionNotCompleted):
		response.BadRequest(c, 13003, "mentor 尚未完成该场次，暂不能签到")
	case errors.Is(err, service.ErrAttendanceAlreadyConfirmed):
		response.Conflict(c, 13004, "已签到，不能重复签到")
	default:
		response.InternalError(c)
	}
}
