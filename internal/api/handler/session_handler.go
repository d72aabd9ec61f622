package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/internal/dto"
	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/internal/service"
	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/pkg/response"
)

// SessionHandler 辅导场次模块 HTTP 处理器
type SessionHandler struct {
	sessionSvc service.SessionService
}

// NewSessionHandler 创建 SessionHandler
func NewSessionHandler(sessionSvc service.SessionService) *SessionHandler {
	return &SessionHandler{sessionSvc: sessionSvc}
}

// CreateSession 创建辅导场次
// POST /api/v1/sessions
func (h *SessionHandler) CreateSession(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.CreateSessionRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.sessionSvc.Create(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.Created(c, resp)
}

// ListSessions 当前学期场次列表（按角色）
// GET /api/v1/sessions
func (h *SessionHandler) ListSessions(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	list, err := h.sessionSvc.List(c.Request.Context(), caller)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// GetSession 场次详情
// GET /api/v1/sessions/:id
func (h *SessionHandler) GetSession(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	session, err := h.sessionSvc.Get(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.OK(c, session)
}

// ReplaceSession 全量编辑场次
// PUT /api/v1/sessions/:id
func (h *SessionHandler) ReplaceSession(c *gin.Context) {
	h.edit(c, true)
}

// PatchSession 部分编辑场次
// PATCH /api/v1/sessions/:id
func (h *SessionHandler) PatchSession(c *gin.Context) {
	h.edit(c, false)
}

func (h *SessionHandler) edit(c *gin.Context, full bool) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.UpdateSessionRequest
	if !bindJSON(c, &req) {
		return
	}
	if full && !req.HasAllFields() {
		response.BadRequest(c, 12004, "课程、平台、日期、开始与结束时间均为必填")
		return
	}

	session, err := h.sessionSvc.Edit(c.Request.Context(), caller, c.Param("id"), &req)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.OK(c, session)
}

// CompleteSession 上传辅导凭证并完成场次
// POST /api/v1/sessions/:id/complete  (multipart: session_proof)
func (h *SessionHandler) CompleteSession(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	file, closeFile, err := formFile(c, "session_proof")
	if err != nil {
		h.handleSessionError(c, err)
		return
	}
	defer closeFile()

	session, err := h.sessionSvc.Complete(c.Request.Context(), caller, c.Param("id"), file)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.OK(c, session)
}

// DeleteSession 删除场次（连同签到记录与录屏）
// DELETE /api/v1/sessions/:id
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.sessionSvc.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.OK(c, gin.H{"message": "场次已删除"})
}

// UploadRecording 上传场次录屏
// POST /api/v1/sessions/:id/recordings  (multipart: recording)
func (h *SessionHandler) UploadRecording(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	file, closeFile, err := formFile(c, "recording")
	if err != nil {
		h.handleSessionError(c, err)
		return
	}
	defer closeFile()

	recording, err := h.sessionSvc.UploadRecording(c.Request.Context(), caller, c.Param("id"), file)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.Created(c, recording)
}

// ListAttendance 场次签到明细（仅 mentor 本人）
// GET /api/v1/sessions/:id/attendance
func (h *SessionHandler) ListAttendance(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	list, err := h.sessionSvc.ListAttendance(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// handleSessionError 统一处理场次模块业务错误
func (h *SessionHandler) handleSessionError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		response.NotFound(c, 12001, "辅导场次不存在")
	case errors.Is(err, service.ErrNotSessionOwner):
		response.Forbidden(c, 12002, "只有该场次的 mentor 可以执行此操作")
	case errors.Is(err, service.ErrSessionAccessDenied):
		response.Forbidden(c, 12003, "无权查看该场次")
	case errors.Is(err, service.ErrSessionFieldsRequired):
		response.BadRequest(c, 12004, "课程、平台、日期、开始与结束时间均为必填")
	case errors.Is(err, service.ErrSessionTimeInvalid):
		response.BadRequest(c, 12005, "日期或时间格式无效，或结束时间不晚于开始时间")
	case errors.Is(err, service.ErrSessionCompleted):
		response.Forbidden(c, 12006, "场次已完成，不能再编辑")
	case errors.Is(err, service.ErrSessionAlreadyCompleted):
		response.Conflict(c, 12007, "场次已完成，不能重复提交凭证")
	case errors.Is(err, service.ErrSessionVersionConflict):
		response.Conflict(c, 12008, "场次已被修改，请刷新后重试")
	case errors.Is(err, service.ErrSessionNotEnded):
		response.BadRequest(c, 12009, "场次尚未结束")
	case errors.Is(err, service.ErrProofRequired):
		response.BadRequest(c, 12010, "请上传辅导凭证图片")
	case errors.Is(err, service.ErrRecordingRequired):
		response.BadRequest(c, 12011, "请上传录屏文件")
	default:
		response.InternalError(c)
	}
}
