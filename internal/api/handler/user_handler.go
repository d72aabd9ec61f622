package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/internal/service"
	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/pkg/response"
)

// UserHandler 用户模块 HTTP 处理器
type UserHandler struct {
	userSvc service.UserService
}

// NewUserHandler 创建 UserHandler
func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// ListMyMentees 当前学期我的 mentee
// GET /api/v1/users/my-mentees
func (h *UserHandler) ListMyMentees(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	mentees, err := h.userSvc.ListMyMentees(c.Request.Context(), caller)
	if err != nil {
		if !handleCommonError(c, err) {
			response.InternalError(c)
		}
		return
	}

	response.OK(c, gin.H{"list": mentees})
}
