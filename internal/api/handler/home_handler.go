package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/internal/service"
	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/pkg/response"
)

// HomeHandler 首页 HTTP 处理器
type HomeHandler struct {
	homeSvc service.HomeService
}

// NewHomeHandler 创建 HomeHandler
func NewHomeHandler(homeSvc service.HomeService) *HomeHandler {
	return &HomeHandler{homeSvc: homeSvc}
}

// GetHome 首页数据
// GET /api/v1/home
func (h *HomeHandler) GetHome(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	home, err := h.homeSvc.Get(c.Request.Context(), caller)
	if err != nil {
		if !handleCommonError(c, err) {
			response.InternalError(c)
		}
		return
	}

	response.OK(c, home)
}
