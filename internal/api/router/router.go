package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/config"
	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/internal/api/handler"
	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/internal/api/middleware"
	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/pkg/jwt"
	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/pkg/redis"
)

// jsonBodyLimit 普通 JSON 接口的请求体上限
const jsonBodyLimit = 1 << 20

// multipartOverhead multipart 边界与表单头的额外空间
const multipartOverhead = 1 << 20

// Setup 初始化并返回 Gin 路由引擎
// rdb 可为 nil：此时跳过 Token 黑名单与限流
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.MaxMultipartMemory = 8 << 20

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	r.Use(middleware.Metrics())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))

	// ── 健康检查与指标 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ── 本地存储的上传文件 ──
	if cfg.Storage.Driver == "local" && strings.HasPrefix(cfg.Storage.PublicBaseURL, "/") {
		r.Static(cfg.Storage.PublicBaseURL, cfg.Storage.LocalDir)
	}

	jsonLimit := middleware.BodyLimit(jsonBodyLimit)
	proofLimit := middleware.BodyLimit(cfg.Storage.ProofMaxBytes + multipartOverhead)
	recordingLimit := middleware.BodyLimit(cfg.Storage.RecordingMaxBytes + multipartOverhead)
	uploadRate := middleware.RateLimit(rdb, cfg.RateLimit.UploadPerMinute, time.Minute)
	confirmRate := middleware.RateLimit(rdb, cfg.RateLimit.ConfirmPerMinute, time.Minute)

	// ── API v1（全部需要认证）──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr, rdb))
	{
		// 学期模块
		v1.GET("/semesters/current", h.Semester.GetCurrentSemester)

		// 首页与用户模块
		v1.GET("/home", h.Home.GetHome)
		v1.GET("/users/my-mentees", h.User.ListMyMentees)

		// 辅导场次模块
		sessions := v1.Group("/sessions")
		{
			sessions.POST("", jsonLimit, h.Session.CreateSession)
			sessions.GET("", h.Session.ListSessions)
			sessions.GET("/:id", h.Session.GetSession)
			sessions.PUT("/:id", jsonLimit, h.Session.ReplaceSession)
			sessions.PATCH("/:id", jsonLimit, h.Session.PatchSession)
			sessions.DELETE("/:id", h.Session.DeleteSession)
			sessions.POST("/:id/complete", proofLimit, uploadRate, h.Session.CompleteSession)
			sessions.POST("/:id/recordings", recordingLimit, uploadRate, h.Session.UploadRecording)
			sessions.GET("/:id/attendance", h.Session.ListAttendance)
		}

		// 签到模块
		attendance := v1.Group("/attendance")
		{
			attendance.GET("/:sessionId/details", h.Attendance.GetDetails)
			attendance.POST("/:sessionId/confirm", confirmRate, h.Attendance.Confirm)
		}

		// 导出模块
		v1.GET("/export/sessions", h.Export.ExportSessions)
	}

	return r
}
