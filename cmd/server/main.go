package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"

	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/config"
	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/internal/api/handler"
	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/internal/api/router"
	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/internal/repository"
	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/internal/service"
	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/pkg/database"
	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/pkg/jwt"
	applogger "github.com/BinusStudentLearningCommunity/Nindyamaya-2025/pkg/logger"
	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/pkg/redis"
	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/pkg/storage"
	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/pkg/tracing"
	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/pkg/validate"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load(os.Getenv("NINDYAMAYA_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.String("timezone", cfg.Mentoring.Timezone),
	)

	// 3. 链路追踪（未启用时为空实现）
	shutdownTracing, err := tracing.Init(context.Background(), &cfg.Tracing, logger)
	if err != nil {
		logger.Fatal("初始化链路追踪失败", zap.Error(err))
	}

	// 4. 连接数据库
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	logger.Info("数据库连接成功")

	// 4.1 执行数据库迁移
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 5. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	var rdb *redis.Client
	rdb, err = redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，Token 黑名单与限流将不可用", zap.Error(err))
		rdb = nil
	}

	// 6. 文件存储
	store, err := storage.New(context.Background(), &cfg.Storage, logger)
	if err != nil {
		logger.Fatal("初始化文件存储失败", zap.Error(err))
	}

	// 7. 业务时区（Validate 已校验可加载）
	loc, _ := cfg.Mentoring.Location()

	// 8. 依赖注入: Repository → Service → Handler
	validate.Setup()
	jwtMgr := jwt.NewManager(&cfg.Auth)
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, store, loc, logger)
	h := handler.NewHandler(svc)

	// 9. 初始化路由
	engine := router.Setup(cfg, h, jwtMgr, rdb, logger)

	// 10. 启动 HTTP 服务器（优雅关闭）
	// 录屏上传较大，读写超时放宽
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       10 * time.Minute,
		WriteTimeout:      10 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 11. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 关闭数据库连接
	sqlDB.Close()

	// 关闭 Redis 连接
	if rdb != nil {
		rdb.Close()
	}

	// 关闭 GCS 客户端
	if closer, ok := store.(io.Closer); ok {
		closer.Close()
	}

	if err := shutdownTracing(ctx); err != nil {
		logger.Warn("关闭链路追踪异常", zap.Error(err))
	}

	logger.Info("服务器已关闭")
}
