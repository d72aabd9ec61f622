package service

import (
	"time"

	"go.uber.org/zap"

	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/config"
	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/internal/repository"
	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/pkg/storage"
)

// Caller 已认证的调用者，来自 Access Token
// Role 仅用于展示，授权以数据库中的场次与配对关系为准
type Caller struct {
	UserID string
	Role   string
	Name   string
}

// Service 所有 Service 的聚合入口
type Service struct {
	Semester   SemesterService
	Session    SessionService
	Attendance AttendanceService
	Home       HomeService
	User       UserService
	Export     ExportService
}

// NewService 创建 Service 聚合
// loc 为场次日期与时间所属时区
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	store storage.Storage,
	loc *time.Location,
	logger *zap.Logger,
) *Service {
	return &Service{
		Semester:   NewSemesterService(repo, logger),
		Session:    NewSessionService(cfg, repo, store, loc, logger),
		Attendance: NewAttendanceService(repo, loc, logger),
		Home:       NewHomeService(&cfg.Mentoring, repo, loc, logger),
		User:       NewUserService(repo, logger),
		Export:     NewExportService(repo, loc, logger),
	}
}
