package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/internal/dto"
	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/internal/model"
	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/internal/repository"
)

// ── 学期模块业务错误 ──

var (
	ErrNoActiveSemester = errors.New("当前没有进行中的学期")
	ErrNoSemesterRole   = errors.New("你在当前学期没有 mentor 或 mentee 角色")
)

// SemesterService 学期业务接口
type SemesterService interface {
	// ResolveActive 返回包含 now 的学期
	ResolveActive(ctx context.Context, now time.Time) (*model.Semester, error)
	GetCurrent(ctx context.Context, caller Caller) (*dto.CurrentSemesterResponse, error)
}

type semesterService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewSemesterService 创建 SemesterService 实例
func NewSemesterService(repo *repository.Repository, logger *zap.Logger) SemesterService {
	return &semesterService{repo: repo, logger: logger, now: time.Now}
}

func (s *semesterService) ResolveActive(ctx context.Context, now time.Time) (*model.Semester, error) {
	semester, err := resolveActive(ctx, s.repo, now)
	if err != nil && !errors.Is(err, ErrNoActiveSemester) {
		s.logger.Error("查询活动学期失败", zap.Error(err))
	}
	return semester, err
}

func (s *semesterService) GetCurrent(ctx context.Context, caller Caller) (*dto.CurrentSemesterResponse, error) {
	semester, err := s.ResolveActive(ctx, s.now())
	if err != nil {
		return nil, err
	}

	resp := &dto.CurrentSemesterResponse{SemesterResponse: toSemesterResponse(semester)}

	role, err := roleIn(ctx, s.repo, caller.UserID, semester.SemesterID)
	switch {
	case err == nil:
		resp.Role = &role
	case errors.Is(err, ErrNoSemesterRole):
	default:
		s.logger.Error("查询学期角色失败", zap.String("user_id", caller.UserID), zap.Error(err))
		return nil, err
	}

	return resp, nil
}

// ── 共用查询 ──

// resolveActive 未找到时返回 ErrNoActiveSemester
func resolveActive(ctx context.Context, repo *repository.Repository, now time.Time) (*model.Semester, error) {
	semester, err := repo.Semester.GetActiveAt(ctx, now)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveSemester
		}
		return nil, err
	}
	return semester, nil
}

// roleIn 未分配角色时返回 ErrNoSemesterRole
func roleIn(ctx context.Context, repo *repository.Repository, userID, semesterID string) (string, error) {
	role, err := repo.UserRole.GetRole(ctx, userID, semesterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNoSemesterRole
		}
		return "", err
	}
	return role, nil
}

func toSemesterResponse(s *model.Semester) dto.SemesterResponse {
	return dto.SemesterResponse{
		ID:        s.SemesterID,
		Name:      s.Name,
		StartDate: s.StartDate.Format(time.RFC3339),
		EndDate:   s.EndDate.Format(time.RFC3339),
	}
}
