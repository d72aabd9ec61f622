package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/internal/dto"
	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/internal/model"
	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/internal/repository"
)

// UserService 用户业务接口
type UserService interface {
	// ListMyMentees 当前学期与调用者配对的 mentee
	ListMyMentees(ctx context.Context, caller Caller) ([]dto.MenteeResponse, error)
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger, now: time.Now}
}

func (s *userService) ListMyMentees(ctx context.Context, caller Caller) ([]dto.MenteeResponse, error) {
	semester, err := resolveActive(ctx, s.repo, s.now())
	if err != nil {
		if !errors.Is(err, ErrNoActiveSemester) {
			s.logger.Error("查询活动学期失败", zap.Error(err))
		}
		return nil, err
	}

	role, err := roleIn(ctx, s.repo, caller.UserID, semester.SemesterID)
	if errors.Is(err, ErrNoSemesterRole) || (err == nil && role != model.RoleMentor) {
		return nil, ErrNotMentor
	}
	if err != nil {
		s.logger.Error("查询学期角色失败", zap.String("user_id", caller.UserID), zap.Error(err))
		return nil, err
	}

	mentees, err := s.repo.Pairing.ListMentees(ctx, caller.UserID, semester.SemesterID)
	if err != nil {
		s.logger.Error("查询 mentee 列表失败", zap.String("user_id", caller.UserID), zap.Error(err))
		return nil, err
	}
	return toMenteeResponses(mentees), nil
}

func toMenteeResponses(users []model.User) []dto.MenteeResponse {
	result := make([]dto.MenteeResponse, 0, len(users))
	for _, u := range users {
		result = append(result, dto.MenteeResponse{
			ID:             u.UserID,
			Name:           u.Name,
			NIM:            u.NIM,
			Email:          u.Email,
			Faculty:        u.Faculty,
			ProfilePicture: u.ProfilePicture,
		})
	}
	return result
}
