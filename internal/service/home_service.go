package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/config"
	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/internal/dto"
	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/internal/model"
	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/internal/repository"
)

// HomeService 首页业务接口
type HomeService interface {
	Get(ctx context.Context, caller Caller) (*dto.HomeResponse, error)
}

type homeService struct {
	cfg    *config.MentoringConfig
	repo   *repository.Repository
	loc    *time.Location
	logger *zap.Logger
	now    func() time.Time
}

// NewHomeService 创建 HomeService 实例
func NewHomeService(cfg *config.MentoringConfig, repo *repository.Repository, loc *time.Location, logger *zap.Logger) HomeService {
	return &homeService{cfg: cfg, repo: repo, loc: loc, logger: logger, now: time.Now}
}

// Get mentor：最近场次 + mentee 列表；mentee：配对 mentor 的最近场次
func (s *homeService) Get(ctx context.Context, caller Caller) (*dto.HomeResponse, error) {
	now := s.now()
	semester, err := resolveActive(ctx, s.repo, now)
	if err != nil {
		return nil, s.logInfra(err, caller)
	}
	role, err := roleIn(ctx, s.repo, caller.UserID, semester.SemesterID)
	if err != nil {
		return nil, s.logInfra(err, caller)
	}

	limit := s.cfg.HomeMenteeLimit
	if role == model.RoleMentor {
		limit = s.cfg.HomeMentorLimit
	}
	sessions, _, err := listForCaller(ctx, s.repo, caller, now, limit)
	if err != nil {
		return nil, s.logInfra(err, caller)
	}

	resp := &dto.HomeResponse{
		Role:     role,
		Semester: toSemesterResponse(semester),
		Sessions: make([]dto.SessionResponse, 0, len(sessions)),
	}
	for i := range sessions {
		resp.Sessions = append(resp.Sessions, toSessionResponse(&sessions[i], s.loc, IsOwner(caller, &sessions[i]), nil))
	}

	if role == model.RoleMentor {
		mentees, err := s.repo.Pairing.ListMentees(ctx, caller.UserID, semester.SemesterID)
		if err != nil {
			return nil, s.logInfra(err, caller)
		}
		resp.Mentees = toMenteeResponses(mentees)
	}

	return resp, nil
}

func (s *homeService) logInfra(err error, caller Caller) error {
	if !isSessionBusinessErr(err) {
		s.logger.Error("查询首页数据失败", zap.String("user_id", caller.UserID), zap.Error(err))
	}
	return err
}
