package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/internal/dto"
	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/internal/model"
	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/internal/repository"
	pkgerrors "github.com/BinusStudentLearningCommunity/Nindyamaya-2025/pkg/errors"
	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/pkg/metrics"
)

// ── 签到模块业务错误 ──

var (
	ErrSessionNotCompleted        = errors.New("mentor 尚未完成该场次，暂不能签到")
	ErrAttendanceWindowClosed     = errors.New("签到已截止，只能在场次结束后 3 天内签到")
	ErrAttendanceAlreadyConfirmed = errors.New("已签到，不能重复签到")
)

// ConfirmGracePeriod 场次结束后允许签到的时长
const ConfirmGracePeriod = 72 * time.Hour

// AttendanceService 签到业务接口
type AttendanceService interface {
	GetDetails(ctx context.Context, caller Caller, sessionID string) (*dto.AttendanceDetailsResponse, error)
	Confirm(ctx context.Context, caller Caller, sessionID string) (*dto.ConfirmAttendanceResponse, error)
}

type attendanceService struct {
	repo   *repository.Repository
	loc    *time.Location
	logger *zap.Logger
	now    func() time.Time
}

// NewAttendanceService 创建 AttendanceService 实例
func NewAttendanceService(repo *repository.Repository, loc *time.Location, logger *zap.Logger) AttendanceService {
	return &attendanceService{repo: repo, loc: loc, logger: logger, now: time.Now}
}

// ────────────────────── GetDetails ──────────────────────

// GetDetails 场次摘要 + mentor + 名单（配对 mentee LEFT JOIN 签到）
// 仅所属 mentor 或名单内 mentee 可查看
func (s *attendanceService) GetDetails(ctx context.Context, caller Caller, sessionID string) (*dto.AttendanceDetailsResponse, error) {
	if err := checkSessionID(sessionID); err != nil {
		return nil, err
	}
	session, err := s.repo.Session.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		s.logger.Error("查询场次失败", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}

	roster, err := s.repo.Attendance.ListRoster(ctx, session)
	if err != nil {
		s.logger.Error("查询签到名单失败", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}

	if !IsOwner(caller, session) && !InRoster(caller, roster) {
		return nil, ErrSessionAccessDenied
	}

	resp := &dto.AttendanceDetailsResponse{
		Session: toSessionResponse(session, s.loc, false, nil),
		Mentor:  dto.MentorInfo{ID: session.MentorUserID},
		Roster:  make([]dto.RosterItem, 0, len(roster)),
	}
	if session.Mentor != nil {
		resp.Mentor.Name = session.Mentor.Name
		resp.Mentor.Email = session.Mentor.Email
	}

	if endsAt, err := session.EndsAt(s.loc); err == nil {
		closesAt := endsAt.Add(ConfirmGracePeriod)
		now := s.now()
		resp.Window = dto.ConfirmWindow{
			OpensAt:  endsAt.Format(time.RFC3339),
			ClosesAt: closesAt.Format(time.RFC3339),
			Open:     session.IsCompleted() && !now.Before(endsAt) && !now.After(closesAt),
		}
	}

	for _, entry := range roster {
		item := dto.RosterItem{
			MenteeID: entry.MenteeUserID,
			Name:     entry.Name,
			NIM:      entry.NIM,
			Email:    entry.Email,
			Faculty:  entry.Faculty,
		}
		if entry.CheckInTime != nil {
			t := entry.CheckInTime.In(s.loc).Format(time.RFC3339)
			item.CheckInTime = &t
			item.Attended = true
		}
		resp.Roster = append(resp.Roster, item)
	}

	return resp, nil
}

// ────────────────────── Confirm ──────────────────────

// Confirm mentee 签到，整个检查与插入在一个事务中完成，任一步失败都不留下记录
func (s *attendanceService) Confirm(ctx context.Context, caller Caller, sessionID string) (*dto.ConfirmAttendanceResponse, error) {
	ctx, span := tracer.Start(ctx, "AttendanceService.Confirm")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", sessionID))

	if err := checkSessionID(sessionID); err != nil {
		metrics.AttendanceConfirms.WithLabelValues(confirmResult(err)).Inc()
		return nil, err
	}

	now := s.now()
	var record *model.AttendanceRecord

	err := s.repo.RunInTx(ctx, func(tx *repository.Repository) error {
		// 共享锁：并发的完成 / 删除需等待本事务结束
		session, err := tx.Session.GetByIDForShare(ctx, sessionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSessionNotFound
			}
			return err
		}

		if err := RequirePairedMentee(ctx, tx.Pairing, caller, session); err != nil {
			return err
		}

		endsAt, err := session.EndsAt(s.loc)
		if err != nil {
			return err
		}
		if now.Before(endsAt) {
			return ErrSessionNotEnded
		}
		if now.After(endsAt.Add(ConfirmGracePeriod)) {
			return ErrAttendanceWindowClosed
		}
		if !session.IsCompleted() {
			return ErrSessionNotCompleted
		}

		exists, err := tx.Attendance.Exists(ctx, sessionID, caller.UserID)
		if err != nil {
			return err
		}
		if exists {
			return ErrAttendanceAlreadyConfirmed
		}

		record = &model.AttendanceRecord{
			SessionID:    sessionID,
			MenteeUserID: caller.UserID,
			CheckInTime:  now,
		}
		if err := tx.Attendance.Create(ctx, record); err != nil {
			// 并发签到由主键兜底
			if pkgerrors.IsUniqueViolation(err) {
				return ErrAttendanceAlreadyConfirmed
			}
			return err
		}
		return nil
	})

	result := confirmResult(err)
	metrics.AttendanceConfirms.WithLabelValues(result).Inc()
	if err != nil {
		if result == "error" {
			s.logger.Error("签到失败",
				zap.String("session_id", sessionID),
				zap.String("user_id", caller.UserID),
				zap.Error(err),
			)
		}
		return nil, err
	}

	s.logger.Info("mentee 已签到", zap.String("session_id", sessionID), zap.String("user_id", caller.UserID))
	return &dto.ConfirmAttendanceResponse{
		SessionID:   record.SessionID,
		MenteeID:    record.MenteeUserID,
		CheckInTime: record.CheckInTime.In(s.loc).Format(time.RFC3339),
	}, nil
}

// confirmResult 签到结果标签
func confirmResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrSessionNotFound):
		return "not_found"
	case errors.Is(err, ErrNotPairedMentee):
		return "forbidden"
	case errors.Is(err, ErrSessionNotEnded):
		return "not_ended"
	case errors.Is(err, ErrAttendanceWindowClosed):
		return "window_closed"
	case errors.Is(err, ErrSessionNotCompleted):
		return "not_completed"
	case errors.Is(err, ErrAttendanceAlreadyConfirmed):
		return "duplicate"
	default:
		return "error"
	}
}
