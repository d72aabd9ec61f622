package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/internal/model"
)

// AttendanceRepository 签到记录数据访问接口
type AttendanceRepository interface {
	Exists(ctx context.Context, sessionID, menteeID string) (bool, error)
	Create(ctx context.Context, record *model.AttendanceRecord) error
	// ListRoster 该场次 mentor 在该学期的全部配对 mentee，未签到者 CheckInTime 为 nil
	ListRoster(ctx context.Context, session *model.MentoringSession) ([]model.RosterEntry, error)
	ListBySession(ctx context.Context, sessionID string) ([]model.AttendanceRecord, error)
	CountBySessions(ctx context.Context, sessionIDs []string) (map[string]int64, error)
	DeleteBySession(ctx context.Context, sessionID string) error
}

type attendanceRepo struct {
	db *gorm.DB
}

// NewAttendanceRepo 创建 AttendanceRepository 实例
func NewAttendanceRepo(db *gorm.DB) AttendanceRepository {
	return &attendanceRepo{db: db}
}

func (r *attendanceRepo) Exists(ctx context.Context, sessionID, menteeID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.AttendanceRecord{}).
		Where("session_id = ? AND mentee_user_id = ?", sessionID, menteeID).
		Count(&count).Error
	return count > 0, err
}

func (r *attendanceRepo) Create(ctx context.Context, record *model.AttendanceRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *attendanceRepo) ListRoster(ctx context.Context, session *model.MentoringSession) ([]model.RosterEntry, error) {
	var rows []model.RosterEntry
	err := r.db.WithContext(ctx).
		Table("pairings p").
		Select("u.user_id AS mentee_user_id, u.name, u.nim, u.email, u.faculty, a.check_in_time").
		Joins("JOIN users u ON u.user_id = p.mentee_user_id").
		Joins("LEFT JOIN mentoring_session_attendances a ON a.mentee_user_id = p.mentee_user_id AND a.session_id = ?", session.SessionID).
		Where("p.mentor_user_id = ? AND p.semester_id = ?", session.MentorUserID, session.SemesterID).
		Order("u.name ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *attendanceRepo) ListBySession(ctx context.Context, sessionID string) ([]model.AttendanceRecord, error) {
	var records []model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Preload("Mentee").
		Where("session_id = ?", sessionID).
		Order("check_in_time ASC").
		Find(&records).Error
	return records, err
}

func (r *attendanceRepo) CountBySessions(ctx context.Context, sessionIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		SessionID string
		Total     int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.AttendanceRecord{}).
		Select("session_id, COUNT(*) AS total").
		Where("session_id IN ?", sessionIDs).
		Group("session_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.SessionID] = row.Total
	}
	return counts, nil
}

func (r *attendanceRepo) DeleteBySession(ctx context.Context, sessionID string) error {
	return r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&model.AttendanceRecord{}).Error
}
