package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/internal/model"
	pkgerrors "github.com/BinusStudentLearningCommunity/Nindyamaya-2025/pkg/errors"
)

// SessionRepository 辅导场次数据访问接口
type SessionRepository interface {
	Create(ctx context.Context, session *model.MentoringSession) error
	GetByID(ctx context.Context, id string) (*model.MentoringSession, error)
	// GetByIDForShare 加共享锁读取，需在事务中调用
	GetByIDForShare(ctx context.Context, id string) (*model.MentoringSession, error)
	// Update 乐观锁更新字段，仅对未完成场次生效
	Update(ctx context.Context, session *model.MentoringSession) error
	// SetProof 写入凭证，仅对未完成场次生效
	SetProof(ctx context.Context, session *model.MentoringSession, proof string, updatedBy string) error
	Delete(ctx context.Context, id string) error
	// ListByMentors 按日期倒序，limit <= 0 表示不限
	ListByMentors(ctx context.Context, mentorIDs []string, semesterID string, limit int) ([]model.MentoringSession, error)
}

type sessionRepo struct {
	db *gorm.DB
}

// NewSessionRepo 创建 SessionRepository 实例
func NewSessionRepo(db *gorm.DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) Create(ctx context.Context, session *model.MentoringSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*model.MentoringSession, error) {
	var session model.MentoringSession
	err := r.db.WithContext(ctx).
		Preload("Mentor").
		Where("session_id = ?", id).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) GetByIDForShare(ctx context.Context, id string) (*model.MentoringSession, error) {
	var session model.MentoringSession
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "SHARE"}).
		Where("session_id = ?", id).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) Update(ctx context.Context, session *model.MentoringSession) error {
	oldVersion := session.Version
	result := r.db.WithContext(ctx).
		Model(session).
		Where("session_id = ? AND version = ? AND session_proof IS NULL", session.SessionID, oldVersion).
		Updates(map[string]interface{}{
			"course_name":  session.CourseName,
			"platform":     session.Platform,
			"session_date": session.SessionDate,
			"start_time":   session.StartTime,
			"end_time":     session.EndTime,
			"updated_by":   session.UpdatedBy,
			"version":      oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	session.Version = oldVersion + 1
	return nil
}

func (r *sessionRepo) SetProof(ctx context.Context, session *model.MentoringSession, proof string, updatedBy string) error {
	result := r.db.WithContext(ctx).
		Model(session).
		Where("session_id = ? AND session_proof IS NULL", session.SessionID).
		Updates(map[string]interface{}{
			"session_proof": proof,
			"updated_by":    updatedBy,
			"version":       gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	session.SessionProof = &proof
	session.UpdatedBy = &updatedBy
	session.Version++
	return nil
}

func (r *sessionRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Where("session_id = ?", id).
		Delete(&model.MentoringSession{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *sessionRepo) ListByMentors(ctx context.Context, mentorIDs []string, semesterID string, limit int) ([]model.MentoringSession, error) {
	var sessions []model.MentoringSession
	if len(mentorIDs) == 0 {
		return sessions, nil
	}
	q := r.db.WithContext(ctx).
		Preload("Mentor").
		Where("mentor_user_id IN ? AND semester_id = ?", mentorIDs, semesterID).
		Order("session_date DESC, start_time DESC, created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&sessions).Error
	return sessions, err
}
