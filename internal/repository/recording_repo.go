package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/internal/model"
)

// RecordingRepository 录屏数据访问接口
type RecordingRepository interface {
	Create(ctx context.Context, recording *model.SessionRecording) error
	ListBySession(ctx context.Context, sessionID string) ([]model.SessionRecording, error)
	DeleteBySession(ctx context.Context, sessionID string) error
}

type recordingRepo struct {
	db *gorm.DB
}

// NewRecordingRepo 创建 RecordingRepository 实例
func NewRecordingRepo(db *gorm.DB) RecordingRepository {
	return &recordingRepo{db: db}
}

func (r *recordingRepo) Create(ctx context.Context, recording *model.SessionRecording) error {
	return r.db.WithContext(ctx).Create(recording).Error
}

func (r *recordingRepo) ListBySession(ctx context.Context, sessionID string) ([]model.SessionRecording, error) {
	var recordings []model.SessionRecording
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&recordings).Error
	return recordings, err
}

func (r *recordingRepo) DeleteBySession(ctx context.Context, sessionID string) error {
	return r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&model.SessionRecording{}).Error
}
