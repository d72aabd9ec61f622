package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/internal/model"
)

// SemesterRepository 学期数据访问接口
type SemesterRepository interface {
	Create(ctx context.Context, semester *model.Semester) error
	GetByID(ctx context.Context, id string) (*model.Semester, error)
	// GetActiveAt 返回包含 t 的学期；区间重叠时按 start_date、semester_id 取第一条
	GetActiveAt(ctx context.Context, t time.Time) (*model.Semester, error)
}

type semesterRepo struct {
	db *gorm.DB
}

// NewSemesterRepo 创建 SemesterRepository 实例
func NewSemesterRepo(db *gorm.DB) SemesterRepository {
	return &semesterRepo{db: db}
}

func (r *semesterRepo) Create(ctx context.Context, semester *model.Semester) error {
	return r.db.WithContext(ctx).Create(semester).Error
}

func (r *semesterRepo) GetByID(ctx context.Context, id string) (*model.Semester, error) {
	var semester model.Semester
	err := r.db.WithContext(ctx).
		Where("semester_id = ?", id).
		First(&semester).Error
	if err != nil {
		return nil, err
	}
	return &semester, nil
}

func (r *semesterRepo) GetActiveAt(ctx context.Context, t time.Time) (*model.Semester, error) {
	var semester model.Semester
	err := r.db.WithContext(ctx).
		Where("start_date <= ? AND end_date >= ?", t, t).
		Order("start_date ASC, semester_id ASC").
		First(&semester).Error
	if err != nil {
		return nil, err
	}
	return &semester, nil
}
