package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/internal/model"
)

// PairingRepository 配对数据访问接口
type PairingRepository interface {
	Create(ctx context.Context, pairing *model.Pairing) error
	IsPaired(ctx context.Context, mentorID, menteeID, semesterID string) (bool, error)
	ListMentees(ctx context.Context, mentorID, semesterID string) ([]model.User, error)
	ListMentorIDs(ctx context.Context, menteeID, semesterID string) ([]string, error)
}

type pairingRepo struct {
	db *gorm.DB
}

// NewPairingRepo 创建 PairingRepository 实例
func NewPairingRepo(db *gorm.DB) PairingRepository {
	return &pairingRepo{db: db}
}

func (r *pairingRepo) Create(ctx context.Context, pairing *model.Pairing) error {
	return r.db.WithContext(ctx).Create(pairing).Error
}

func (r *pairingRepo) IsPaired(ctx context.Context, mentorID, menteeID, semesterID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Pairing{}).
		Where("mentor_user_id = ? AND mentee_user_id = ? AND semester_id = ?", mentorID, menteeID, semesterID).
		Count(&count).Error
	return count > 0, err
}

func (r *pairingRepo) ListMentees(ctx context.Context, mentorID, semesterID string) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Joins("JOIN pairings p ON p.mentee_user_id = users.user_id").
		Where("p.mentor_user_id = ? AND p.semester_id = ?", mentorID, semesterID).
		Order("users.name ASC").
		Find(&users).Error
	return users, err
}

func (r *pairingRepo) ListMentorIDs(ctx context.Context, menteeID, semesterID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.Pairing{}).
		Where("mentee_user_id = ? AND semester_id = ?", menteeID, semesterID).
		Pluck("mentor_user_id", &ids).Error
	return ids, err
}
