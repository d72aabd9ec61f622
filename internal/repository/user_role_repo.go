package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/BinusStudentLearningCommunity/Nindyamaya-2025/internal/model"
)

// UserRoleRepository 学期角色数据访问接口
type UserRoleRepository interface {
	Create(ctx context.Context, role *model.UserRole) error
	// GetRole 未分配角色时返回 gorm.ErrRecordNotFound
	GetRole(ctx context.Context, userID, semesterID string) (string, error)
}

type userRoleRepo struct {
	db *gorm.DB
}

// NewUserRoleRepo 创建 UserRoleRepository 实例
func NewUserRoleRepo(db *gorm.DB) UserRoleRepository {
	return &userRoleRepo{db: db}
}

func (r *userRoleRepo) Create(ctx context.Context, role *model.UserRole) error {
	return r.db.WithContext(ctx).Create(role).Error
}

func (r *userRoleRepo) GetRole(ctx context.Context, userID, semesterID string) (string, error) {
	var ur model.UserRole
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND semester_id = ?", userID, semesterID).
		First(&ur).Error
	if err != nil {
		return "", err
	}
	return ur.Role, nil
}
