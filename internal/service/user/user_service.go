// Package user 提供用户服务
package user

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/smart-mall-backend/internal/common/errors"
	"github.com/dumeirei/smart-mall-backend/internal/repository"
)

// UserService 用户服务
type UserService struct {
	db              *gorm.DB
	userRepo        *repository.UserRepository
	memberLevelRepo *repository.MemberLevelRepository
}

// NewUserService 创建用户服务
func NewUserService(db *gorm.DB, userRepo *repository.UserRepository, memberLevelRepo *repository.MemberLevelRepository) *UserService {
	return &UserService{
		db:              db,
		userRepo:        userRepo,
		memberLevelRepo: memberLevelRepo,
	}
}

// UserProfile 用户详情
type UserProfile struct {
	ID            int64            `json:"id"`
	Phone         *string          `json:"phone,omitempty"`
	Nickname      string           `json:"nickname"`
	Avatar        *string          `json:"avatar,omitempty"`
	Gender        int8             `json:"gender"`
	Birthday      *time.Time       `json:"birthday,omitempty"`
	MemberLevelID int64            `json:"member_level_id"`
	MemberLevel   *MemberLevelInfo `json:"member_level,omitempty"`
	Points        int              `json:"points"`
	CreatedAt     time.Time        `json:"created_at"`
}

// MemberLevelInfo 会员等级信息
type MemberLevelInfo struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Level     int     `json:"level"`
	MinPoints int     `json:"min_points"`
	Discount  float64 `json:"discount"`
}

// UpdateProfileRequest 更新用户信息请求
type UpdateProfileRequest struct {
	Nickname *string    `json:"nickname,omitempty" binding:"omitempty,max=50"`
	Avatar   *string    `json:"avatar,omitempty"`
	Gender   *int8      `json:"gender,omitempty" binding:"omitempty,oneof=0 1 2"`
	Birthday *time.Time `json:"birthday,omitempty"`
}

// GetProfile 获取用户详情
func (s *UserService) GetProfile(ctx context.Context, userID int64) (*UserProfile, error) {
	user, err := s.userRepo.GetByIDWithMemberLevel(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrUserNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	profile := &UserProfile{
		ID:            user.ID,
		Phone:         user.Phone,
		Nickname:      user.Nickname,
		Avatar:        user.Avatar,
		Gender:        user.Gender,
		Birthday:      user.Birthday,
		MemberLevelID: user.MemberLevelID,
		Points:        user.Points,
		CreatedAt:     user.CreatedAt,
	}

	if user.MemberLevel != nil {
		profile.MemberLevel = &MemberLevelInfo{
			ID:        user.MemberLevel.ID,
			Name:      user.MemberLevel.Name,
			Level:     user.MemberLevel.Level,
			MinPoints: user.MemberLevel.MinPoints,
			Discount:  user.MemberLevel.Discount,
		}
	}

	return profile, nil
}

// UpdateProfile 更新用户信息
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, req *UpdateProfileRequest) error {
	updates := make(map[string]interface{})

	if req.Nickname != nil {
		updates["nickname"] = *req.Nickname
	}
	if req.Avatar != nil {
		updates["avatar"] = *req.Avatar
	}
	if req.Gender != nil {
		updates["gender"] = *req.Gender
	}
	if req.Birthday != nil {
		updates["birthday"] = *req.Birthday
	}

	if len(updates) == 0 {
		return nil
	}

	if err := s.userRepo.UpdateFields(ctx, userID, updates); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

// GetMemberLevels 获取会员等级列表
func (s *UserService) GetMemberLevels(ctx context.Context) ([]*MemberLevelInfo, error) {
	levels, err := s.memberLevelRepo.GetAll(ctx)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	result := make([]*MemberLevelInfo, len(levels))
	for i, level := range levels {
		result[i] = &MemberLevelInfo{
			ID:        level.ID,
			Name:      level.Name,
			Level:     level.Level,
			MinPoints: level.MinPoints,
			Discount:  level.Discount,
		}
	}
	return result, nil
}
