// Package user 用户服务单元测试
package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dumeirei/smart-mall-backend/internal/common/errors"
	"github.com/dumeirei/smart-mall-backend/internal/models"
	"github.com/dumeirei/smart-mall-backend/internal/repository"
)

func setupUserTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.User{}, &models.MemberLevel{}, &models.PointsLog{}, &models.Address{})
	require.NoError(t, err)

	levels := []*models.MemberLevel{
		{ID: 1, Name: "普通会员", Level: 1, MinPoints: 0, Discount: 1.00, PointsRate: 1.00},
		{ID: 2, Name: "黄金会员", Level: 2, MinPoints: 1000, Discount: 0.95, PointsRate: 1.20},
		{ID: 3, Name: "钻石会员", Level: 3, MinPoints: 5000, Discount: 0.90, PointsRate: 1.50},
	}
	for _, level := range levels {
		require.NoError(t, db.Create(level).Error)
	}

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, points int) *models.User {
	t.Helper()
	user := &models.User{Nickname: "小明", MemberLevelID: 1, Points: points, Status: models.UserStatusActive}
	require.NoError(t, db.Create(user).Error)
	return user
}

func newUserTestService(db *gorm.DB) *UserService {
	return NewUserService(db, repository.NewUserRepository(db), repository.NewMemberLevelRepository(db))
}

func TestUserService_GetProfile(t *testing.T) {
	ctx := context.Background()
	db := setupUserTestDB(t)
	svc := newUserTestService(db)

	t.Run("正常获取", func(t *testing.T) {
		user := createTestUser(t, db, 500)

		profile, err := svc.GetProfile(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "小明", profile.Nickname)
		assert.Equal(t, 500, profile.Points)
		require.NotNil(t, profile.MemberLevel)
		assert.Equal(t, "普通会员", profile.MemberLevel.Name)
		assert.InDelta(t, 1.00, profile.MemberLevel.Discount, 0.001)
	})

	t.Run("用户不存在", func(t *testing.T) {
		_, err := svc.GetProfile(ctx, 9999)
		assert.ErrorIs(t, err, errors.ErrUserNotFound)
	})
}

func TestUserService_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	db := setupUserTestDB(t)
	svc := newUserTestService(db)
	user := createTestUser(t, db, 0)

	nickname := "新昵称"
	gender := int8(models.GenderFemale)
	err := svc.UpdateProfile(ctx, user.ID, &UpdateProfileRequest{
		Nickname: &nickname,
		Gender:   &gender,
	})
	require.NoError(t, err)

	profile, err := svc.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "新昵称", profile.Nickname)
	assert.Equal(t, int8(models.GenderFemale), profile.Gender)

	// 空请求不报错
	assert.NoError(t, svc.UpdateProfile(ctx, user.ID, &UpdateProfileRequest{}))
}

func TestUserService_GetMemberLevels(t *testing.T) {
	ctx := context.Background()
	db := setupUserTestDB(t)
	svc := newUserTestService(db)

	levels, err := svc.GetMemberLevels(ctx)
	require.NoError(t, err)
	require.Len(t, levels, 3)
	assert.Equal(t, "普通会员", levels[0].Name)
	assert.Equal(t, "钻石会员", levels[2].Name)
}
