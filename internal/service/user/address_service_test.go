package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dumeirei/smart-mall-backend/internal/common/errors"
	"github.com/dumeirei/smart-mall-backend/internal/repository"
)

func newAddressTestService(db *gorm.DB) *AddressService {
	return NewAddressService(repository.NewAddressRepository(db))
}

func newAddressRequest(name string, isDefault bool) *CreateAddressRequest {
	return &CreateAddressRequest{
		ReceiverName:  name,
		ReceiverPhone: "13800138000",
		Province:      "广东省",
		City:          "深圳市",
		District:      "南山区",
		Detail:        "科技园路1号",
		IsDefault:     isDefault,
	}
}

func TestAddressService_Create(t *testing.T) {
	ctx := context.Background()
	db := setupUserTestDB(t)
	svc := newAddressTestService(db)
	user := createTestUser(t, db, 0)

	t.Run("第一个地址自动设为默认", func(t *testing.T) {
		address, err := svc.Create(ctx, user.ID, newAddressRequest("张三", false))
		require.NoError(t, err)
		assert.True(t, address.IsDefault)
	})

	t.Run("新默认地址取代旧默认", func(t *testing.T) {
		address, err := svc.Create(ctx, user.ID, newAddressRequest("李四", true))
		require.NoError(t, err)
		assert.True(t, address.IsDefault)

		list, err := svc.List(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, list, 2)

		defaultCount := 0
		for _, a := range list {
			if a.IsDefault {
				defaultCount++
				assert.Equal(t, "李四", a.ReceiverName)
			}
		}
		assert.Equal(t, 1, defaultCount)
	})
}

func TestAddressService_Update(t *testing.T) {
	ctx := context.Background()
	db := setupUserTestDB(t)
	svc := newAddressTestService(db)
	user := createTestUser(t, db, 0)

	address, err := svc.Create(ctx, user.ID, newAddressRequest("张三", true))
	require.NoError(t, err)

	detail := "高新南一道99号"
	updated, err := svc.Update(ctx, address.ID, user.ID, &UpdateAddressRequest{Detail: &detail})
	require.NoError(t, err)
	assert.Equal(t, "高新南一道99号", updated.Detail)
	assert.Equal(t, "张三", updated.ReceiverName)

	t.Run("不能更新他人地址", func(t *testing.T) {
		other := createTestUser(t, db, 0)
		_, err := svc.Update(ctx, address.ID, other.ID, &UpdateAddressRequest{Detail: &detail})
		assert.ErrorIs(t, err, errors.ErrAddressNotFound)
	})
}

func TestAddressService_SetDefaultAndDelete(t *testing.T) {
	ctx := context.Background()
	db := setupUserTestDB(t)
	svc := newAddressTestService(db)
	user := createTestUser(t, db, 0)

	first, err := svc.Create(ctx, user.ID, newAddressRequest("张三", false))
	require.NoError(t, err)
	second, err := svc.Create(ctx, user.ID, newAddressRequest("李四", false))
	require.NoError(t, err)

	require.NoError(t, svc.SetDefault(ctx, second.ID, user.ID))

	def, err := svc.GetDefault(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.Equal(t, second.ID, def.ID)

	require.NoError(t, svc.Delete(ctx, first.ID, user.ID))
	list, err := svc.List(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	t.Run("删除他人地址返回不存在", func(t *testing.T) {
		other := createTestUser(t, db, 0)
		err := svc.Delete(ctx, second.ID, other.ID)
		assert.ErrorIs(t, err, errors.ErrAddressNotFound)
	})
}

func TestFullAddress(t *testing.T) {
	ctx := context.Background()
	db := setupUserTestDB(t)
	svc := newAddressTestService(db)
	user := createTestUser(t, db, 0)

	address, err := svc.Create(ctx, user.ID, newAddressRequest("张三", true))
	require.NoError(t, err)
	assert.Equal(t, "广东省深圳市南山区科技园路1号", FullAddress(address))
}
