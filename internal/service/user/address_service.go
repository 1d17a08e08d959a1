package user

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/dumeirei/smart-mall-backend/internal/common/errors"
	"github.com/dumeirei/smart-mall-backend/internal/models"
	"github.com/dumeirei/smart-mall-backend/internal/repository"
)

// MaxAddressCount 每个用户最大地址数量
const MaxAddressCount = 20

// AddressService 收货地址服务
type AddressService struct {
	addressRepo *repository.AddressRepository
}

// NewAddressService 创建地址服务
func NewAddressService(addressRepo *repository.AddressRepository) *AddressService {
	return &AddressService{addressRepo: addressRepo}
}

// CreateAddressRequest 创建地址请求
type CreateAddressRequest struct {
	ReceiverName  string `json:"receiver_name" binding:"required,max=50"`
	ReceiverPhone string `json:"receiver_phone" binding:"required,max=20"`
	Province      string `json:"province" binding:"required,max=50"`
	City          string `json:"city" binding:"required,max=50"`
	District      string `json:"district" binding:"required,max=50"`
	Detail        string `json:"detail" binding:"required,max=255"`
	IsDefault     bool   `json:"is_default"`
}

// UpdateAddressRequest 更新地址请求
type UpdateAddressRequest struct {
	ReceiverName  *string `json:"receiver_name"`
	ReceiverPhone *string `json:"receiver_phone"`
	Province      *string `json:"province"`
	City          *string `json:"city"`
	District      *string `json:"district"`
	Detail        *string `json:"detail"`
	IsDefault     *bool   `json:"is_default"`
}

// Create 创建地址。用户的第一个地址自动设为默认。
func (s *AddressService) Create(ctx context.Context, userID int64, req *CreateAddressRequest) (*models.Address, error) {
	count, err := s.addressRepo.CountByUserID(ctx, userID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if count >= MaxAddressCount {
		return nil, errors.ErrInvalidParams.WithMessage(fmt.Sprintf("地址数量已达上限（%d个）", MaxAddressCount))
	}

	address := &models.Address{
		UserID:        userID,
		ReceiverName:  req.ReceiverName,
		ReceiverPhone: req.ReceiverPhone,
		Province:      req.Province,
		City:          req.City,
		District:      req.District,
		Detail:        req.Detail,
		IsDefault:     req.IsDefault || count == 0,
	}

	if err := s.addressRepo.Create(ctx, address); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return address, nil
}

// GetByID 获取地址，只能访问自己的
func (s *AddressService) GetByID(ctx context.Context, id, userID int64) (*models.Address, error) {
	address, err := s.addressRepo.GetByIDAndUserID(ctx, id, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrAddressNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return address, nil
}

// Update 更新地址
func (s *AddressService) Update(ctx context.Context, id, userID int64, req *UpdateAddressRequest) (*models.Address, error) {
	address, err := s.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.ReceiverName != nil {
		updates["receiver_name"] = *req.ReceiverName
	}
	if req.ReceiverPhone != nil {
		updates["receiver_phone"] = *req.ReceiverPhone
	}
	if req.Province != nil {
		updates["province"] = *req.Province
	}
	if req.City != nil {
		updates["city"] = *req.City
	}
	if req.District != nil {
		updates["district"] = *req.District
	}
	if req.Detail != nil {
		updates["detail"] = *req.Detail
	}

	if len(updates) > 0 {
		if err := s.addressRepo.Update(ctx, id, updates); err != nil {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
	}

	if req.IsDefault != nil && *req.IsDefault && !address.IsDefault {
		if err := s.SetDefault(ctx, id, userID); err != nil {
			return nil, err
		}
	}

	return s.GetByID(ctx, id, userID)
}

// Delete 删除地址
func (s *AddressService) Delete(ctx context.Context, id, userID int64) error {
	if err := s.addressRepo.Delete(ctx, id, userID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrAddressNotFound
		}
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

// List 获取用户全部地址，默认地址排最前
func (s *AddressService) List(ctx context.Context, userID int64) ([]*models.Address, error) {
	addresses, err := s.addressRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return addresses, nil
}

// GetDefault 获取默认地址，未设置时返回 nil
func (s *AddressService) GetDefault(ctx context.Context, userID int64) (*models.Address, error) {
	address, err := s.addressRepo.GetDefaultByUserID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return address, nil
}

// SetDefault 设置默认地址
func (s *AddressService) SetDefault(ctx context.Context, id, userID int64) error {
	if err := s.addressRepo.SetDefault(ctx, id, userID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrAddressNotFound
		}
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

// FullAddress 拼接完整地址
func FullAddress(address *models.Address) string {
	return address.Province + address.City + address.District + address.Detail
}
