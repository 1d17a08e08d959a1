// Package repository 提供数据访问层
package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/smart-mall-backend/internal/models"
)

// CategoryRepository 商品分类仓储
type CategoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository 创建分类仓储
func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// Create 创建分类
func (r *CategoryRepository) Create(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

// GetByID 根据 ID 获取分类
func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).First(&category, id).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// Update 更新分类
func (r *CategoryRepository) Update(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Save(category).Error
}

// Delete 删除分类
func (r *CategoryRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.Category{}, id).Error
}

// ListActive 获取启用的分类列表
func (r *CategoryRepository) ListActive(ctx context.Context) ([]*models.Category, error) {
	var categories []*models.Category
	err := r.db.WithContext(ctx).
		Where("status = ?", models.CategoryStatusActive).
		Order("sort DESC, id ASC").
		Find(&categories).Error
	return categories, err
}

// ListByParentID 获取子分类列表
func (r *CategoryRepository) ListByParentID(ctx context.Context, parentID int64) ([]*models.Category, error) {
	var categories []*models.Category
	query := r.db.WithContext(ctx).Where("status = ?", models.CategoryStatusActive)
	if parentID > 0 {
		query = query.Where("parent_id = ?", parentID)
	} else {
		query = query.Where("parent_id IS NULL")
	}
	err := query.Order("sort DESC, id ASC").Find(&categories).Error
	return categories, err
}

// ListTree 获取顶级分类及其子分类
func (r *CategoryRepository) ListTree(ctx context.Context) ([]*models.Category, error) {
	var categories []*models.Category
	err := r.db.WithContext(ctx).
		Where("parent_id IS NULL AND status = ?", models.CategoryStatusActive).
		Preload("Children", func(db *gorm.DB) *gorm.DB {
			return db.Where("status = ?", models.CategoryStatusActive).Order("sort DESC, id ASC")
		}).
		Order("sort DESC, id ASC").
		Find(&categories).Error
	return categories, err
}

// CountProducts 统计分类下的商品数量
func (r *CategoryRepository) CountProducts(ctx context.Context, categoryID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("category_id = ?", categoryID).
		Count(&count).Error
	return count, err
}
