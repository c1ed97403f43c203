package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"citypages_202510/internal/model"
)

// ==================== 仓储接口 ====================

// CityPageRepository 城市页面仓储接口
type CityPageRepository interface {
	Create(ctx context.Context, page *model.CityPage) error
	GetByID(ctx context.Context, id int64) (*model.CityPage, error)
	Update(ctx context.Context, page *model.CityPage) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter PageFilter) ([]model.CityPage, int64, error)

	// ExistsBySlug 同一州下 slug 是否已占用，州缩写不区分大小写
	ExistsBySlug(ctx context.Context, slug, stateAbbr string, excludeID int64) (bool, error)

	// FindBySource 按正文来源查找草稿页，升级任务使用
	FindBySource(ctx context.Context, source, status string, limit int) ([]model.CityPage, error)
}

// ==================== 过滤条件 ====================

// PageFilter 页面过滤条件
type PageFilter struct {
	Status    string
	StateAbbr string
	Source    string
	Page      int
	PageSize  int
}

// ==================== 仓储实现 ====================

type cityPageRepo struct {
	db *gorm.DB
}

// NewCityPageRepository 创建城市页面仓储
func NewCityPageRepository(db *gorm.DB) CityPageRepository {
	return &cityPageRepo{db: db}
}

func (r *cityPageRepo) Create(ctx context.Context, page *model.CityPage) error {
	return r.db.WithContext(ctx).Create(page).Error
}

func (r *cityPageRepo) GetByID(ctx context.Context, id int64) (*model.CityPage, error) {
	var page model.CityPage
	if err := r.db.WithContext(ctx).First(&page, id).Error; err != nil {
		return nil, err
	}
	return &page, nil
}

func (r *cityPageRepo) Update(ctx context.Context, page *model.CityPage) error {
	return r.db.WithContext(ctx).Save(page).Error
}

func (r *cityPageRepo) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&model.CityPage{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *cityPageRepo) List(ctx context.Context, filter PageFilter) ([]model.CityPage, int64, error) {
	var pages []model.CityPage
	var total int64

	query := r.db.WithContext(ctx).Model(&model.CityPage{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.StateAbbr != "" {
		query = query.Where("state_abbr = ?", strings.ToUpper(filter.StateAbbr))
	}
	if filter.Source != "" {
		query = query.Where("content_source = ?", filter.Source)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	offset := (filter.Page - 1) * filter.PageSize
	if err := query.Order("id DESC").Limit(filter.PageSize).Offset(offset).Find(&pages).Error; err != nil {
		return nil, 0, err
	}

	return pages, total, nil
}

func (r *cityPageRepo) ExistsBySlug(ctx context.Context, slug, stateAbbr string, excludeID int64) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&model.CityPage{}).
		Where("url_slug = ? AND UPPER(state_abbr) = ?", slug, strings.ToUpper(stateAbbr))
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *cityPageRepo) FindBySource(ctx context.Context, source, status string, limit int) ([]model.CityPage, error) {
	var pages []model.CityPage
	query := r.db.WithContext(ctx).Where("content_source = ?", source)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Order("id ASC").Find(&pages).Error
	return pages, err
}
