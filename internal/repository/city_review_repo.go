package repository

import (
	"context"

	"gorm.io/gorm"

	"citypages_202510/internal/model"
)

// CityReviewRepository 城市评价仓储接口
type CityReviewRepository interface {
	ListByPage(ctx context.Context, pageID int64) ([]model.CityReview, error)
	ReplaceForPage(ctx context.Context, pageID int64, reviews []model.CityReview) error
	DeleteByPage(ctx context.Context, pageID int64) error
}

type cityReviewRepo struct {
	db *gorm.DB
}

// NewCityReviewRepository 创建城市评价仓储
func NewCityReviewRepository(db *gorm.DB) CityReviewRepository {
	return &cityReviewRepo{db: db}
}

func (r *cityReviewRepo) ListByPage(ctx context.Context, pageID int64) ([]model.CityReview, error) {
	var reviews []model.CityReview
	err := r.db.WithContext(ctx).
		Where("page_id = ?", pageID).
		Order("id ASC").
		Find(&reviews).Error
	return reviews, err
}

// ReplaceForPage 在一个事务内替换页面的全部评价
func (r *cityReviewRepo) ReplaceForPage(ctx context.Context, pageID int64, reviews []model.CityReview) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("page_id = ?", pageID).Delete(&model.CityReview{}).Error; err != nil {
			return err
		}
		if len(reviews) == 0 {
			return nil
		}
		for i := range reviews {
			reviews[i].PageID = pageID
		}
		return tx.Create(&reviews).Error
	})
}

func (r *cityReviewRepo) DeleteByPage(ctx context.Context, pageID int64) error {
	return r.db.WithContext(ctx).Where("page_id = ?", pageID).Delete(&model.CityReview{}).Error
}
