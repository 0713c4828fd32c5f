package repository

import (
	"context"
	"fmt"

	"HipsterFM/model"

	"gorm.io/gorm"
)

// CatalogRepository 曲库精选歌曲的数据访问层
type CatalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository 创建曲库仓库
func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// RandomLeads 随机抽取指定数量的精选歌曲，排除给定标题
func (r *CatalogRepository) RandomLeads(ctx context.Context, count int, excludeTitles []string) ([]model.CuratedSong, error) {
	if count <= 0 {
		return nil, nil
	}

	query := r.db.WithContext(ctx).Model(&model.CuratedSong{})
	if len(excludeTitles) > 0 {
		query = query.Where("title NOT IN ?", excludeTitles)
	}

	var songs []model.CuratedSong
	if err := query.Order("RAND()").Limit(count).Find(&songs).Error; err != nil {
		return nil, fmt.Errorf("抽取曲库歌曲失败: %w", err)
	}
	return songs, nil
}

// Count 返回曲库歌曲总数
func (r *CatalogRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.CuratedSong{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("统计曲库歌曲失败: %w", err)
	}
	return count, nil
}

// SeedDefaults 曲库为空时写入内置精选列表
func (r *CatalogRepository) SeedDefaults(ctx context.Context, songs []model.CuratedSong) error {
	count, err := r.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(songs, 100).Error; err != nil {
		return fmt.Errorf("写入内置曲库失败: %w", err)
	}
	return nil
}
