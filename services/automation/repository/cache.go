package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"schoolops/domain"
)

type cacheRepository struct {
	db *gorm.DB
}

func NewCacheRepository(database *gorm.DB) domain.CacheRepo {
	return &cacheRepository{
		db: database,
	}
}

// Get returns the cached payload only while its expiry is in the future. The
// expiry check here is authoritative; the sweep job is an optimization.
func (cr *cacheRepository) Get(ctx context.Context, reportType string, params map[string]any) (datatypes.JSON, bool, error) {
	paramKey, err := domain.CanonicalParams(params)
	if err != nil {
		return nil, false, err
	}

	var entry domain.AnalyticsCache
	err = cr.db.WithContext(ctx).
		Where("report_type = ? AND param_key = ? AND expires_at > ?", reportType, paramKey, time.Now()).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("could not read analytics cache: %v", err)
	}

	return entry.ResultData, true, nil
}

func (cr *cacheRepository) Put(ctx context.Context, reportType string, params map[string]any, result any, ttl time.Duration) error {
	paramKey, err := domain.CanonicalParams(params)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("could not encode analytics result: %v", err)
	}

	now := time.Now()
	var entry domain.AnalyticsCache
	err = cr.db.WithContext(ctx).
		Where("report_type = ? AND param_key = ?", reportType, paramKey).
		First(&entry).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("could not read analytics cache: %v", err)
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		entry = domain.AnalyticsCache{
			ReportType: reportType,
			ParamKey:   paramKey,
			Parameters: datatypes.JSON(paramKey),
			ResultData: payload,
			ComputedAt: now,
			ExpiresAt:  now.Add(ttl),
		}
		if err := cr.db.WithContext(ctx).Create(&entry).Error; err != nil {
			return fmt.Errorf("could not insert analytics cache entry: %v", err)
		}
		return nil
	}

	entry.ResultData = payload
	entry.ComputedAt = now
	entry.ExpiresAt = now.Add(ttl)
	if err := cr.db.WithContext(ctx).Save(&entry).Error; err != nil {
		return fmt.Errorf("could not update analytics cache entry: %v", err)
	}

	return nil
}

func (cr *cacheRepository) Invalidate(ctx context.Context, reportType string) (int64, error) {
	res := cr.db.WithContext(ctx).
		Where("report_type = ?", reportType).
		Delete(&domain.AnalyticsCache{})
	if res.Error != nil {
		return 0, fmt.Errorf("could not invalidate cache for %s: %v", reportType, res.Error)
	}
	return res.RowsAffected, nil
}

func (cr *cacheRepository) InvalidateAll(ctx context.Context) (int64, error) {
	res := cr.db.WithContext(ctx).
		Where("1 = 1").
		Delete(&domain.AnalyticsCache{})
	if res.Error != nil {
		return 0, fmt.Errorf("could not clear analytics cache: %v", res.Error)
	}
	return res.RowsAffected, nil
}

func (cr *cacheRepository) SweepExpired(ctx context.Context) (int64, error) {
	res := cr.db.WithContext(ctx).
		Where("expires_at < ?", time.Now()).
		Delete(&domain.AnalyticsCache{})
	if res.Error != nil {
		return 0, fmt.Errorf("could not sweep expired cache entries: %v", res.Error)
	}
	return res.RowsAffected, nil
}
