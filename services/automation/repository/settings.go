package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"schoolops/domain"
)

type settingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(database *gorm.DB) domain.SettingsRepo {
	return &settingsRepository{
		db: database,
	}
}

// Load reads every automation setting into a snapshot. Callers decode values
// once per job run.
func (sr *settingsRepository) Load(ctx context.Context) (domain.Settings, error) {
	var rows []domain.AutomationConfig

	if err := sr.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("could not load automation settings: %v", err)
	}

	settings := make(domain.Settings, len(rows))
	for _, row := range rows {
		settings[row.ConfigKey] = domain.SettingValue{
			Key:  row.ConfigKey,
			Type: row.ConfigType,
			Raw:  row.ConfigValue,
		}
	}

	return settings, nil
}

func (sr *settingsRepository) Set(ctx context.Context, key, value, configType string) error {
	var existing domain.AutomationConfig

	err := sr.db.WithContext(ctx).Where("config_key = ?", key).First(&existing).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("could not read setting %s: %v", key, err)
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		row := domain.AutomationConfig{
			ConfigKey:   key,
			ConfigValue: value,
			ConfigType:  configType,
		}
		if err := sr.db.WithContext(ctx).Create(&row).Error; err != nil {
			return fmt.Errorf("could not insert setting %s: %v", key, err)
		}
		return nil
	}

	existing.ConfigValue = value
	existing.ConfigType = configType
	if err := sr.db.WithContext(ctx).Save(&existing).Error; err != nil {
		return fmt.Errorf("could not update setting %s: %v", key, err)
	}

	return nil
}
