package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"schoolops/domain"
)

type alertRepository struct {
	db *gorm.DB
}

func NewAlertRepository(database *gorm.DB) domain.AlertRepo {
	return &alertRepository{
		db: database,
	}
}

func (ar *alertRepository) Create(ctx context.Context, alert *domain.AttendanceAlert) error {
	if err := ar.db.WithContext(ctx).Create(alert).Error; err != nil {
		return fmt.Errorf("could not insert attendance alert: %v", err)
	}
	return nil
}

func (ar *alertRepository) HasRecentForStudent(ctx context.Context, studentID int, since time.Time) (bool, error) {
	var count int64

	err := ar.db.WithContext(ctx).Model(&domain.AttendanceAlert{}).
		Where("student_id = ? AND sent_at >= ?", studentID, since).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("could not check recent alerts for student %d: %v", studentID, err)
	}

	return count > 0, nil
}
