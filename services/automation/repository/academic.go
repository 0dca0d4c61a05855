package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"schoolops/domain"
)

type academicRepository struct {
	db *gorm.DB
}

func NewAcademicRepository(database *gorm.DB) domain.AcademicRepo {
	return &academicRepository{
		db: database,
	}
}

func (ar *academicRepository) AllClasses(ctx context.Context) (*[]domain.Class, error) {
	var classes []domain.Class

	if err := ar.db.WithContext(ctx).Order("name").Find(&classes).Error; err != nil {
		return nil, fmt.Errorf("could not get classes: %v", err)
	}

	return &classes, nil
}

func (ar *academicRepository) CurrentYear(ctx context.Context) (*domain.AcademicYear, error) {
	var year domain.AcademicYear

	err := ar.db.WithContext(ctx).Where("is_current = ?", true).First(&year).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("no current academic year configured")
		}
		return nil, fmt.Errorf("could not get current academic year: %v", err)
	}

	return &year, nil
}
