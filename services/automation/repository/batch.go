package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"schoolops/domain"
)

type assignmentRepository struct {
	db *gorm.DB
}

func NewAssignmentRepository(database *gorm.DB) domain.AssignmentRepo {
	return &assignmentRepository{
		db: database,
	}
}

func (ar *assignmentRepository) CreateBatch(ctx context.Context, assignments *[]domain.SectionAssignment) error {
	if len(*assignments) == 0 {
		return nil
	}
	if err := ar.db.WithContext(ctx).Create(assignments).Error; err != nil {
		return fmt.Errorf("could not insert section assignments: %v", err)
	}
	return nil
}
