package domain

import (
	"context"
	"time"
)

type Class struct {
	ClassID   int       `gorm:"primaryKey;autoIncrement" json:"class_id"`
	Name      string    `gorm:"type:varchar(50);not null;unique" json:"name" valid:"required~Class name is required"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type AcademicYear struct {
	AcademicYearID int       `gorm:"primaryKey;autoIncrement" json:"academic_year_id"`
	Name           string    `gorm:"type:varchar(20);not null;unique" json:"name" valid:"required~Academic year name is required"`
	IsCurrent      bool      `gorm:"not null;default:false" json:"is_current"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type AcademicRepo interface {
	AllClasses(ctx context.Context) (*[]Class, error)
	CurrentYear(ctx context.Context) (*AcademicYear, error)
}
