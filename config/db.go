package config

import (
	"fmt"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"schoolops/domain"
)

var gormDB *gorm.DB

func GetDatabaseURL() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		os.Getenv("DB_HOST"), os.Getenv("DB_PORT"), os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"), os.Getenv("DB_DATABASE"))
}

func BootDB() (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(GetDatabaseURL()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := autoMigrate(db); err != nil {
		return nil, err
	}

	gormDB = db
	return gormDB, nil
}

func autoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&domain.User{},
		&domain.Class{},
		&domain.AcademicYear{},
		&domain.Student{},
		&domain.MonthlyFee{},
		&domain.Payment{},
		&domain.FeeReminder{},
		&domain.AttendanceAlert{},
		&domain.AnalyticsCache{},
		&domain.SectionAssignment{},
		&domain.AutomationConfig{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
