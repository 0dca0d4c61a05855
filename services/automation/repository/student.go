package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"schoolops/domain"
)

type studentRepository struct {
	db *gorm.DB
}

func NewStudentRepository(database *gorm.DB) domain.StudentRepo {
	return &studentRepository{
		db: database,
	}
}

func (sr *studentRepository) ActiveByYear(ctx context.Context, academicYearID int) (*[]domain.Student, error) {
	var students []domain.Student

	err := sr.db.WithContext(ctx).
		Where("academic_year_id = ? AND status = ?", academicYearID, "active").
		Preload("Class").
		Preload("MonthlyFees").
		Preload("Payments").
		Preload("FeeReminders").
		Find(&students).Error
	if err != nil {
		return nil, fmt.Errorf("could not get active students: %v", err)
	}

	return &students, nil
}

func (sr *studentRepository) ActiveByClassAndYear(ctx context.Context, classID, academicYearID int) (*[]domain.Student, error) {
	var students []domain.Student

	err := sr.db.WithContext(ctx).
		Where("class_id = ? AND academic_year_id = ? AND status = ?", classID, academicYearID, "active").
		Find(&students).Error
	if err != nil {
		return nil, fmt.Errorf("could not get students for class %d: %v", classID, err)
	}

	return &students, nil
}

func (sr *studentRepository) CountByYear(ctx context.Context, academicYearID int) (int64, int64, error) {
	var total, active int64

	err := sr.db.WithContext(ctx).Model(&domain.Student{}).
		Where("academic_year_id = ?", academicYearID).
		Count(&total).Error
	if err != nil {
		return 0, 0, fmt.Errorf("could not count students: %v", err)
	}

	err = sr.db.WithContext(ctx).Model(&domain.Student{}).
		Where("academic_year_id = ? AND status = ?", academicYearID, "active").
		Count(&active).Error
	if err != nil {
		return 0, 0, fmt.Errorf("could not count active students: %v", err)
	}

	return total, active, nil
}

func (sr *studentRepository) UpdateSection(ctx context.Context, studentID int, section string) error {
	err := sr.db.WithContext(ctx).Model(&domain.Student{}).
		Where("student_id = ?", studentID).
		Update("computed_section", section).Error
	if err != nil {
		return fmt.Errorf("could not update section for student %d: %v", studentID, err)
	}
	return nil
}

func (sr *studentRepository) ClassInsightRows(ctx context.Context, academicYearID int) (*[]domain.ClassInsightRow, error) {
	var rows []domain.ClassInsightRow

	err := sr.db.WithContext(ctx).Model(&domain.Student{}).
		Select(`classes.name AS class_name,
			COUNT(students.student_id) AS total_students,
			SUM(CASE WHEN students.gender = 'Male' THEN 1 ELSE 0 END) AS male_count,
			SUM(CASE WHEN students.gender = 'Female' THEN 1 ELSE 0 END) AS female_count,
			AVG(students.attendance_percentage) AS avg_attendance,
			AVG(students.average_marks) AS avg_marks`).
		Joins("JOIN classes ON classes.class_id = students.class_id").
		Where("students.academic_year_id = ? AND students.status = ?", academicYearID, "active").
		Group("classes.name").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("could not aggregate class insights: %v", err)
	}

	return &rows, nil
}

func (sr *studentRepository) SectionCounts(ctx context.Context, classID, academicYearID int) (*[]domain.SectionCount, error) {
	var counts []domain.SectionCount

	err := sr.db.WithContext(ctx).Model(&domain.Student{}).
		Select("computed_section AS section, COUNT(student_id) AS count").
		Where("class_id = ? AND academic_year_id = ? AND status = ?", classID, academicYearID, "active").
		Group("computed_section").
		Order("computed_section").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("could not get section distribution: %v", err)
	}

	return &counts, nil
}

func (sr *studentRepository) BelowAttendance(ctx context.Context, academicYearID int, threshold float64) (*[]domain.Student, error) {
	var students []domain.Student

	err := sr.db.WithContext(ctx).
		Where("academic_year_id = ? AND status = ? AND attendance_percentage IS NOT NULL AND attendance_percentage < ?",
			academicYearID, "active", threshold).
		Find(&students).Error
	if err != nil {
		return nil, fmt.Errorf("could not get students below attendance threshold: %v", err)
	}

	return &students, nil
}
