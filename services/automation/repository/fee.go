package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"schoolops/domain"
)

type feeRepository struct {
	db *gorm.DB
}

func NewFeeRepository(database *gorm.DB) domain.FeeRepo {
	return &feeRepository{
		db: database,
	}
}

func (fr *feeRepository) PendingDueOn(ctx context.Context, due time.Time) (*[]domain.MonthlyFee, error) {
	var fees []domain.MonthlyFee

	err := fr.db.WithContext(ctx).
		Where("status IN ? AND amount_pending > 0 AND due_date = ?",
			[]string{domain.FeeStatusPending, domain.FeeStatusPartial}, due.Format("2006-01-02")).
		Preload("Student").
		Find(&fees).Error
	if err != nil {
		return nil, fmt.Errorf("could not get pending fees due on %s: %v", due.Format("2006-01-02"), err)
	}

	return &fees, nil
}

func (fr *feeRepository) TotalPending(ctx context.Context, academicYearID int) (int64, error) {
	var total *int64

	err := fr.db.WithContext(ctx).Model(&domain.MonthlyFee{}).
		Select("SUM(amount_pending)").
		Where("academic_year_id = ? AND status IN ?", academicYearID,
			[]string{domain.FeeStatusPending, domain.FeeStatusPartial}).
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("could not sum pending fees: %v", err)
	}
	if total == nil {
		return 0, nil
	}

	return *total, nil
}

func (fr *feeRepository) TrendByMonth(ctx context.Context, academicYearID int) (*[]domain.FeeTrendRow, error) {
	var rows []domain.FeeTrendRow

	err := fr.db.WithContext(ctx).Model(&domain.MonthlyFee{}).
		Select(`month, year,
			COUNT(monthly_fee_id) AS total_fees,
			SUM(CASE WHEN status = 'paid' THEN 1 ELSE 0 END) AS paid_fees,
			SUM(total_fee) AS total_amount,
			SUM(amount_paid) AS collected_amount`).
		Where("academic_year_id = ?", academicYearID).
		Group("month, year").
		Order("year, month").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("could not aggregate fee trends: %v", err)
	}

	return &rows, nil
}

func (fr *feeRepository) CollectionByClass(ctx context.Context, academicYearID int) (*[]domain.ClassCollectionRow, error) {
	var rows []domain.ClassCollectionRow

	err := fr.db.WithContext(ctx).Model(&domain.MonthlyFee{}).
		Select(`classes.name AS class_name,
			COUNT(monthly_fees.monthly_fee_id) AS total_fees,
			SUM(CASE WHEN monthly_fees.status = 'paid' THEN 1 ELSE 0 END) AS paid_fees,
			SUM(monthly_fees.amount_pending) AS pending_amount`).
		Joins("JOIN students ON students.student_id = monthly_fees.student_id").
		Joins("JOIN classes ON classes.class_id = students.class_id").
		Where("monthly_fees.academic_year_id = ?", academicYearID).
		Group("classes.name").
		Order("pending_amount DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("could not aggregate class collections: %v", err)
	}

	return &rows, nil
}
