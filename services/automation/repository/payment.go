package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"schoolops/domain"
)

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(database *gorm.DB) domain.PaymentRepo {
	return &paymentRepository{
		db: database,
	}
}

func (pr *paymentRepository) MonthlyTotals(ctx context.Context, academicYearID int, since time.Time) (*[]domain.MonthlyCollection, error) {
	var rows []domain.MonthlyCollection

	err := pr.db.WithContext(ctx).Model(&domain.Payment{}).
		Select(`EXTRACT(YEAR FROM payment_date)::int AS year,
			EXTRACT(MONTH FROM payment_date)::int AS month,
			SUM(payments.amount) AS amount,
			COUNT(payments.payment_id) AS count`).
		Joins("JOIN monthly_fees ON monthly_fees.monthly_fee_id = payments.monthly_fee_id").
		Where("monthly_fees.academic_year_id = ? AND payments.payment_date >= ?", academicYearID, since.Format("2006-01-02")).
		Group("year, month").
		Order("year, month").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("could not aggregate monthly payment totals: %v", err)
	}

	return &rows, nil
}

func (pr *paymentRepository) ModeBreakdown(ctx context.Context, academicYearID int) (*[]domain.PaymentModeRow, error) {
	var rows []domain.PaymentModeRow

	err := pr.db.WithContext(ctx).Model(&domain.Payment{}).
		Select("payment_mode AS mode, COUNT(payments.payment_id) AS count, SUM(payments.amount) AS amount").
		Joins("JOIN monthly_fees ON monthly_fees.monthly_fee_id = payments.monthly_fee_id").
		Where("monthly_fees.academic_year_id = ?", academicYearID).
		Group("payment_mode").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("could not aggregate payment modes: %v", err)
	}

	return &rows, nil
}

func (pr *paymentRepository) VolumeSince(ctx context.Context, academicYearID int, since time.Time) (int64, int64, error) {
	var row struct {
		Count  int64
		Amount *int64
	}

	err := pr.db.WithContext(ctx).Model(&domain.Payment{}).
		Select("COUNT(payments.payment_id) AS count, SUM(payments.amount) AS amount").
		Joins("JOIN monthly_fees ON monthly_fees.monthly_fee_id = payments.monthly_fee_id").
		Where("monthly_fees.academic_year_id = ? AND payments.payment_date >= ?", academicYearID, since.Format("2006-01-02")).
		Scan(&row).Error
	if err != nil {
		return 0, 0, fmt.Errorf("could not count recent payments: %v", err)
	}

	var amount int64
	if row.Amount != nil {
		amount = *row.Amount
	}

	return row.Count, amount, nil
}
