package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"schoolops/domain"
)

type reminderRepository struct {
	db *gorm.DB
}

func NewReminderRepository(database *gorm.DB) domain.ReminderRepo {
	return &reminderRepository{
		db: database,
	}
}

func (rr *reminderRepository) Create(ctx context.Context, reminder *domain.FeeReminder) error {
	if err := rr.db.WithContext(ctx).Create(reminder).Error; err != nil {
		return fmt.Errorf("could not insert fee reminder: %v", err)
	}
	return nil
}

func (rr *reminderRepository) Save(ctx context.Context, reminder *domain.FeeReminder) error {
	if err := rr.db.WithContext(ctx).Save(reminder).Error; err != nil {
		return fmt.Errorf("could not update fee reminder %d: %v", reminder.FeeReminderID, err)
	}
	return nil
}

func (rr *reminderRepository) CountForFee(ctx context.Context, studentID, monthlyFeeID int) (int64, error) {
	var count int64

	err := rr.db.WithContext(ctx).Model(&domain.FeeReminder{}).
		Where("student_id = ? AND monthly_fee_id = ?", studentID, monthlyFeeID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("could not count reminders for fee %d: %v", monthlyFeeID, err)
	}

	return count, nil
}

func (rr *reminderRepository) HasRecentOfType(ctx context.Context, studentID, monthlyFeeID int, reminderType string, since time.Time) (bool, error) {
	var count int64

	err := rr.db.WithContext(ctx).Model(&domain.FeeReminder{}).
		Where("student_id = ? AND monthly_fee_id = ? AND reminder_type = ? AND sent_at >= ?",
			studentID, monthlyFeeID, reminderType, since).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("could not check recent reminders for fee %d: %v", monthlyFeeID, err)
	}

	return count > 0, nil
}

func (rr *reminderRepository) OpenByFee(ctx context.Context, monthlyFeeID int) (*[]domain.FeeReminder, error) {
	var reminders []domain.FeeReminder

	err := rr.db.WithContext(ctx).
		Where("monthly_fee_id = ? AND payment_received_after = ?", monthlyFeeID, false).
		Find(&reminders).Error
	if err != nil {
		return nil, fmt.Errorf("could not get open reminders for fee %d: %v", monthlyFeeID, err)
	}

	return &reminders, nil
}

func (rr *reminderRepository) List(ctx context.Context, filter domain.ReminderFilter) (*[]domain.FeeReminder, error) {
	var reminders []domain.FeeReminder

	days := filter.Days
	if days <= 0 {
		days = 30
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	query := rr.db.WithContext(ctx).
		Where("sent_at >= ?", time.Now().AddDate(0, 0, -days)).
		Preload("Student").
		Order("sent_at DESC").
		Limit(limit).
		Offset(filter.Offset)

	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}
	if filter.ReminderType != nil {
		query = query.Where("reminder_type = ?", *filter.ReminderType)
	}

	if err := query.Find(&reminders).Error; err != nil {
		return nil, fmt.Errorf("could not list fee reminders: %v", err)
	}

	return &reminders, nil
}

func (rr *reminderRepository) Aggregates(ctx context.Context) (*domain.ReminderAggregates, error) {
	agg := domain.ReminderAggregates{
		ByType: map[string]int{},
	}

	err := rr.db.WithContext(ctx).Model(&domain.FeeReminder{}).Count(&agg.Total).Error
	if err != nil {
		return nil, fmt.Errorf("could not count reminders: %v", err)
	}

	var typeRows []struct {
		ReminderType string
		Count        int
	}
	err = rr.db.WithContext(ctx).Model(&domain.FeeReminder{}).
		Select("reminder_type, COUNT(fee_reminder_id) AS count").
		Group("reminder_type").
		Scan(&typeRows).Error
	if err != nil {
		return nil, fmt.Errorf("could not count reminders by type: %v", err)
	}
	for _, row := range typeRows {
		agg.ByType[row.ReminderType] = row.Count
	}

	err = rr.db.WithContext(ctx).Model(&domain.FeeReminder{}).
		Where("payment_received_after = ?", true).
		Count(&agg.PaymentAfter).Error
	if err != nil {
		return nil, fmt.Errorf("could not count responded reminders: %v", err)
	}

	err = rr.db.WithContext(ctx).Model(&domain.FeeReminder{}).
		Select("AVG(days_to_payment)").
		Where("days_to_payment IS NOT NULL").
		Scan(&agg.AvgDaysToPay).Error
	if err != nil {
		return nil, fmt.Errorf("could not average days to payment: %v", err)
	}

	err = rr.db.WithContext(ctx).Model(&domain.FeeReminder{}).
		Where("sent_at >= ?", time.Now().AddDate(0, 0, -7)).
		Count(&agg.SentLast7Days).Error
	if err != nil {
		return nil, fmt.Errorf("could not count recent reminders: %v", err)
	}

	return &agg, nil
}
