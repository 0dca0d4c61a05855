package domain

import (
	"context"
	"time"
)

// Reminder kinds, ordered by urgency.
const (
	ReminderAdvance = "advance"
	ReminderDue     = "due"
	ReminderOverdue = "overdue"
	ReminderFinal   = "final"
)

const (
	DeliverySent   = "sent"
	DeliveryFailed = "failed"
)

// FeeReminder is the ledger record for one reminder attempt. A row is written
// whether or not the transport succeeded, so throttling counts failed
// attempts too. Only the payment follow-up fields are ever updated.
type FeeReminder struct {
	FeeReminderID        int        `gorm:"primaryKey;autoIncrement" json:"fee_reminder_id"`
	StudentID            int        `gorm:"not null;index" json:"student_id"`
	MonthlyFeeID         int        `gorm:"not null;index" json:"monthly_fee_id"`
	ReminderType         string     `gorm:"type:varchar(20);not null" json:"reminder_type"`
	AmountPending        int64      `gorm:"not null" json:"amount_pending"`
	DueDate              time.Time  `gorm:"type:date;not null" json:"due_date"`
	SentAt               time.Time  `gorm:"not null;index" json:"sent_at"`
	DeliveryStatus       string     `gorm:"type:varchar(20);not null" json:"delivery_status"`
	PaymentReceivedAfter bool       `gorm:"not null;default:false" json:"payment_received_after"`
	DaysToPayment        *int       `json:"days_to_payment"`
	Student              Student    `gorm:"foreignKey:StudentID" json:"student"`
	CreatedAt            time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

type ReminderFilter struct {
	StudentID    *int
	ReminderType *string
	Days         int
	Limit        int
	Offset       int
}

// ReminderAggregates are the raw ledger counts the effectiveness stats are
// derived from.
type ReminderAggregates struct {
	Total           int64          `json:"total"`
	ByType          map[string]int `json:"by_type"`
	PaymentAfter    int64          `json:"payment_after"`
	AvgDaysToPay    *float64       `json:"avg_days_to_payment"`
	SentLast7Days   int64          `json:"sent_last_7_days"`
}

type ReminderStats struct {
	TotalReminders       int64          `json:"total_reminders"`
	ByType               map[string]int `json:"by_type"`
	PaymentAfterReminder int64          `json:"payment_after_reminder"`
	EffectivenessRate    float64        `json:"effectiveness_rate"`
	AvgDaysToPayment     *float64       `json:"avg_days_to_payment"`
	RecentReminders7Days int64          `json:"recent_reminders_7_days"`
}

// ReminderRunSummary is what one reminder job run returns, scheduled or
// manually triggered.
type ReminderRunSummary struct {
	TotalProcessed  int            `json:"total_processed"`
	RemindersSent   int            `json:"reminders_sent"`
	RemindersFailed int            `json:"reminders_failed"`
	Errors          int            `json:"errors"`
	ByType          map[string]int `json:"by_type"`
}

type ReminderRepo interface {
	Create(ctx context.Context, reminder *FeeReminder) error
	Save(ctx context.Context, reminder *FeeReminder) error
	CountForFee(ctx context.Context, studentID, monthlyFeeID int) (int64, error)
	HasRecentOfType(ctx context.Context, studentID, monthlyFeeID int, reminderType string, since time.Time) (bool, error)
	OpenByFee(ctx context.Context, monthlyFeeID int) (*[]FeeReminder, error)
	List(ctx context.Context, filter ReminderFilter) (*[]FeeReminder, error)
	Aggregates(ctx context.Context) (*ReminderAggregates, error)
}

type ReminderUseCase interface {
	ProcessDueReminders(ctx context.Context) (*ReminderRunSummary, error)
	MarkPaymentReceived(ctx context.Context, monthlyFeeID int) error
	Stats(ctx context.Context) (*ReminderStats, error)
	List(ctx context.Context, filter ReminderFilter) (*[]FeeReminder, error)
}
