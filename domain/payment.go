package domain

import (
	"context"
	"time"
)

type Payment struct {
	PaymentID    int       `gorm:"primaryKey;autoIncrement" json:"payment_id"`
	StudentID    int       `gorm:"not null;index" json:"student_id"`
	MonthlyFeeID int       `gorm:"not null;index" json:"monthly_fee_id"`
	Amount       int64     `gorm:"not null" json:"amount"`
	PaymentDate  time.Time `gorm:"type:date;not null;index" json:"payment_date"`
	PaymentMode  string    `gorm:"type:varchar(20);not null" json:"payment_mode"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// MonthlyCollection is the per-calendar-month payment total used by the
// revenue forecast.
type MonthlyCollection struct {
	Year   int   `json:"year"`
	Month  int   `json:"month"`
	Amount int64 `json:"amount"`
	Count  int   `json:"count"`
}

type PaymentModeRow struct {
	Mode   string `json:"mode"`
	Count  int    `json:"count"`
	Amount int64  `json:"amount"`
}

type PaymentRepo interface {
	MonthlyTotals(ctx context.Context, academicYearID int, since time.Time) (*[]MonthlyCollection, error)
	ModeBreakdown(ctx context.Context, academicYearID int) (*[]PaymentModeRow, error)
	VolumeSince(ctx context.Context, academicYearID int, since time.Time) (count int64, amount int64, err error)
}
