package domain

import (
	"context"
	"time"
)

// Monthly fee statuses. Status transitions belong to the billing side; the
// automation engine only reads them.
const (
	FeeStatusPending = "pending"
	FeeStatusPartial = "partial"
	FeeStatusPaid    = "paid"
)

// MonthlyFee is one billing period's fee for one student. Amounts are in
// paise.
type MonthlyFee struct {
	MonthlyFeeID   int       `gorm:"primaryKey;autoIncrement" json:"monthly_fee_id"`
	StudentID      int       `gorm:"not null;index" json:"student_id"`
	AcademicYearID int       `gorm:"not null;index" json:"academic_year_id"`
	Month          int       `gorm:"not null" json:"month"`
	Year           int       `gorm:"not null" json:"year"`
	TotalFee       int64     `gorm:"not null" json:"total_fee"`
	AmountPaid     int64     `gorm:"not null;default:0" json:"amount_paid"`
	AmountPending  int64     `gorm:"not null;default:0" json:"amount_pending"`
	DueDate        time.Time `gorm:"type:date;not null;index" json:"due_date"`
	Status         string    `gorm:"type:varchar(20);not null;default:pending" json:"status"`
	Student        Student   `gorm:"foreignKey:StudentID" json:"student"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// FeeTrendRow is one (month, year) bucket of fee generation vs collection.
type FeeTrendRow struct {
	Month           int   `json:"month"`
	Year            int   `json:"year"`
	TotalFees       int   `json:"total_fees"`
	PaidFees        int   `json:"paid_fees"`
	TotalAmount     int64 `json:"total_amount"`
	CollectedAmount int64 `json:"collected_amount"`
}

// ClassCollectionRow is the per-class fee collection aggregate.
type ClassCollectionRow struct {
	ClassName     string `json:"class_name"`
	TotalFees     int    `json:"total_fees"`
	PaidFees      int    `json:"paid_fees"`
	PendingAmount int64  `json:"pending_amount"`
}

type FeeRepo interface {
	PendingDueOn(ctx context.Context, due time.Time) (*[]MonthlyFee, error)
	TotalPending(ctx context.Context, academicYearID int) (int64, error)
	TrendByMonth(ctx context.Context, academicYearID int) (*[]FeeTrendRow, error)
	CollectionByClass(ctx context.Context, academicYearID int) (*[]ClassCollectionRow, error)
}
