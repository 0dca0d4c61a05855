package domain

import (
	"context"
	"time"
)

// Attendance alert kinds by severity.
const (
	AlertWarning  = "warning"
	AlertUrgent   = "urgent"
	AlertCritical = "critical"
)

type AttendanceAlert struct {
	AttendanceAlertID    int        `gorm:"primaryKey;autoIncrement" json:"attendance_alert_id"`
	StudentID            int        `gorm:"not null;index" json:"student_id"`
	AlertType            string     `gorm:"type:varchar(20);not null" json:"alert_type"`
	AttendancePercentage float64    `gorm:"type:numeric(5,2);not null" json:"attendance_percentage"`
	ThresholdCrossed     float64    `gorm:"type:numeric(5,2);not null" json:"threshold_crossed"`
	SentTo               string     `gorm:"type:varchar(20);not null" json:"sent_to"`
	SentAt               time.Time  `gorm:"not null;index" json:"sent_at"`
	DeliveryStatus       string     `gorm:"type:varchar(20);not null" json:"delivery_status"`
	Resolved             bool       `gorm:"not null;default:false" json:"resolved"`
	ResolvedAt           *time.Time `json:"resolved_at"`
	CreatedAt            time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

type AlertRunSummary struct {
	TotalEvaluated int            `json:"total_evaluated"`
	AlertsSent     int            `json:"alerts_sent"`
	AlertsFailed   int            `json:"alerts_failed"`
	Errors         int            `json:"errors"`
	ByType         map[string]int `json:"by_type"`
}

type AlertRepo interface {
	Create(ctx context.Context, alert *AttendanceAlert) error
	HasRecentForStudent(ctx context.Context, studentID int, since time.Time) (bool, error)
}

type AlertUseCase interface {
	ProcessAttendanceAlerts(ctx context.Context) (*AlertRunSummary, error)
}
