package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Student struct {
	StudentID            int            `gorm:"primaryKey;autoIncrement" json:"student_id"`
	AdmissionNumber      string         `gorm:"type:varchar(20);not null;unique" json:"admission_number" valid:"required~Admission number is required"`
	FirstName            string         `gorm:"type:varchar(100);not null" json:"first_name" valid:"required~First name is required"`
	LastName             string         `gorm:"type:varchar(100)" json:"last_name"`
	Gender               string         `gorm:"type:varchar(10);not null" json:"gender" valid:"required~Gender is required,in(Male|Female|Other)~Invalid gender"`
	ClassID              int            `gorm:"not null;index" json:"class_id"`
	AcademicYearID       int            `gorm:"not null;index" json:"academic_year_id"`
	ParentName           string         `gorm:"type:varchar(200);not null" json:"parent_name"`
	ParentPhone          string         `gorm:"type:varchar(15);not null;index" json:"parent_phone"`
	ParentEmail          *string        `gorm:"type:varchar(255)" json:"parent_email,omitempty"`
	Status               string         `gorm:"type:varchar(20);default:active" json:"status"`
	AttendancePercentage *float64       `gorm:"type:numeric(5,2)" json:"attendance_percentage"`
	AverageMarks         *float64       `gorm:"type:numeric(5,2)" json:"average_marks"`
	ComputedSection      string         `gorm:"type:varchar(5)" json:"computed_section"`
	Class                Class          `gorm:"foreignKey:ClassID" json:"class"`
	MonthlyFees          []MonthlyFee   `gorm:"foreignKey:StudentID" json:"monthly_fees,omitempty"`
	Payments             []Payment      `gorm:"foreignKey:StudentID" json:"payments,omitempty"`
	FeeReminders         []FeeReminder  `gorm:"foreignKey:StudentID" json:"fee_reminders,omitempty"`
	CreatedAt            time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}

func (s *Student) FullName() string {
	if s.LastName == "" {
		return s.FirstName
	}
	return s.FirstName + " " + s.LastName
}

// ClassInsightRow is one row of the per-class aggregation behind class
// performance insights.
type ClassInsightRow struct {
	ClassName     string   `json:"class_name"`
	TotalStudents int      `json:"total_students"`
	MaleCount     int      `json:"male_count"`
	FemaleCount   int      `json:"female_count"`
	AvgAttendance *float64 `json:"avg_attendance"`
	AvgMarks      *float64 `json:"avg_marks"`
}

type SectionCount struct {
	Section string `json:"section"`
	Count   int    `json:"count"`
}

type StudentRepo interface {
	ActiveByYear(ctx context.Context, academicYearID int) (*[]Student, error)
	ActiveByClassAndYear(ctx context.Context, classID, academicYearID int) (*[]Student, error)
	CountByYear(ctx context.Context, academicYearID int) (total int64, active int64, err error)
	UpdateSection(ctx context.Context, studentID int, section string) error
	ClassInsightRows(ctx context.Context, academicYearID int) (*[]ClassInsightRow, error)
	SectionCounts(ctx context.Context, classID, academicYearID int) (*[]SectionCount, error)
	BelowAttendance(ctx context.Context, academicYearID int, threshold float64) (*[]Student, error)
}
