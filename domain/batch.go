package domain

import (
	"context"
	"time"
)

const (
	StrategyAlphabetical = "alphabetical"
	StrategyMerit        = "merit"
)

// SectionAssignment is one row of the append-only assignment history. The
// student's current section lives on the student row and is overwritten by
// each run.
type SectionAssignment struct {
	SectionAssignmentID int       `gorm:"primaryKey;autoIncrement" json:"section_assignment_id"`
	StudentID           int       `gorm:"not null;index" json:"student_id"`
	ClassID             int       `gorm:"not null;index" json:"class_id"`
	AcademicYearID      int       `gorm:"not null;index" json:"academic_year_id"`
	AssignedSection     string    `gorm:"type:varchar(5);not null" json:"assigned_section"`
	AssignmentStrategy  string    `gorm:"type:varchar(20);not null" json:"assignment_strategy"`
	AssignmentReason    string    `gorm:"type:text" json:"assignment_reason"`
	AssignedAt          time.Time `gorm:"autoCreateTime" json:"assigned_at"`
	AssignedBy          *int      `json:"assigned_by"`
}

type BatchSettings struct {
	MaxBatchSize       int    `json:"max_batch_size"`
	AssignmentStrategy string `json:"batch_assignment_strategy"`
	AutoAssignSections bool   `json:"auto_assign_sections"`
	ReorganizeAnnually bool   `json:"reorganize_annually"`
}

type StudentAssignment struct {
	StudentID   int    `json:"student_id"`
	StudentName string `json:"student_name"`
	Section     string `json:"section"`
}

type AssignResult struct {
	TotalStudents int                 `json:"total_students"`
	NumSections   int                 `json:"num_sections"`
	MaxBatchSize  int                 `json:"max_batch_size"`
	Strategy      string              `json:"strategy"`
	Sections      []string            `json:"sections"`
	Assignments   []StudentAssignment `json:"assignments"`
	Errors        int                 `json:"errors"`
}

type ClassReorganizeResult struct {
	ClassID   int           `json:"class_id"`
	ClassName string        `json:"class_name"`
	Result    *AssignResult `json:"result,omitempty"`
	Error     string        `json:"error,omitempty"`
}

type ReorganizeResult struct {
	TotalClasses  int                     `json:"total_classes"`
	TotalStudents int                     `json:"total_students"`
	Errors        int                     `json:"errors"`
	Details       []ClassReorganizeResult `json:"details"`
}

type SectionDistribution struct {
	ClassID        int            `json:"class_id"`
	AcademicYearID int            `json:"academic_year_id"`
	Distribution   map[string]int `json:"distribution"`
	TotalStudents  int            `json:"total_students"`
}

type AssignmentRepo interface {
	CreateBatch(ctx context.Context, assignments *[]SectionAssignment) error
}

type BatchUseCase interface {
	AssignSections(ctx context.Context, classID, academicYearID int, strategy string, assignedBy *int) (*AssignResult, error)
	ReorganizeAll(ctx context.Context, academicYearID int, assignedBy *int) (*ReorganizeResult, error)
	Distribution(ctx context.Context, classID, academicYearID int) (*SectionDistribution, error)
	Settings(ctx context.Context) (*BatchSettings, error)
}
