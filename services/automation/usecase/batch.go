package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"schoolops/domain"
)

type batchUseCase struct {
	students    domain.StudentRepo
	assignments domain.AssignmentRepo
	academic    domain.AcademicRepo
	settings    domain.SettingsRepo
	log         *logrus.Logger
	now         func() time.Time
	TimeOut     time.Duration
}

func NewBatchUseCase(
	students domain.StudentRepo,
	assignments domain.AssignmentRepo,
	academic domain.AcademicRepo,
	settings domain.SettingsRepo,
	log *logrus.Logger,
	to time.Duration,
) domain.BatchUseCase {
	return &batchUseCase{
		students:    students,
		assignments: assignments,
		academic:    academic,
		settings:    settings,
		log:         log,
		now:         time.Now,
		TimeOut:     to,
	}
}

func (bu *batchUseCase) loadSettings(ctx context.Context) (*domain.BatchSettings, error) {
	settings, err := bu.settings.Load(ctx)
	if err != nil {
		return nil, err
	}

	cfg := &domain.BatchSettings{
		AssignmentStrategy: settings.String(domain.KeyBatchStrategy, domain.StrategyAlphabetical),
	}
	if cfg.MaxBatchSize, err = settings.Int(domain.KeyMaxBatchSize, 30); err != nil {
		return nil, err
	}
	if cfg.AutoAssignSections, err = settings.Bool(domain.KeyAutoAssignSections, true); err != nil {
		return nil, err
	}
	if cfg.ReorganizeAnnually, err = settings.Bool(domain.KeyReorganizeAnnually, true); err != nil {
		return nil, err
	}
	if cfg.MaxBatchSize < 1 {
		return nil, fmt.Errorf("setting %s: batch size must be at least 1", domain.KeyMaxBatchSize)
	}

	return cfg, nil
}

// sectionLabel turns a zero-based section index into its label: A..Z, then
// AA, AB and so on, like spreadsheet columns.
func sectionLabel(index int) string {
	label := ""
	n := index
	for {
		label = string(rune('A'+n%26)) + label
		n = n/26 - 1
		if n < 0 {
			return label
		}
	}
}

// orderStudents sorts the roster for partitioning. Alphabetical orders by
// name; merit orders by average marks descending, missing marks last. Both
// fall back to name so a run is reproducible on identical input.
func orderStudents(students []domain.Student, strategy string) {
	byName := func(a, b *domain.Student) bool {
		af := strings.ToLower(a.FirstName)
		bf := strings.ToLower(b.FirstName)
		if af != bf {
			return af < bf
		}
		return strings.ToLower(a.LastName) < strings.ToLower(b.LastName)
	}

	sort.SliceStable(students, func(i, j int) bool {
		a, b := &students[i], &students[j]
		if strategy == domain.StrategyMerit {
			am, bm := 0.0, 0.0
			if a.AverageMarks != nil {
				am = *a.AverageMarks
			}
			if b.AverageMarks != nil {
				bm = *b.AverageMarks
			}
			if am != bm {
				return am > bm
			}
		}
		return byName(a, b)
	})
}

func (bu *batchUseCase) AssignSections(ctx context.Context, classID, academicYearID int, strategy string, assignedBy *int) (*domain.AssignResult, error) {
	ctx, cancel := context.WithTimeout(ctx, bu.TimeOut)
	defer cancel()

	cfg, err := bu.loadSettings(ctx)
	if err != nil {
		return nil, err
	}
	if strategy == "" {
		strategy = cfg.AssignmentStrategy
	}
	if strategy != domain.StrategyAlphabetical && strategy != domain.StrategyMerit {
		return nil, fmt.Errorf("unknown assignment strategy: %s", strategy)
	}

	studentsPtr, err := bu.students.ActiveByClassAndYear(ctx, classID, academicYearID)
	if err != nil {
		return nil, err
	}
	students := *studentsPtr

	result := &domain.AssignResult{
		TotalStudents: len(students),
		MaxBatchSize:  cfg.MaxBatchSize,
		Strategy:      strategy,
		Sections:      []string{},
		Assignments:   []domain.StudentAssignment{},
	}
	if len(students) == 0 {
		return result, nil
	}

	orderStudents(students, strategy)

	numSections := (len(students) + cfg.MaxBatchSize - 1) / cfg.MaxBatchSize
	result.NumSections = numSections
	for i := 0; i < numSections; i++ {
		result.Sections = append(result.Sections, sectionLabel(i))
	}

	reason := fmt.Sprintf("%s ordering, max %d per section", strategy, cfg.MaxBatchSize)
	history := make([]domain.SectionAssignment, 0, len(students))

	for i := range students {
		student := &students[i]
		section := sectionLabel(i / cfg.MaxBatchSize)

		if err := bu.students.UpdateSection(ctx, student.StudentID, section); err != nil {
			result.Errors++
			bu.log.Errorf("could not assign section for student %d: %v", student.StudentID, err)
			continue
		}

		history = append(history, domain.SectionAssignment{
			StudentID:          student.StudentID,
			ClassID:            classID,
			AcademicYearID:     academicYearID,
			AssignedSection:    section,
			AssignmentStrategy: strategy,
			AssignmentReason:   reason,
			AssignedBy:         assignedBy,
		})
		result.Assignments = append(result.Assignments, domain.StudentAssignment{
			StudentID:   student.StudentID,
			StudentName: student.FullName(),
			Section:     section,
		})
	}

	if len(history) > 0 {
		if err := bu.assignments.CreateBatch(ctx, &history); err != nil {
			return nil, fmt.Errorf("could not record section assignments: %v", err)
		}
	}

	return result, nil
}

func (bu *batchUseCase) ReorganizeAll(ctx context.Context, academicYearID int, assignedBy *int) (*domain.ReorganizeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, bu.TimeOut)
	defer cancel()

	classes, err := bu.academic.AllClasses(ctx)
	if err != nil {
		return nil, err
	}

	result := &domain.ReorganizeResult{
		Details: []domain.ClassReorganizeResult{},
	}

	for i := range *classes {
		class := &(*classes)[i]
		result.TotalClasses++

		detail := domain.ClassReorganizeResult{
			ClassID:   class.ClassID,
			ClassName: class.Name,
		}

		assign, err := bu.AssignSections(ctx, class.ClassID, academicYearID, "", assignedBy)
		if err != nil {
			result.Errors++
			detail.Error = err.Error()
			bu.log.Errorf("reorganize failed for class %d (%s): %v", class.ClassID, class.Name, err)
		} else {
			detail.Result = assign
			result.TotalStudents += assign.TotalStudents
		}

		result.Details = append(result.Details, detail)
	}

	stamp := bu.now().Format("2006-01-02")
	if err := bu.settings.Set(ctx, domain.KeyLastReorganization, stamp, domain.SettingString); err != nil {
		bu.log.Warnf("could not record reorganization date: %v", err)
	}

	bu.log.WithFields(logrus.Fields{
		"classes":  result.TotalClasses,
		"students": result.TotalStudents,
		"errors":   result.Errors,
	}).Info("section reorganization completed")

	return result, nil
}

func (bu *batchUseCase) Distribution(ctx context.Context, classID, academicYearID int) (*domain.SectionDistribution, error) {
	counts, err := bu.students.SectionCounts(ctx, classID, academicYearID)
	if err != nil {
		return nil, err
	}

	dist := &domain.SectionDistribution{
		ClassID:        classID,
		AcademicYearID: academicYearID,
		Distribution:   map[string]int{},
	}
	for _, c := range *counts {
		section := c.Section
		if section == "" {
			section = "Unassigned"
		}
		dist.Distribution[section] = c.Count
		dist.TotalStudents += c.Count
	}

	return dist, nil
}

func (bu *batchUseCase) Settings(ctx context.Context) (*domain.BatchSettings, error) {
	return bu.loadSettings(ctx)
}
