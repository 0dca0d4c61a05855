package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolops/domain"
)

func newTestBatchUseCase(students *fakeStudentRepo, assignments *fakeAssignmentRepo, academic *fakeAcademicRepo, settings *fakeSettingsRepo) *batchUseCase {
	return &batchUseCase{
		students:    students,
		assignments: assignments,
		academic:    academic,
		settings:    settings,
		log:         testLogger(),
		now:         fixedNow("2024-06-10"),
		TimeOut:     time.Minute,
	}
}

func rosterOf(n int) []domain.Student {
	students := make([]domain.Student, n)
	for i := 0; i < n; i++ {
		students[i] = domain.Student{
			StudentID: i + 1,
			FirstName: fmt.Sprintf("Student%03d", i+1),
			ClassID:   1,
		}
	}
	return students
}

func TestSectionLabel(t *testing.T) {
	cases := map[int]string{
		0:   "A",
		1:   "B",
		25:  "Z",
		26:  "AA",
		27:  "AB",
		51:  "AZ",
		52:  "BA",
		701: "ZZ",
		702: "AAA",
	}
	for index, want := range cases {
		assert.Equal(t, want, sectionLabel(index), "index %d", index)
	}
}

func TestOrderStudents_MeritSortsByMarksThenName(t *testing.T) {
	high := 90.0
	mid := 70.0
	students := []domain.Student{
		{StudentID: 1, FirstName: "Zoya", AverageMarks: &mid},
		{StudentID: 2, FirstName: "Arun", AverageMarks: &high},
		{StudentID: 3, FirstName: "Bina", AverageMarks: &mid},
		{StudentID: 4, FirstName: "Chand"}, // no marks, sorts last
	}

	orderStudents(students, domain.StrategyMerit)

	ids := []int{students[0].StudentID, students[1].StudentID, students[2].StudentID, students[3].StudentID}
	assert.Equal(t, []int{2, 3, 1, 4}, ids)
}

func TestAssignSections_CeilDivisionAndOverflow(t *testing.T) {
	students := &fakeStudentRepo{students: rosterOf(31)}
	assignments := &fakeAssignmentRepo{}
	uc := newTestBatchUseCase(students, assignments, &fakeAcademicRepo{}, &fakeSettingsRepo{})

	result, err := uc.AssignSections(context.Background(), 1, 1, "", nil)

	require.NoError(t, err)
	assert.Equal(t, 31, result.TotalStudents)
	assert.Equal(t, 2, result.NumSections)
	assert.Equal(t, []string{"A", "B"}, result.Sections)
	assert.Equal(t, domain.StrategyAlphabetical, result.Strategy)
	assert.Equal(t, 0, result.Errors)

	counts := map[string]int{}
	for _, a := range result.Assignments {
		counts[a.Section]++
	}
	assert.Equal(t, 30, counts["A"])
	assert.Equal(t, 1, counts["B"])

	require.Len(t, assignments.batches, 1)
	assert.Len(t, assignments.batches[0], 31)
}

func TestAssignSections_Reproducible(t *testing.T) {
	students := &fakeStudentRepo{students: rosterOf(45)}
	uc := newTestBatchUseCase(students, &fakeAssignmentRepo{}, &fakeAcademicRepo{}, &fakeSettingsRepo{})

	first, err := uc.AssignSections(context.Background(), 1, 1, "", nil)
	require.NoError(t, err)
	second, err := uc.AssignSections(context.Background(), 1, 1, "", nil)
	require.NoError(t, err)

	assert.Equal(t, first.Assignments, second.Assignments)
}

func TestAssignSections_UnknownStrategy(t *testing.T) {
	uc := newTestBatchUseCase(&fakeStudentRepo{}, &fakeAssignmentRepo{}, &fakeAcademicRepo{}, &fakeSettingsRepo{})

	_, err := uc.AssignSections(context.Background(), 1, 1, "random", nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown assignment strategy")
}

func TestAssignSections_EmptyRoster(t *testing.T) {
	assignments := &fakeAssignmentRepo{}
	uc := newTestBatchUseCase(&fakeStudentRepo{}, assignments, &fakeAcademicRepo{}, &fakeSettingsRepo{})

	result, err := uc.AssignSections(context.Background(), 1, 1, "", nil)

	require.NoError(t, err)
	assert.Equal(t, 0, result.TotalStudents)
	assert.Equal(t, 0, result.NumSections)
	assert.Empty(t, assignments.batches)
}

func TestAssignSections_PerStudentErrorIsolation(t *testing.T) {
	students := &fakeStudentRepo{
		students:      rosterOf(3),
		sectionErrFor: map[int]bool{2: true},
	}
	uc := newTestBatchUseCase(students, &fakeAssignmentRepo{}, &fakeAcademicRepo{}, &fakeSettingsRepo{})

	result, err := uc.AssignSections(context.Background(), 1, 1, "", nil)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Errors)
	assert.Len(t, result.Assignments, 2)
}

func TestAssignSections_RespectsBatchSizeSetting(t *testing.T) {
	settings := &fakeSettingsRepo{
		values: domain.Settings{
			domain.KeyMaxBatchSize: setting(domain.KeyMaxBatchSize, domain.SettingInteger, "10"),
		},
	}
	students := &fakeStudentRepo{students: rosterOf(25)}
	uc := newTestBatchUseCase(students, &fakeAssignmentRepo{}, &fakeAcademicRepo{}, settings)

	result, err := uc.AssignSections(context.Background(), 1, 1, "", nil)

	require.NoError(t, err)
	assert.Equal(t, 3, result.NumSections)
	assert.Equal(t, []string{"A", "B", "C"}, result.Sections)
}

func TestReorganizeAll_StampsLastReorganization(t *testing.T) {
	academic := &fakeAcademicRepo{
		classes: []domain.Class{
			{ClassID: 1, Name: "Class 1"},
			{ClassID: 2, Name: "Class 2"},
		},
	}
	students := &fakeStudentRepo{students: rosterOf(5)}
	settings := &fakeSettingsRepo{}
	uc := newTestBatchUseCase(students, &fakeAssignmentRepo{}, academic, settings)

	result, err := uc.ReorganizeAll(context.Background(), 1, nil)

	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalClasses)
	assert.Equal(t, 0, result.Errors)
	assert.Equal(t, "2024-06-10", settings.set[domain.KeyLastReorganization])
}

func TestDistribution_GroupsUnassigned(t *testing.T) {
	students := &fakeStudentRepo{
		sectionCounts: []domain.SectionCount{
			{Section: "A", Count: 30},
			{Section: "B", Count: 12},
			{Section: "", Count: 3},
		},
	}
	uc := newTestBatchUseCase(students, &fakeAssignmentRepo{}, &fakeAcademicRepo{}, &fakeSettingsRepo{})

	dist, err := uc.Distribution(context.Background(), 1, 1)

	require.NoError(t, err)
	assert.Equal(t, 45, dist.TotalStudents)
	assert.Equal(t, 3, dist.Distribution["Unassigned"])
	assert.Equal(t, 30, dist.Distribution["A"])
}
