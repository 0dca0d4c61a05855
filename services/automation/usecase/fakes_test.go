package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"schoolops/domain"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func fixedNow(value string) func() time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

type fakeSettingsRepo struct {
	values domain.Settings
	set    map[string]string
}

func (f *fakeSettingsRepo) Load(ctx context.Context) (domain.Settings, error) {
	if f.values == nil {
		return domain.Settings{}, nil
	}
	return f.values, nil
}

func (f *fakeSettingsRepo) Set(ctx context.Context, key, value, configType string) error {
	if f.set == nil {
		f.set = map[string]string{}
	}
	f.set[key] = value
	return nil
}

func setting(key, typ, raw string) domain.SettingValue {
	return domain.SettingValue{Key: key, Type: typ, Raw: raw}
}

type sentSMS struct {
	Phone   string
	Message string
}

type fakeSMS struct {
	sent []sentSMS
	fail bool
}

func (f *fakeSMS) Send(ctx context.Context, phone, message string) error {
	if f.fail {
		return fmt.Errorf("gateway unavailable")
	}
	f.sent = append(f.sent, sentSMS{Phone: phone, Message: message})
	return nil
}

type sentEmail struct {
	To      string
	Subject string
	Body    string
}

type fakeEmail struct {
	sent []sentEmail
}

func (f *fakeEmail) Send(to, subject, body string) error {
	f.sent = append(f.sent, sentEmail{To: to, Subject: subject, Body: body})
	return nil
}

type fakeReminderRepo struct {
	created    []domain.FeeReminder
	saved      []domain.FeeReminder
	countByFee map[int]int64
	recentKind map[string]bool
	open       []domain.FeeReminder
	aggregates domain.ReminderAggregates
}

func (f *fakeReminderRepo) Create(ctx context.Context, reminder *domain.FeeReminder) error {
	f.created = append(f.created, *reminder)
	return nil
}

func (f *fakeReminderRepo) Save(ctx context.Context, reminder *domain.FeeReminder) error {
	f.saved = append(f.saved, *reminder)
	return nil
}

func (f *fakeReminderRepo) CountForFee(ctx context.Context, studentID, monthlyFeeID int) (int64, error) {
	return f.countByFee[monthlyFeeID], nil
}

func (f *fakeReminderRepo) HasRecentOfType(ctx context.Context, studentID, monthlyFeeID int, reminderType string, since time.Time) (bool, error) {
	return f.recentKind[fmt.Sprintf("%d:%s", monthlyFeeID, reminderType)], nil
}

func (f *fakeReminderRepo) OpenByFee(ctx context.Context, monthlyFeeID int) (*[]domain.FeeReminder, error) {
	open := make([]domain.FeeReminder, len(f.open))
	copy(open, f.open)
	return &open, nil
}

func (f *fakeReminderRepo) List(ctx context.Context, filter domain.ReminderFilter) (*[]domain.FeeReminder, error) {
	out := make([]domain.FeeReminder, len(f.created))
	copy(out, f.created)
	return &out, nil
}

func (f *fakeReminderRepo) Aggregates(ctx context.Context) (*domain.ReminderAggregates, error) {
	agg := f.aggregates
	return &agg, nil
}

type fakeFeeRepo struct {
	pendingByDate map[string][]domain.MonthlyFee
	totalPending  int64
	trendRows     []domain.FeeTrendRow
	classRows     []domain.ClassCollectionRow
}

func (f *fakeFeeRepo) PendingDueOn(ctx context.Context, due time.Time) (*[]domain.MonthlyFee, error) {
	fees := f.pendingByDate[due.Format("2006-01-02")]
	out := make([]domain.MonthlyFee, len(fees))
	copy(out, fees)
	return &out, nil
}

func (f *fakeFeeRepo) TotalPending(ctx context.Context, academicYearID int) (int64, error) {
	return f.totalPending, nil
}

func (f *fakeFeeRepo) TrendByMonth(ctx context.Context, academicYearID int) (*[]domain.FeeTrendRow, error) {
	rows := make([]domain.FeeTrendRow, len(f.trendRows))
	copy(rows, f.trendRows)
	return &rows, nil
}

func (f *fakeFeeRepo) CollectionByClass(ctx context.Context, academicYearID int) (*[]domain.ClassCollectionRow, error) {
	rows := make([]domain.ClassCollectionRow, len(f.classRows))
	copy(rows, f.classRows)
	return &rows, nil
}

type fakeStudentRepo struct {
	students      []domain.Student
	sections      map[int]string
	sectionErrFor map[int]bool
	insightRows   []domain.ClassInsightRow
	sectionCounts []domain.SectionCount
	total         int64
	active        int64
}

func (f *fakeStudentRepo) ActiveByYear(ctx context.Context, academicYearID int) (*[]domain.Student, error) {
	out := make([]domain.Student, len(f.students))
	copy(out, f.students)
	return &out, nil
}

func (f *fakeStudentRepo) ActiveByClassAndYear(ctx context.Context, classID, academicYearID int) (*[]domain.Student, error) {
	out := make([]domain.Student, 0, len(f.students))
	for _, s := range f.students {
		if s.ClassID == classID {
			out = append(out, s)
		}
	}
	return &out, nil
}

func (f *fakeStudentRepo) CountByYear(ctx context.Context, academicYearID int) (int64, int64, error) {
	return f.total, f.active, nil
}

func (f *fakeStudentRepo) UpdateSection(ctx context.Context, studentID int, section string) error {
	if f.sectionErrFor[studentID] {
		return fmt.Errorf("update failed for student %d", studentID)
	}
	if f.sections == nil {
		f.sections = map[int]string{}
	}
	f.sections[studentID] = section
	return nil
}

func (f *fakeStudentRepo) ClassInsightRows(ctx context.Context, academicYearID int) (*[]domain.ClassInsightRow, error) {
	rows := make([]domain.ClassInsightRow, len(f.insightRows))
	copy(rows, f.insightRows)
	return &rows, nil
}

func (f *fakeStudentRepo) SectionCounts(ctx context.Context, classID, academicYearID int) (*[]domain.SectionCount, error) {
	counts := make([]domain.SectionCount, len(f.sectionCounts))
	copy(counts, f.sectionCounts)
	return &counts, nil
}

func (f *fakeStudentRepo) BelowAttendance(ctx context.Context, academicYearID int, threshold float64) (*[]domain.Student, error) {
	out := make([]domain.Student, 0, len(f.students))
	for _, s := range f.students {
		if s.AttendancePercentage != nil && *s.AttendancePercentage < threshold {
			out = append(out, s)
		}
	}
	return &out, nil
}

type fakeAssignmentRepo struct {
	batches [][]domain.SectionAssignment
}

func (f *fakeAssignmentRepo) CreateBatch(ctx context.Context, assignments *[]domain.SectionAssignment) error {
	batch := make([]domain.SectionAssignment, len(*assignments))
	copy(batch, *assignments)
	f.batches = append(f.batches, batch)
	return nil
}

type fakeAcademicRepo struct {
	classes []domain.Class
	year    domain.AcademicYear
}

func (f *fakeAcademicRepo) AllClasses(ctx context.Context) (*[]domain.Class, error) {
	classes := make([]domain.Class, len(f.classes))
	copy(classes, f.classes)
	return &classes, nil
}

func (f *fakeAcademicRepo) CurrentYear(ctx context.Context) (*domain.AcademicYear, error) {
	year := f.year
	return &year, nil
}

type fakeAlertRepo struct {
	created []domain.AttendanceAlert
	recent  map[int]bool
}

func (f *fakeAlertRepo) Create(ctx context.Context, alert *domain.AttendanceAlert) error {
	f.created = append(f.created, *alert)
	return nil
}

func (f *fakeAlertRepo) HasRecentForStudent(ctx context.Context, studentID int, since time.Time) (bool, error) {
	return f.recent[studentID], nil
}

type fakePaymentRepo struct {
	monthly      []domain.MonthlyCollection
	modes        []domain.PaymentModeRow
	volumeCount  int64
	volumeAmount int64
}

func (f *fakePaymentRepo) MonthlyTotals(ctx context.Context, academicYearID int, since time.Time) (*[]domain.MonthlyCollection, error) {
	rows := make([]domain.MonthlyCollection, len(f.monthly))
	copy(rows, f.monthly)
	return &rows, nil
}

func (f *fakePaymentRepo) ModeBreakdown(ctx context.Context, academicYearID int) (*[]domain.PaymentModeRow, error) {
	rows := make([]domain.PaymentModeRow, len(f.modes))
	copy(rows, f.modes)
	return &rows, nil
}

func (f *fakePaymentRepo) VolumeSince(ctx context.Context, academicYearID int, since time.Time) (int64, int64, error) {
	return f.volumeCount, f.volumeAmount, nil
}

type cacheEntry struct {
	payload   datatypes.JSON
	expiresAt time.Time
}

type fakeCacheRepo struct {
	entries map[string]cacheEntry
	puts    int
}

func cacheKey(reportType string, params map[string]any) string {
	key, err := domain.CanonicalParams(params)
	if err != nil {
		panic(err)
	}
	return reportType + "|" + key
}

func (f *fakeCacheRepo) Get(ctx context.Context, reportType string, params map[string]any) (datatypes.JSON, bool, error) {
	entry, ok := f.entries[cacheKey(reportType, params)]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false, nil
	}
	return entry.payload, true, nil
}

func (f *fakeCacheRepo) Put(ctx context.Context, reportType string, params map[string]any, result any, ttl time.Duration) error {
	if f.entries == nil {
		f.entries = map[string]cacheEntry{}
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}
	f.entries[cacheKey(reportType, params)] = cacheEntry{
		payload:   datatypes.JSON(payload),
		expiresAt: time.Now().Add(ttl),
	}
	f.puts++
	return nil
}

func (f *fakeCacheRepo) Invalidate(ctx context.Context, reportType string) (int64, error) {
	var removed int64
	for key := range f.entries {
		if key[:strings.Index(key, "|")] == reportType {
			delete(f.entries, key)
			removed++
		}
	}
	return removed, nil
}

func (f *fakeCacheRepo) InvalidateAll(ctx context.Context) (int64, error) {
	removed := int64(len(f.entries))
	f.entries = map[string]cacheEntry{}
	return removed, nil
}

func (f *fakeCacheRepo) SweepExpired(ctx context.Context) (int64, error) {
	var removed int64
	for key, entry := range f.entries {
		if time.Now().After(entry.expiresAt) {
			delete(f.entries, key)
			removed++
		}
	}
	return removed, nil
}
