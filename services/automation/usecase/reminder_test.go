package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolops/domain"
)

func defaultReminderConfig() *reminderConfig {
	return &reminderConfig{
		Enabled:       true,
		DaysBefore:    3,
		OverdueDays:   []int{3, 7, 15},
		MaxPerStudent: 4,
	}
}

func newTestReminderUseCase(reminders *fakeReminderRepo, fees *fakeFeeRepo, settings *fakeSettingsRepo, sms *fakeSMS, email *fakeEmail, today string) *reminderUseCase {
	uc := &reminderUseCase{
		reminders: reminders,
		fees:      fees,
		settings:  settings,
		sms:       sms,
		log:       testLogger(),
		now:       fixedNow(today),
		TimeOut:   time.Minute,
	}
	if email != nil {
		uc.email = email
	}
	return uc
}

func pendingFee(studentID, feeID int, due string, amountPending int64) domain.MonthlyFee {
	dueDate, _ := time.Parse("2006-01-02", due)
	return domain.MonthlyFee{
		MonthlyFeeID:  feeID,
		StudentID:     studentID,
		Month:         int(dueDate.Month()),
		Year:          dueDate.Year(),
		TotalFee:      amountPending,
		AmountPending: amountPending,
		DueDate:       dueDate,
		Status:        domain.FeeStatusPending,
		Student: domain.Student{
			StudentID:   studentID,
			FirstName:   "Asha",
			ParentName:  "Mrs. Rao",
			ParentPhone: "+911234567890",
		},
	}
}

func TestTierBatches_MapsTodayOntoDueDateBuckets(t *testing.T) {
	today, _ := time.Parse("2006-01-02", "2024-06-10")
	batches := tierBatches(today, defaultReminderConfig())

	require.Len(t, batches, 5)

	assert.Equal(t, domain.ReminderAdvance, batches[0].Kind)
	assert.Equal(t, "2024-06-13", batches[0].DueOn.Format("2006-01-02"))

	assert.Equal(t, domain.ReminderDue, batches[1].Kind)
	assert.Equal(t, "2024-06-10", batches[1].DueOn.Format("2006-01-02"))

	assert.Equal(t, domain.ReminderOverdue, batches[2].Kind)
	assert.Equal(t, "2024-06-07", batches[2].DueOn.Format("2006-01-02"))

	assert.Equal(t, domain.ReminderOverdue, batches[3].Kind)
	assert.Equal(t, "2024-06-03", batches[3].DueOn.Format("2006-01-02"))

	// The largest configured offset is the final notice.
	assert.Equal(t, domain.ReminderFinal, batches[4].Kind)
	assert.Equal(t, "2024-05-26", batches[4].DueOn.Format("2006-01-02"))
}

func TestTierBatches_SingleOverdueOffsetIsFinal(t *testing.T) {
	today, _ := time.Parse("2006-01-02", "2024-06-10")
	cfg := defaultReminderConfig()
	cfg.OverdueDays = []int{5}

	batches := tierBatches(today, cfg)

	require.Len(t, batches, 3)
	assert.Equal(t, domain.ReminderFinal, batches[2].Kind)
}

func TestShouldSend_DisabledSuppressesEverything(t *testing.T) {
	uc := newTestReminderUseCase(&fakeReminderRepo{}, &fakeFeeRepo{}, &fakeSettingsRepo{}, &fakeSMS{}, nil, "2024-06-10")
	cfg := defaultReminderConfig()
	cfg.Enabled = false

	fee := pendingFee(1, 10, "2024-06-10", 500000)
	ok, err := uc.shouldSend(context.Background(), &fee, domain.ReminderDue, cfg)

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestShouldSend_CapCountsFailedAttempts(t *testing.T) {
	reminders := &fakeReminderRepo{countByFee: map[int]int64{10: 4}}
	uc := newTestReminderUseCase(reminders, &fakeFeeRepo{}, &fakeSettingsRepo{}, &fakeSMS{}, nil, "2024-06-10")

	fee := pendingFee(1, 10, "2024-06-10", 500000)
	ok, err := uc.shouldSend(context.Background(), &fee, domain.ReminderDue, defaultReminderConfig())

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestShouldSend_RecentSameKindSuppressed(t *testing.T) {
	reminders := &fakeReminderRepo{recentKind: map[string]bool{"10:due": true}}
	uc := newTestReminderUseCase(reminders, &fakeFeeRepo{}, &fakeSettingsRepo{}, &fakeSMS{}, nil, "2024-06-10")

	fee := pendingFee(1, 10, "2024-06-10", 500000)

	ok, err := uc.shouldSend(context.Background(), &fee, domain.ReminderDue, defaultReminderConfig())
	require.NoError(t, err)
	assert.False(t, ok)

	// A different kind for the same fee is still allowed.
	ok, err = uc.shouldSend(context.Background(), &fee, domain.ReminderOverdue, defaultReminderConfig())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSendReminder_FailedTransportStillWritesLedgerRow(t *testing.T) {
	reminders := &fakeReminderRepo{}
	sms := &fakeSMS{fail: true}
	uc := newTestReminderUseCase(reminders, &fakeFeeRepo{}, &fakeSettingsRepo{}, sms, nil, "2024-06-10")

	fee := pendingFee(1, 10, "2024-06-10", 500000)
	sent, err := uc.sendReminder(context.Background(), &fee, domain.ReminderDue, uc.now())

	require.NoError(t, err)
	assert.False(t, sent)
	require.Len(t, reminders.created, 1)
	assert.Equal(t, domain.DeliveryFailed, reminders.created[0].DeliveryStatus)
	assert.Equal(t, int64(500000), reminders.created[0].AmountPending)
}

func TestSendReminder_FinalNoticeGetsEmailCopy(t *testing.T) {
	reminders := &fakeReminderRepo{}
	email := &fakeEmail{}
	uc := newTestReminderUseCase(reminders, &fakeFeeRepo{}, &fakeSettingsRepo{}, &fakeSMS{}, email, "2024-06-10")

	fee := pendingFee(1, 10, "2024-05-26", 500000)
	parentEmail := "parent@example.com"
	fee.Student.ParentEmail = &parentEmail

	sent, err := uc.sendReminder(context.Background(), &fee, domain.ReminderFinal, uc.now())

	require.NoError(t, err)
	assert.True(t, sent)
	require.Len(t, email.sent, 1)
	assert.Equal(t, parentEmail, email.sent[0].To)
	assert.Contains(t, email.sent[0].Body, "FINAL NOTICE")
}

func TestProcessDueReminders_SendsForEachTier(t *testing.T) {
	fees := &fakeFeeRepo{
		pendingByDate: map[string][]domain.MonthlyFee{
			"2024-06-10": {pendingFee(1, 10, "2024-06-10", 500000)},
			"2024-05-26": {pendingFee(2, 20, "2024-05-26", 300000)},
		},
	}
	reminders := &fakeReminderRepo{}
	sms := &fakeSMS{}
	uc := newTestReminderUseCase(reminders, fees, &fakeSettingsRepo{}, sms, nil, "2024-06-10")

	summary, err := uc.ProcessDueReminders(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalProcessed)
	assert.Equal(t, 2, summary.RemindersSent)
	assert.Equal(t, 0, summary.RemindersFailed)
	assert.Equal(t, 1, summary.ByType[domain.ReminderDue])
	assert.Equal(t, 1, summary.ByType[domain.ReminderFinal])
	assert.Len(t, sms.sent, 2)
	assert.Len(t, reminders.created, 2)
}

func TestProcessDueReminders_LocalDateJustAfterMidnight(t *testing.T) {
	fees := &fakeFeeRepo{
		pendingByDate: map[string][]domain.MonthlyFee{
			"2024-06-10": {pendingFee(1, 10, "2024-06-10", 500000)},
		},
	}
	reminders := &fakeReminderRepo{}
	uc := newTestReminderUseCase(reminders, fees, &fakeSettingsRepo{}, &fakeSMS{}, nil, "2024-06-10")

	// 00:30 IST is still the previous day in UTC; "today" must follow the
	// local calendar date, not the UTC one.
	ist := time.FixedZone("IST", 5*3600+30*60)
	uc.now = func() time.Time { return time.Date(2024, 6, 10, 0, 30, 0, 0, ist) }

	summary, err := uc.ProcessDueReminders(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, summary.RemindersSent)
	assert.Equal(t, 1, summary.ByType[domain.ReminderDue])
}

func TestProcessDueReminders_MalformedSettingFailsLoudly(t *testing.T) {
	settings := &fakeSettingsRepo{
		values: domain.Settings{
			domain.KeyMaxRemindersPerStudent: setting(domain.KeyMaxRemindersPerStudent, domain.SettingInteger, "not-a-number"),
		},
	}
	uc := newTestReminderUseCase(&fakeReminderRepo{}, &fakeFeeRepo{}, settings, &fakeSMS{}, nil, "2024-06-10")

	_, err := uc.ProcessDueReminders(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.KeyMaxRemindersPerStudent)
}

func TestMarkPaymentReceived_BackfillsOpenReminders(t *testing.T) {
	sentAt, _ := time.Parse("2006-01-02", "2024-06-07")
	reminders := &fakeReminderRepo{
		open: []domain.FeeReminder{
			{FeeReminderID: 1, MonthlyFeeID: 10, SentAt: sentAt},
		},
	}
	uc := newTestReminderUseCase(reminders, &fakeFeeRepo{}, &fakeSettingsRepo{}, &fakeSMS{}, nil, "2024-06-10")

	err := uc.MarkPaymentReceived(context.Background(), 10)

	require.NoError(t, err)
	require.Len(t, reminders.saved, 1)
	assert.True(t, reminders.saved[0].PaymentReceivedAfter)
	require.NotNil(t, reminders.saved[0].DaysToPayment)
	assert.Equal(t, 3, *reminders.saved[0].DaysToPayment)
}

func TestBuildReminderStats_RateIsFractionAndZeroOnEmpty(t *testing.T) {
	empty := buildReminderStats(&domain.ReminderAggregates{})
	assert.Equal(t, 0.0, empty.EffectivenessRate)

	stats := buildReminderStats(&domain.ReminderAggregates{Total: 10, PaymentAfter: 4})
	assert.InDelta(t, 0.4, stats.EffectivenessRate, 1e-9)
	assert.GreaterOrEqual(t, stats.EffectivenessRate, 0.0)
	assert.LessOrEqual(t, stats.EffectivenessRate, 1.0)
}

func TestBuildReminderMessage_OverdueIncludesDayCount(t *testing.T) {
	today, _ := time.Parse("2006-01-02", "2024-06-10")
	fee := pendingFee(1, 10, "2024-06-03", 150000)

	msg := buildReminderMessage(domain.ReminderOverdue, &fee, today)

	assert.Contains(t, msg, "overdue by 7 days")
	assert.Contains(t, msg, "Rs. 1500.00")
}
