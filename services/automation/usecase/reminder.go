package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"schoolops/domain"
)

// Same-kind reminders are suppressed within this window so reruns of the same
// logical day cannot double-send.
const sameKindWindow = 48 * time.Hour

type reminderConfig struct {
	Enabled       bool
	DaysBefore    int
	OverdueDays   []int
	MaxPerStudent int
}

// tierBatch is one due-date bucket to evaluate: every eligible fee due on
// DueOn gets a reminder of Kind, throttling permitting.
type tierBatch struct {
	DueOn time.Time
	Kind  string
}

type reminderUseCase struct {
	reminders domain.ReminderRepo
	fees      domain.FeeRepo
	settings  domain.SettingsRepo
	sms       domain.SMSSender
	email     domain.EmailSender
	log       *logrus.Logger
	now       func() time.Time
	TimeOut   time.Duration
}

func NewReminderUseCase(
	reminders domain.ReminderRepo,
	fees domain.FeeRepo,
	settings domain.SettingsRepo,
	sms domain.SMSSender,
	email domain.EmailSender,
	log *logrus.Logger,
	to time.Duration,
) domain.ReminderUseCase {
	return &reminderUseCase{
		reminders: reminders,
		fees:      fees,
		settings:  settings,
		sms:       sms,
		email:     email,
		log:       log,
		now:       time.Now,
		TimeOut:   to,
	}
}

func (ru *reminderUseCase) loadConfig(ctx context.Context) (*reminderConfig, error) {
	settings, err := ru.settings.Load(ctx)
	if err != nil {
		return nil, err
	}

	cfg := &reminderConfig{}
	if cfg.Enabled, err = settings.Bool(domain.KeyReminderEnabled, true); err != nil {
		return nil, err
	}
	if cfg.DaysBefore, err = settings.Int(domain.KeyReminderDaysBefore, 3); err != nil {
		return nil, err
	}
	if cfg.OverdueDays, err = settings.IntList(domain.KeyReminderOverdueDays, []int{3, 7, 15}); err != nil {
		return nil, err
	}
	if cfg.MaxPerStudent, err = settings.Int(domain.KeyMaxRemindersPerStudent, 4); err != nil {
		return nil, err
	}
	if len(cfg.OverdueDays) == 0 {
		return nil, fmt.Errorf("setting %s: overdue day list is empty", domain.KeyReminderOverdueDays)
	}

	return cfg, nil
}

// tierBatches maps today's date onto the due-date buckets to evaluate. The
// largest configured overdue offset is the final notice, every other offset
// is a plain overdue reminder.
func tierBatches(today time.Time, cfg *reminderConfig) []tierBatch {
	batches := []tierBatch{
		{DueOn: today.AddDate(0, 0, cfg.DaysBefore), Kind: domain.ReminderAdvance},
		{DueOn: today, Kind: domain.ReminderDue},
	}

	largest := cfg.OverdueDays[0]
	for _, d := range cfg.OverdueDays {
		if d > largest {
			largest = d
		}
	}

	for _, d := range cfg.OverdueDays {
		kind := domain.ReminderOverdue
		if d == largest {
			kind = domain.ReminderFinal
		}
		batches = append(batches, tierBatch{DueOn: today.AddDate(0, 0, -d), Kind: kind})
	}

	return batches
}

// shouldSend applies the throttle rules: reminders globally enabled, the
// per-student cap not reached, and no same-kind reminder within the window.
func (ru *reminderUseCase) shouldSend(ctx context.Context, fee *domain.MonthlyFee, kind string, cfg *reminderConfig) (bool, error) {
	if !cfg.Enabled {
		return false, nil
	}

	count, err := ru.reminders.CountForFee(ctx, fee.StudentID, fee.MonthlyFeeID)
	if err != nil {
		return false, err
	}
	if count >= int64(cfg.MaxPerStudent) {
		return false, nil
	}

	recent, err := ru.reminders.HasRecentOfType(ctx, fee.StudentID, fee.MonthlyFeeID, kind, ru.now().Add(-sameKindWindow))
	if err != nil {
		return false, err
	}
	if recent {
		return false, nil
	}

	return true, nil
}

func buildReminderMessage(kind string, fee *domain.MonthlyFee, today time.Time) string {
	student := fee.Student
	amount := float64(fee.AmountPending) / 100
	due := fee.DueDate.Format("02-Jan-2006")

	switch kind {
	case domain.ReminderAdvance:
		return fmt.Sprintf(
			"Dear %s, Reminder: Fee of Rs. %.2f for %s (%d/%d) is due on %s. Please pay on time to avoid late fees.",
			student.ParentName, amount, student.FirstName, fee.Month, fee.Year, due)
	case domain.ReminderDue:
		return fmt.Sprintf(
			"URGENT: Dear %s, Fee of Rs. %.2f for %s (%d/%d) is due TODAY (%s). Please pay immediately.",
			student.ParentName, amount, student.FirstName, fee.Month, fee.Year, due)
	case domain.ReminderOverdue:
		daysOverdue := int(today.Sub(fee.DueDate).Hours() / 24)
		return fmt.Sprintf(
			"OVERDUE: Dear %s, Fee of Rs. %.2f for %s (%d/%d) is overdue by %d days. Please clear the dues urgently to avoid penalties.",
			student.ParentName, amount, student.FirstName, fee.Month, fee.Year, daysOverdue)
	default:
		daysOverdue := int(today.Sub(fee.DueDate).Hours() / 24)
		return fmt.Sprintf(
			"FINAL NOTICE: Dear %s, Fee of Rs. %.2f for %s (%d/%d) is overdue by %d days. This is the final reminder. Please contact school office immediately.",
			student.ParentName, amount, student.FirstName, fee.Month, fee.Year, daysOverdue)
	}
}

// sendReminder sends the SMS and writes the ledger row. The row is written
// whatever the transport outcome, so failed attempts still count against the
// throttle and retry storms are impossible.
func (ru *reminderUseCase) sendReminder(ctx context.Context, fee *domain.MonthlyFee, kind string, today time.Time) (bool, error) {
	message := buildReminderMessage(kind, fee, today)

	status := domain.DeliverySent
	sendErr := ru.sms.Send(ctx, fee.Student.ParentPhone, message)
	if sendErr != nil {
		status = domain.DeliveryFailed
		ru.log.WithFields(logrus.Fields{
			"student_id":     fee.StudentID,
			"monthly_fee_id": fee.MonthlyFeeID,
			"kind":           kind,
		}).Warnf("reminder sms failed: %v", sendErr)
	}

	reminder := domain.FeeReminder{
		StudentID:      fee.StudentID,
		MonthlyFeeID:   fee.MonthlyFeeID,
		ReminderType:   kind,
		AmountPending:  fee.AmountPending,
		DueDate:        fee.DueDate,
		SentAt:         ru.now(),
		DeliveryStatus: status,
	}
	if err := ru.reminders.Create(ctx, &reminder); err != nil {
		return false, err
	}

	// Final notices also go out by email when a guardian address is on file.
	if kind == domain.ReminderFinal && ru.email != nil &&
		fee.Student.ParentEmail != nil && *fee.Student.ParentEmail != "" {
		subject := fmt.Sprintf("Final fee notice for %s (%d/%d)", fee.Student.FirstName, fee.Month, fee.Year)
		if err := ru.email.Send(*fee.Student.ParentEmail, subject, message); err != nil {
			ru.log.Warnf("final notice email failed for student %d: %v", fee.StudentID, err)
		}
	}

	return sendErr == nil, nil
}

func (ru *reminderUseCase) ProcessDueReminders(ctx context.Context) (*domain.ReminderRunSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, ru.TimeOut)
	defer cancel()

	cfg, err := ru.loadConfig(ctx)
	if err != nil {
		return nil, err
	}

	summary := &domain.ReminderRunSummary{
		ByType: map[string]int{
			domain.ReminderAdvance: 0,
			domain.ReminderDue:     0,
			domain.ReminderOverdue: 0,
			domain.ReminderFinal:   0,
		},
	}

	// Calendar date in the local zone; truncating the instant would resolve
	// "today" to the previous date between local midnight and the UTC offset.
	now := ru.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	for _, batch := range tierBatches(today, cfg) {
		fees, err := ru.fees.PendingDueOn(ctx, batch.DueOn)
		if err != nil {
			return nil, err
		}

		for i := range *fees {
			fee := &(*fees)[i]
			summary.TotalProcessed++

			ok, err := ru.shouldSend(ctx, fee, batch.Kind, cfg)
			if err != nil {
				summary.Errors++
				ru.log.Errorf("throttle check failed for fee %d: %v", fee.MonthlyFeeID, err)
				continue
			}
			if !ok {
				continue
			}

			sent, err := ru.sendReminder(ctx, fee, batch.Kind, today)
			if err != nil {
				summary.Errors++
				ru.log.Errorf("reminder for fee %d failed: %v", fee.MonthlyFeeID, err)
				continue
			}
			if sent {
				summary.RemindersSent++
				summary.ByType[batch.Kind]++
			} else {
				summary.RemindersFailed++
			}
		}
	}

	ru.log.WithFields(logrus.Fields{
		"processed": summary.TotalProcessed,
		"sent":      summary.RemindersSent,
		"failed":    summary.RemindersFailed,
		"errors":    summary.Errors,
	}).Info("fee reminder run completed")

	return summary, nil
}

// MarkPaymentReceived back-fills the payment follow-up fields on every open
// reminder for the fee. Called when the billing side records a payment.
func (ru *reminderUseCase) MarkPaymentReceived(ctx context.Context, monthlyFeeID int) error {
	open, err := ru.reminders.OpenByFee(ctx, monthlyFeeID)
	if err != nil {
		return err
	}

	now := ru.now()
	for i := range *open {
		reminder := &(*open)[i]
		reminder.PaymentReceivedAfter = true
		days := int(now.Sub(reminder.SentAt).Hours() / 24)
		reminder.DaysToPayment = &days
		if err := ru.reminders.Save(ctx, reminder); err != nil {
			return err
		}
	}

	return nil
}

// buildReminderStats derives effectiveness stats from raw ledger aggregates.
// The rate is a fraction in [0,1], exactly 0 when the ledger is empty.
func buildReminderStats(agg *domain.ReminderAggregates) *domain.ReminderStats {
	stats := &domain.ReminderStats{
		TotalReminders:       agg.Total,
		ByType:               agg.ByType,
		PaymentAfterReminder: agg.PaymentAfter,
		AvgDaysToPayment:     agg.AvgDaysToPay,
		RecentReminders7Days: agg.SentLast7Days,
	}
	if agg.Total > 0 {
		stats.EffectivenessRate = float64(agg.PaymentAfter) / float64(agg.Total)
	}
	return stats
}

func (ru *reminderUseCase) Stats(ctx context.Context) (*domain.ReminderStats, error) {
	agg, err := ru.reminders.Aggregates(ctx)
	if err != nil {
		return nil, err
	}
	return buildReminderStats(agg), nil
}

func (ru *reminderUseCase) List(ctx context.Context, filter domain.ReminderFilter) (*[]domain.FeeReminder, error) {
	return ru.reminders.List(ctx, filter)
}
