package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"schoolops/domain"
)

type alertConfig struct {
	Enabled    bool
	Threshold  int
	WindowDays int
}

type alertUseCase struct {
	alerts   domain.AlertRepo
	students domain.StudentRepo
	academic domain.AcademicRepo
	settings domain.SettingsRepo
	sms      domain.SMSSender
	log      *logrus.Logger
	now      func() time.Time
	TimeOut  time.Duration
}

func NewAlertUseCase(
	alerts domain.AlertRepo,
	students domain.StudentRepo,
	academic domain.AcademicRepo,
	settings domain.SettingsRepo,
	sms domain.SMSSender,
	log *logrus.Logger,
	to time.Duration,
) domain.AlertUseCase {
	return &alertUseCase{
		alerts:   alerts,
		students: students,
		academic: academic,
		settings: settings,
		sms:      sms,
		log:      log,
		now:      time.Now,
		TimeOut:  to,
	}
}

func (au *alertUseCase) loadConfig(ctx context.Context) (*alertConfig, error) {
	settings, err := au.settings.Load(ctx)
	if err != nil {
		return nil, err
	}

	cfg := &alertConfig{}
	if cfg.Enabled, err = settings.Bool(domain.KeyAttendanceAlertEnabled, true); err != nil {
		return nil, err
	}
	if cfg.Threshold, err = settings.Int(domain.KeyAttendanceThreshold, 75); err != nil {
		return nil, err
	}
	if cfg.WindowDays, err = settings.Int(domain.KeyAlertWindowDays, 7); err != nil {
		return nil, err
	}

	return cfg, nil
}

// alertKind grades how far below the threshold a student's attendance is.
func alertKind(attendance, threshold float64) string {
	deficit := threshold - attendance
	switch {
	case deficit >= 25:
		return domain.AlertCritical
	case deficit >= 10:
		return domain.AlertUrgent
	default:
		return domain.AlertWarning
	}
}

func (au *alertUseCase) ProcessAttendanceAlerts(ctx context.Context) (*domain.AlertRunSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, au.TimeOut)
	defer cancel()

	cfg, err := au.loadConfig(ctx)
	if err != nil {
		return nil, err
	}

	summary := &domain.AlertRunSummary{
		ByType: map[string]int{
			domain.AlertWarning:  0,
			domain.AlertUrgent:   0,
			domain.AlertCritical: 0,
		},
	}

	if !cfg.Enabled {
		return summary, nil
	}

	year, err := au.academic.CurrentYear(ctx)
	if err != nil {
		return nil, err
	}

	students, err := au.students.BelowAttendance(ctx, year.AcademicYearID, float64(cfg.Threshold))
	if err != nil {
		return nil, err
	}

	window := au.now().AddDate(0, 0, -cfg.WindowDays)

	for i := range *students {
		student := &(*students)[i]
		summary.TotalEvaluated++

		recent, err := au.alerts.HasRecentForStudent(ctx, student.StudentID, window)
		if err != nil {
			summary.Errors++
			au.log.Errorf("alert throttle check failed for student %d: %v", student.StudentID, err)
			continue
		}
		if recent {
			continue
		}

		attendance := *student.AttendancePercentage
		kind := alertKind(attendance, float64(cfg.Threshold))
		message := fmt.Sprintf(
			"Dear %s, attendance of %s has dropped to %.1f%% (school minimum %d%%). Please ensure regular attendance.",
			student.ParentName, student.FirstName, attendance, cfg.Threshold)

		status := domain.DeliverySent
		if err := au.sms.Send(ctx, student.ParentPhone, message); err != nil {
			status = domain.DeliveryFailed
			au.log.Warnf("attendance alert sms failed for student %d: %v", student.StudentID, err)
		}

		alert := domain.AttendanceAlert{
			StudentID:            student.StudentID,
			AlertType:            kind,
			AttendancePercentage: attendance,
			ThresholdCrossed:     float64(cfg.Threshold),
			SentTo:               "parent",
			SentAt:               au.now(),
			DeliveryStatus:       status,
		}
		if err := au.alerts.Create(ctx, &alert); err != nil {
			summary.Errors++
			au.log.Errorf("could not record attendance alert for student %d: %v", student.StudentID, err)
			continue
		}

		if status == domain.DeliverySent {
			summary.AlertsSent++
			summary.ByType[kind]++
		} else {
			summary.AlertsFailed++
		}
	}

	au.log.WithFields(logrus.Fields{
		"evaluated": summary.TotalEvaluated,
		"sent":      summary.AlertsSent,
		"failed":    summary.AlertsFailed,
		"errors":    summary.Errors,
	}).Info("attendance alert run completed")

	return summary, nil
}
