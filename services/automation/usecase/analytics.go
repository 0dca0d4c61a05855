package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"schoolops/domain"
)

const (
	riskInclusionScore   = 25
	riskCriticalScore    = 60
	riskHighScore        = 40
	attendanceRiskFloor  = 75.0
	paymentDelayMinCount = 2
	marksRiskFloor       = 40.0

	onDemandCacheTTL = 24 * time.Hour
	weeklyCacheTTL   = 7 * 24 * time.Hour
)

// riskInput carries everything the factor table needs about one student.
type riskInput struct {
	Student              *domain.Student
	OverdueFees          int
	OverdueAmount        int64
	RecentPayments       int
	UnrespondedReminders int
}

// riskFactor is one (predicate, weight) row. Factors are independent; adding
// one is a table entry, not a code path.
type riskFactor struct {
	Weight int
	Eval   func(in *riskInput) (bool, string)
}

var riskFactors = []riskFactor{
	{
		Weight: 30,
		Eval: func(in *riskInput) (bool, string) {
			a := in.Student.AttendancePercentage
			if a != nil && *a < attendanceRiskFloor {
				return true, fmt.Sprintf("Low attendance: %.1f%%", *a)
			}
			return false, ""
		},
	},
	{
		Weight: 25,
		Eval: func(in *riskInput) (bool, string) {
			if in.OverdueFees >= paymentDelayMinCount {
				return true, fmt.Sprintf("%d overdue fees (Rs. %.2f)", in.OverdueFees, float64(in.OverdueAmount)/100)
			}
			return false, ""
		},
	},
	{
		Weight: 20,
		Eval: func(in *riskInput) (bool, string) {
			if in.RecentPayments == 0 && in.OverdueFees > 0 {
				return true, "No payments in last 3 months"
			}
			return false, ""
		},
	},
	{
		Weight: 15,
		Eval: func(in *riskInput) (bool, string) {
			if in.UnrespondedReminders >= 3 {
				return true, fmt.Sprintf("%d unresponded reminders", in.UnrespondedReminders)
			}
			return false, ""
		},
	},
	{
		Weight: 10,
		Eval: func(in *riskInput) (bool, string) {
			m := in.Student.AverageMarks
			if m != nil && *m < marksRiskFloor {
				return true, fmt.Sprintf("Low performance: %.1f%%", *m)
			}
			return false, ""
		},
	},
}

func scoreRisk(in *riskInput) (int, []string) {
	score := 0
	var factors []string
	for _, f := range riskFactors {
		if hit, desc := f.Eval(in); hit {
			score += f.Weight
			factors = append(factors, desc)
		}
	}
	return score, factors
}

func riskLevel(score int) string {
	switch {
	case score >= riskCriticalScore:
		return domain.RiskCritical
	case score >= riskHighScore:
		return domain.RiskHigh
	default:
		return domain.RiskMedium
	}
}

type analyticsUseCase struct {
	students domain.StudentRepo
	fees     domain.FeeRepo
	payments domain.PaymentRepo
	academic domain.AcademicRepo
	cache    domain.CacheRepo
	log      *logrus.Logger
	now      func() time.Time
	TimeOut  time.Duration
}

func NewAnalyticsUseCase(
	students domain.StudentRepo,
	fees domain.FeeRepo,
	payments domain.PaymentRepo,
	academic domain.AcademicRepo,
	cache domain.CacheRepo,
	log *logrus.Logger,
	to time.Duration,
) domain.AnalyticsUseCase {
	return &analyticsUseCase{
		students: students,
		fees:     fees,
		payments: payments,
		academic: academic,
		cache:    cache,
		log:      log,
		now:      time.Now,
		TimeOut:  to,
	}
}

func (au *analyticsUseCase) AtRiskStudents(ctx context.Context, academicYearID int) ([]domain.AtRiskStudent, error) {
	students, err := au.students.ActiveByYear(ctx, academicYearID)
	if err != nil {
		return nil, err
	}

	today := au.now()
	atRisk := make([]domain.AtRiskStudent, 0)

	for i := range *students {
		student := &(*students)[i]
		in := buildRiskInput(student, today)

		score, factors := scoreRisk(in)
		if score < riskInclusionScore {
			continue
		}

		var lastPayment *string
		if len(student.Payments) > 0 {
			latest := student.Payments[0].PaymentDate
			for _, p := range student.Payments {
				if p.PaymentDate.After(latest) {
					latest = p.PaymentDate
				}
			}
			s := latest.Format("2006-01-02")
			lastPayment = &s
		}

		atRisk = append(atRisk, domain.AtRiskStudent{
			StudentID:            student.StudentID,
			AdmissionNumber:      student.AdmissionNumber,
			StudentName:          student.FullName(),
			ClassName:            student.Class.Name,
			RiskScore:            score,
			RiskLevel:            riskLevel(score),
			RiskFactors:          factors,
			AttendancePercentage: student.AttendancePercentage,
			OverdueFeesCount:     in.OverdueFees,
			TotalOverdueAmount:   float64(in.OverdueAmount) / 100,
			ParentPhone:          student.ParentPhone,
			LastPaymentDate:      lastPayment,
		})
	}

	sort.SliceStable(atRisk, func(i, j int) bool {
		return atRisk[i].RiskScore > atRisk[j].RiskScore
	})

	return atRisk, nil
}

func buildRiskInput(student *domain.Student, today time.Time) *riskInput {
	in := &riskInput{Student: student}

	for _, fee := range student.MonthlyFees {
		if (fee.Status == domain.FeeStatusPending || fee.Status == domain.FeeStatusPartial) &&
			fee.DueDate.Before(today) {
			in.OverdueFees++
			in.OverdueAmount += fee.AmountPending
		}
	}

	for _, p := range student.Payments {
		if today.Sub(p.PaymentDate) <= 90*24*time.Hour {
			in.RecentPayments++
		}
	}

	for _, r := range student.FeeReminders {
		if !r.PaymentReceivedAfter {
			in.UnrespondedReminders++
		}
	}

	return in
}

// buildForecast projects the next monthsAhead months from the trailing
// monthly totals. Trend compares the first half of the series against the
// second; more than 10% apart flips the compounding factor by 5% a month.
func buildForecast(rows []domain.MonthlyCollection, totalPending int64, monthsAhead int, today time.Time) *domain.RevenueForecast {
	forecast := &domain.RevenueForecast{
		Forecast:         []domain.ForecastMonth{},
		TotalPendingFees: float64(totalPending) / 100,
	}

	if len(rows) == 0 {
		forecast.Trend = "insufficient_data"
		forecast.Confidence = "low"
		return forecast
	}

	collections := make([]float64, len(rows))
	var sum float64
	for i, row := range rows {
		collections[i] = float64(row.Amount) / 100
		sum += collections[i]
	}
	avg := sum / float64(len(collections))

	trend := "stable"
	factor := 1.0
	if len(collections) >= 3 {
		mid := len(collections) / 2
		firstAvg := mean(collections[:mid])
		secondAvg := mean(collections[mid:])
		if secondAvg > firstAvg*1.1 {
			trend = "increasing"
			factor = 1.05
		} else if secondAvg < firstAvg*0.9 {
			trend = "decreasing"
			factor = 0.95
		}
	}

	base := collections[len(collections)-1]
	for i := 1; i <= monthsAhead; i++ {
		month := today.AddDate(0, 0, 30*i)
		confidence := "medium"
		if i > 2 {
			confidence = "low"
		}
		forecast.Forecast = append(forecast.Forecast, domain.ForecastMonth{
			Month:            int(month.Month()),
			Year:             month.Year(),
			ForecastedAmount: round2(base * math.Pow(factor, float64(i))),
			Confidence:       confidence,
		})
	}

	forecast.HistoricalAverage = round2(avg)
	forecast.LastMonthCollection = round2(base)
	forecast.Trend = trend
	forecast.Confidence = "low"
	if len(collections) >= 4 {
		forecast.Confidence = "medium"
	}

	return forecast
}

func (au *analyticsUseCase) ForecastRevenue(ctx context.Context, academicYearID, monthsAhead int) (*domain.RevenueForecast, error) {
	if monthsAhead <= 0 {
		monthsAhead = 3
	}

	today := au.now()
	rows, err := au.payments.MonthlyTotals(ctx, academicYearID, today.AddDate(0, 0, -180))
	if err != nil {
		return nil, err
	}

	pending, err := au.fees.TotalPending(ctx, academicYearID)
	if err != nil {
		return nil, err
	}

	return buildForecast(*rows, pending, monthsAhead, today), nil
}

func buildCollectionTrends(trendRows []domain.FeeTrendRow, modeRows []domain.PaymentModeRow, classRows []domain.ClassCollectionRow) *domain.CollectionTrends {
	out := &domain.CollectionTrends{
		MonthlyTrends:       []domain.MonthlyTrend{},
		PaymentModeAnalysis: []domain.PaymentModeStat{},
		ClassAnalysis:       []domain.ClassCollectionStat{},
	}

	var rateSum float64
	for _, row := range trendRows {
		rate, amountRate := 0.0, 0.0
		if row.TotalFees > 0 {
			rate = float64(row.PaidFees) / float64(row.TotalFees) * 100
		}
		if row.TotalAmount > 0 {
			amountRate = float64(row.CollectedAmount) / float64(row.TotalAmount) * 100
		}
		rateSum += rate
		out.MonthlyTrends = append(out.MonthlyTrends, domain.MonthlyTrend{
			Month:                row.Month,
			Year:                 row.Year,
			TotalFeesGenerated:   row.TotalFees,
			FeesCollected:        row.PaidFees,
			CollectionRate:       round2(rate),
			TotalAmount:          float64(row.TotalAmount) / 100,
			CollectedAmount:      float64(row.CollectedAmount) / 100,
			AmountCollectionRate: round2(amountRate),
		})
	}
	if len(out.MonthlyTrends) > 0 {
		out.OverallCollectionRate = round2(rateSum / float64(len(out.MonthlyTrends)))
	}

	var totalPayments int
	for _, row := range modeRows {
		totalPayments += row.Count
	}
	for _, row := range modeRows {
		pct, avg := 0.0, 0.0
		if totalPayments > 0 {
			pct = float64(row.Count) / float64(totalPayments) * 100
		}
		if row.Count > 0 {
			avg = float64(row.Amount) / float64(row.Count) / 100
		}
		out.PaymentModeAnalysis = append(out.PaymentModeAnalysis, domain.PaymentModeStat{
			Mode:               row.Mode,
			TransactionCount:   row.Count,
			Percentage:         round2(pct),
			TotalAmount:        float64(row.Amount) / 100,
			AverageTransaction: round2(avg),
		})
	}

	for _, row := range classRows {
		rate := 0.0
		if row.TotalFees > 0 {
			rate = float64(row.PaidFees) / float64(row.TotalFees) * 100
		}
		out.ClassAnalysis = append(out.ClassAnalysis, domain.ClassCollectionStat{
			ClassName:      row.ClassName,
			TotalFees:      row.TotalFees,
			PaidFees:       row.PaidFees,
			CollectionRate: round2(rate),
			PendingAmount:  float64(row.PendingAmount) / 100,
		})
	}

	for i := range out.ClassAnalysis {
		c := &out.ClassAnalysis[i]
		if out.BestPerformingClass == nil || c.CollectionRate > out.BestPerformingClass.CollectionRate {
			out.BestPerformingClass = c
		}
		if out.NeedsAttentionClass == nil || c.CollectionRate < out.NeedsAttentionClass.CollectionRate {
			out.NeedsAttentionClass = c
		}
	}

	return out
}

func (au *analyticsUseCase) CollectionTrends(ctx context.Context, academicYearID int) (*domain.CollectionTrends, error) {
	trendRows, err := au.fees.TrendByMonth(ctx, academicYearID)
	if err != nil {
		return nil, err
	}
	modeRows, err := au.payments.ModeBreakdown(ctx, academicYearID)
	if err != nil {
		return nil, err
	}
	classRows, err := au.fees.CollectionByClass(ctx, academicYearID)
	if err != nil {
		return nil, err
	}

	return buildCollectionTrends(*trendRows, *modeRows, *classRows), nil
}

func buildClassInsights(rows []domain.ClassInsightRow) *domain.ClassInsights {
	out := &domain.ClassInsights{
		ClassInsights: []domain.ClassInsight{},
	}

	var totalMale, totalFemale int
	for _, row := range rows {
		ratio := 0.0
		if row.MaleCount > 0 {
			ratio = float64(row.FemaleCount) / float64(row.MaleCount)
		}

		var issues []string
		if row.AvgAttendance != nil && *row.AvgAttendance < 75 {
			issues = append(issues, fmt.Sprintf("Low attendance: %.1f%%", *row.AvgAttendance))
		}
		if row.AvgMarks != nil && *row.AvgMarks < 50 {
			issues = append(issues, fmt.Sprintf("Low performance: %.1f%%", *row.AvgMarks))
		}
		if ratio < 0.7 {
			issues = append(issues, "Low female enrollment")
		}

		status := "Good"
		if len(issues) > 0 {
			status = "Needs Attention"
			out.ClassesNeedingAttention++
		}

		totalMale += row.MaleCount
		totalFemale += row.FemaleCount

		out.ClassInsights = append(out.ClassInsights, domain.ClassInsight{
			ClassName:          row.ClassName,
			TotalStudents:      row.TotalStudents,
			MaleStudents:       row.MaleCount,
			FemaleStudents:     row.FemaleCount,
			GenderRatio:        round2(ratio),
			AverageAttendance:  row.AvgAttendance,
			AveragePerformance: row.AvgMarks,
			Issues:             issues,
			Status:             status,
		})
	}

	sort.SliceStable(out.ClassInsights, func(i, j int) bool {
		return len(out.ClassInsights[i].Issues) > len(out.ClassInsights[j].Issues)
	})

	out.TotalClasses = len(out.ClassInsights)
	if totalMale > 0 {
		out.OverallGenderRatio = round2(float64(totalFemale) / float64(totalMale))
	}

	return out
}

func (au *analyticsUseCase) ClassPerformanceInsights(ctx context.Context, academicYearID int) (*domain.ClassInsights, error) {
	rows, err := au.students.ClassInsightRows(ctx, academicYearID)
	if err != nil {
		return nil, err
	}
	return buildClassInsights(*rows), nil
}

func (au *analyticsUseCase) DashboardSummary(ctx context.Context, academicYearID int) (*domain.DashboardSummary, error) {
	atRisk, err := au.AtRiskStudents(ctx, academicYearID)
	if err != nil {
		return nil, err
	}
	forecast, err := au.ForecastRevenue(ctx, academicYearID, 3)
	if err != nil {
		return nil, err
	}
	trends, err := au.CollectionTrends(ctx, academicYearID)
	if err != nil {
		return nil, err
	}
	insights, err := au.ClassPerformanceInsights(ctx, academicYearID)
	if err != nil {
		return nil, err
	}

	total, active, err := au.students.CountByYear(ctx, academicYearID)
	if err != nil {
		return nil, err
	}

	recentCount, recentAmount, err := au.payments.VolumeSince(ctx, academicYearID, au.now().AddDate(0, 0, -7))
	if err != nil {
		return nil, err
	}

	dashboard := &domain.DashboardSummary{GeneratedAt: au.now()}
	dashboard.Summary.TotalStudents = total
	dashboard.Summary.ActiveStudents = active
	dashboard.Summary.AtRiskStudents = len(atRisk)
	for _, s := range atRisk {
		if s.RiskLevel == domain.RiskCritical {
			dashboard.Summary.CriticalRiskStudents++
		}
	}
	dashboard.Summary.RecentPayments7Days = recentCount
	dashboard.Summary.RecentCollection7Day = float64(recentAmount) / 100

	if len(atRisk) > 10 {
		atRisk = atRisk[:10]
	}
	dashboard.AtRiskStudents = atRisk
	dashboard.RevenueForecast = forecast

	dashboard.CollectionTrends.OverallRate = trends.OverallCollectionRate
	dashboard.CollectionTrends.PaymentModes = trends.PaymentModeAnalysis
	dashboard.CollectionTrends.BestClass = trends.BestPerformingClass
	dashboard.CollectionTrends.NeedsAttentionClass = trends.NeedsAttentionClass

	dashboard.ClassInsights.ClassesNeedingAttention = insights.ClassesNeedingAttention
	dashboard.ClassInsights.OverallGenderRatio = insights.OverallGenderRatio
	problematic := make([]domain.ClassInsight, 0, 5)
	for _, c := range insights.ClassInsights {
		if len(c.Issues) > 0 {
			problematic = append(problematic, c)
			if len(problematic) == 5 {
				break
			}
		}
	}
	dashboard.ClassInsights.ProblematicClasses = problematic

	return dashboard, nil
}

// CachedDashboard serves the dashboard from the result cache when a live
// entry exists, computing and caching it otherwise.
func (au *analyticsUseCase) CachedDashboard(ctx context.Context, academicYearID int) (*domain.DashboardSummary, bool, error) {
	params := map[string]any{"academic_year_id": academicYearID}

	payload, hit, err := au.cache.Get(ctx, "dashboard", params)
	if err != nil {
		return nil, false, err
	}
	if hit {
		var dashboard domain.DashboardSummary
		if err := json.Unmarshal(payload, &dashboard); err != nil {
			return nil, false, fmt.Errorf("could not decode cached dashboard: %v", err)
		}
		return &dashboard, true, nil
	}

	dashboard, err := au.DashboardSummary(ctx, academicYearID)
	if err != nil {
		return nil, false, err
	}
	if err := au.cache.Put(ctx, "dashboard", params, dashboard, onDemandCacheTTL); err != nil {
		au.log.Warnf("could not cache dashboard: %v", err)
	}

	return dashboard, false, nil
}

// PrecomputeWeekly computes the heavy reports for the current academic year
// and caches them with a long TTL. Runs from the weekly scheduler job.
func (au *analyticsUseCase) PrecomputeWeekly(ctx context.Context) (*domain.PrecomputeSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, au.TimeOut)
	defer cancel()

	year, err := au.academic.CurrentYear(ctx)
	if err != nil {
		return nil, err
	}

	params := map[string]any{"academic_year_id": year.AcademicYearID}
	summary := &domain.PrecomputeSummary{AcademicYearID: year.AcademicYearID}

	reports := []struct {
		name    string
		compute func(context.Context) (any, error)
	}{
		{"dashboard", func(ctx context.Context) (any, error) {
			return au.DashboardSummary(ctx, year.AcademicYearID)
		}},
		{"collection_trends", func(ctx context.Context) (any, error) {
			return au.CollectionTrends(ctx, year.AcademicYearID)
		}},
		{"class_performance", func(ctx context.Context) (any, error) {
			return au.ClassPerformanceInsights(ctx, year.AcademicYearID)
		}},
	}

	for _, report := range reports {
		result, err := report.compute(ctx)
		if err != nil {
			summary.Errors++
			au.log.Errorf("weekly precompute of %s failed: %v", report.name, err)
			continue
		}
		if err := au.cache.Put(ctx, report.name, params, result, weeklyCacheTTL); err != nil {
			summary.Errors++
			au.log.Errorf("could not cache %s: %v", report.name, err)
			continue
		}
		summary.CachedReports = append(summary.CachedReports, report.name)
	}

	return summary, nil
}

func (au *analyticsUseCase) ClearCache(ctx context.Context, reportType string) (int64, error) {
	if reportType == "" {
		return au.cache.InvalidateAll(ctx)
	}
	return au.cache.Invalidate(ctx, reportType)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
