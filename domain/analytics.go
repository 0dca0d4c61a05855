package domain

import (
	"context"
	"time"
)

// Risk level bands.
const (
	RiskCritical = "Critical"
	RiskHigh     = "High"
	RiskMedium   = "Medium"
)

type AtRiskStudent struct {
	StudentID            int      `json:"student_id"`
	AdmissionNumber      string   `json:"admission_number"`
	StudentName          string   `json:"student_name"`
	ClassName            string   `json:"class_name"`
	RiskScore            int      `json:"risk_score"`
	RiskLevel            string   `json:"risk_level"`
	RiskFactors          []string `json:"risk_factors"`
	AttendancePercentage *float64 `json:"attendance_percentage"`
	OverdueFeesCount     int      `json:"overdue_fees_count"`
	TotalOverdueAmount   float64  `json:"total_overdue_amount"`
	ParentPhone          string   `json:"parent_phone"`
	LastPaymentDate      *string  `json:"last_payment_date"`
}

type ForecastMonth struct {
	Month            int     `json:"month"`
	Year             int     `json:"year"`
	ForecastedAmount float64 `json:"forecasted_amount"`
	Confidence       string  `json:"confidence"`
}

type RevenueForecast struct {
	Forecast             []ForecastMonth `json:"forecast"`
	HistoricalAverage    float64         `json:"historical_average"`
	LastMonthCollection  float64         `json:"last_month_collection"`
	Trend                string          `json:"trend"`
	TotalPendingFees     float64         `json:"total_pending_fees"`
	Confidence           string          `json:"confidence"`
}

type MonthlyTrend struct {
	Month                int     `json:"month"`
	Year                 int     `json:"year"`
	TotalFeesGenerated   int     `json:"total_fees_generated"`
	FeesCollected        int     `json:"fees_collected"`
	CollectionRate       float64 `json:"collection_rate"`
	TotalAmount          float64 `json:"total_amount"`
	CollectedAmount      float64 `json:"collected_amount"`
	AmountCollectionRate float64 `json:"amount_collection_rate"`
}

type PaymentModeStat struct {
	Mode               string  `json:"mode"`
	TransactionCount   int     `json:"transaction_count"`
	Percentage         float64 `json:"percentage"`
	TotalAmount        float64 `json:"total_amount"`
	AverageTransaction float64 `json:"average_transaction"`
}

type ClassCollectionStat struct {
	ClassName      string  `json:"class_name"`
	TotalFees      int     `json:"total_fees"`
	PaidFees       int     `json:"paid_fees"`
	CollectionRate float64 `json:"collection_rate"`
	PendingAmount  float64 `json:"pending_amount"`
}

type CollectionTrends struct {
	MonthlyTrends         []MonthlyTrend        `json:"monthly_trends"`
	PaymentModeAnalysis   []PaymentModeStat     `json:"payment_mode_analysis"`
	ClassAnalysis         []ClassCollectionStat `json:"class_analysis"`
	OverallCollectionRate float64               `json:"overall_collection_rate"`
	BestPerformingClass   *ClassCollectionStat  `json:"best_performing_class"`
	NeedsAttentionClass   *ClassCollectionStat  `json:"needs_attention_class"`
}

type ClassInsight struct {
	ClassName          string   `json:"class_name"`
	TotalStudents      int      `json:"total_students"`
	MaleStudents       int      `json:"male_students"`
	FemaleStudents     int      `json:"female_students"`
	GenderRatio        float64  `json:"gender_ratio"`
	AverageAttendance  *float64 `json:"average_attendance"`
	AveragePerformance *float64 `json:"average_performance"`
	Issues             []string `json:"issues"`
	Status             string   `json:"status"`
}

type ClassInsights struct {
	ClassInsights           []ClassInsight `json:"class_insights"`
	TotalClasses            int            `json:"total_classes"`
	ClassesNeedingAttention int            `json:"classes_needing_attention"`
	OverallGenderRatio      float64        `json:"overall_gender_ratio"`
}

type DashboardSummary struct {
	Summary struct {
		TotalStudents        int64   `json:"total_students"`
		ActiveStudents       int64   `json:"active_students"`
		AtRiskStudents       int     `json:"at_risk_students"`
		CriticalRiskStudents int     `json:"critical_risk_students"`
		RecentPayments7Days  int64   `json:"recent_payments_7_days"`
		RecentCollection7Day float64 `json:"recent_collection_7_days"`
	} `json:"summary"`
	AtRiskStudents   []AtRiskStudent `json:"at_risk_students"`
	RevenueForecast  *RevenueForecast `json:"revenue_forecast"`
	CollectionTrends struct {
		OverallRate         float64              `json:"overall_rate"`
		PaymentModes        []PaymentModeStat    `json:"payment_modes"`
		BestClass           *ClassCollectionStat `json:"best_class"`
		NeedsAttentionClass *ClassCollectionStat `json:"needs_attention_class"`
	} `json:"collection_trends"`
	ClassInsights struct {
		ClassesNeedingAttention int            `json:"classes_needing_attention"`
		OverallGenderRatio      float64        `json:"overall_gender_ratio"`
		ProblematicClasses      []ClassInsight `json:"problematic_classes"`
	} `json:"class_insights"`
	GeneratedAt time.Time `json:"generated_at"`
}

type PrecomputeSummary struct {
	AcademicYearID int      `json:"academic_year_id"`
	CachedReports  []string `json:"cached_reports"`
	Errors         int      `json:"errors"`
}

type AnalyticsUseCase interface {
	AtRiskStudents(ctx context.Context, academicYearID int) ([]AtRiskStudent, error)
	ForecastRevenue(ctx context.Context, academicYearID, monthsAhead int) (*RevenueForecast, error)
	CollectionTrends(ctx context.Context, academicYearID int) (*CollectionTrends, error)
	ClassPerformanceInsights(ctx context.Context, academicYearID int) (*ClassInsights, error)
	DashboardSummary(ctx context.Context, academicYearID int) (*DashboardSummary, error)
	CachedDashboard(ctx context.Context, academicYearID int) (*DashboardSummary, bool, error)
	PrecomputeWeekly(ctx context.Context) (*PrecomputeSummary, error)
	ClearCache(ctx context.Context, reportType string) (int64, error)
}
