package services

import (
	"context"
	"strings"
	"time"

	"github.com/Omyelshetty/RentApp/internal/logger"
	"github.com/Omyelshetty/RentApp/internal/models"
	"github.com/Omyelshetty/RentApp/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReportRange selects the aggregation window of a summary report.
type ReportRange string

const (
	RangeWeek    ReportRange = "week"
	RangeMonth   ReportRange = "month"
	RangeQuarter ReportRange = "quarter"
	RangeYear    ReportRange = "year"
)

// trailingMonths is the length of the monthly revenue series.
const trailingMonths = 6

// ParseReportRange parses a range name; empty selects RangeMonth.
func ParseReportRange(s string) (ReportRange, error) {
	switch r := ReportRange(strings.ToLower(strings.TrimSpace(s))); r {
	case "":
		return RangeMonth, nil
	case RangeWeek, RangeMonth, RangeQuarter, RangeYear:
		return r, nil
	}
	return "", invalid("range", "must be one of week, month, quarter, year")
}

// Start returns the beginning of the window ending at now.
func (r ReportRange) Start(now time.Time) time.Time {
	y, m, _ := now.Date()
	loc := now.Location()
	switch r {
	case RangeWeek:
		return now.AddDate(0, 0, -7)
	case RangeQuarter:
		first := time.Month((int(m)-1)/3*3 + 1)
		return time.Date(y, first, 1, 0, 0, 0, 0, loc)
	case RangeYear:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
	default:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc)
	}
}

// TenantStats counts tenants by lifecycle status.
type TenantStats struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
	Pending  int `json:"pending"`
}

// PaymentStats counts records in the window by status.
type PaymentStats struct {
	Paid    int `json:"paid"`
	Pending int `json:"pending"`
	Overdue int `json:"overdue"`
	Partial int `json:"partial"`
}

// MonthlyRevenue is one point of the trailing revenue series.
type MonthlyRevenue struct {
	Month  string          `json:"month"`
	Amount decimal.Decimal `json:"amount"`
	Year   int             `json:"year"`
}

// Summary is the dashboard report.
type Summary struct {
	From           time.Time        `json:"from"`
	To             time.Time        `json:"to"`
	PaymentMethods map[string]int64 `json:"paymentMethods"`
	Range          ReportRange      `json:"range"`
	MonthlyRevenue []MonthlyRevenue `json:"monthlyRevenue"`
	TotalRevenue   decimal.Decimal  `json:"totalRevenue"`
	AverageRent    decimal.Decimal  `json:"averageRent"`
	TenantStats    TenantStats      `json:"tenantStats"`
	PaymentStats   PaymentStats     `json:"paymentStats"`
	OccupancyRate  int64            `json:"occupancyRate"`
}

// TenantReport is the payment history of a single tenant.
type TenantReport struct {
	Tenant         *models.Tenant         `json:"tenant"`
	PaymentHistory []models.PaymentRecord `json:"paymentHistory"`
	TotalPaid      decimal.Decimal        `json:"totalPaid"`
	TotalPending   decimal.Decimal        `json:"totalPending"`
	TotalPayments  int                    `json:"totalPayments"`
}

// PaymentsSummary aggregates a payments report.
type PaymentsSummary struct {
	ByStatus    map[string]int  `json:"byStatus"`
	ByMethod    map[string]int  `json:"byMethod"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Total       int             `json:"total"`
}

// PaymentsReport is a filtered listing with its aggregates.
type PaymentsReport struct {
	Payments []models.PaymentRecord `json:"payments"`
	Summary  PaymentsSummary        `json:"summary"`
}

// OwnerStat is the collected rent of one property.
type OwnerStat struct {
	PropertyName  string          `json:"propertyName"`
	OwnerName     string          `json:"ownerName"`
	TotalCredited decimal.Decimal `json:"totalCredited"`
	TenantCount   int             `json:"tenantCount"`
	PropertyID    uuid.UUID       `json:"propertyId"`
}

// ReportService derives read-only statistics from the ledger and the registry.
type ReportService interface {
	Summary(ctx context.Context, r ReportRange) (*Summary, error)
	TenantReport(ctx context.Context, tenantID uuid.UUID) (*TenantReport, error)
	PaymentsReport(ctx context.Context, filter models.PaymentFilter) (*PaymentsReport, error)
	OwnerStats(ctx context.Context) ([]OwnerStat, error)
}

type reportService struct {
	payments   repository.PaymentRepository
	tenants    repository.TenantRepository
	properties repository.PropertyRepository
	log        *logger.Logger
	now        func() time.Time
}

// NewReportService creates a ReportService.
func NewReportService(
	payments repository.PaymentRepository,
	tenants repository.TenantRepository,
	properties repository.PropertyRepository,
	log *logger.Logger,
	opts ...Option,
) ReportService {
	o := buildOptions(opts)
	return &reportService{
		payments:   payments,
		tenants:    tenants,
		properties: properties,
		log:        log,
		now:        o.now,
	}
}

// percent returns round(part/whole*100), or 0 when whole is 0.
func percent(part, whole int) int64 {
	if whole == 0 {
		return 0
	}
	return decimal.NewFromInt(int64(part) * 100).Div(decimal.NewFromInt(int64(whole))).Round(0).IntPart()
}

func (s *reportService) Summary(ctx context.Context, r ReportRange) (*Summary, error) {
	if r == "" {
		r = RangeMonth
	}
	now := s.now()
	from := r.Start(now)

	tenants, err := s.tenants.List(ctx, models.TenantFilter{})
	if err != nil {
		return nil, storeError("list tenants", "", err)
	}

	// The trailing series may reach further back than the window.
	seriesStart := models.PeriodOf(now).Previous(trailingMonths - 1).Start(now.Location())
	scanFrom := from
	if seriesStart.Before(scanFrom) {
		scanFrom = seriesStart
	}
	records, err := s.payments.List(ctx, models.PaymentFilter{From: &scanFrom, To: &now})
	if err != nil {
		return nil, storeError("list payments", "", err)
	}

	summary := &Summary{
		Range:          r,
		From:           from,
		To:             now,
		TotalRevenue:   decimal.Zero,
		AverageRent:    decimal.Zero,
		PaymentMethods: map[string]int64{},
	}

	rentTotal := decimal.Zero
	for _, t := range tenants {
		summary.TenantStats.Total++
		switch t.Status {
		case models.TenantStatusActive:
			summary.TenantStats.Active++
			rentTotal = rentTotal.Add(t.RentAmount)
		case models.TenantStatusInactive:
			summary.TenantStats.Inactive++
		case models.TenantStatusPending:
			summary.TenantStats.Pending++
		}
	}
	summary.OccupancyRate = percent(summary.TenantStats.Active, summary.TenantStats.Total)
	if summary.TenantStats.Active > 0 {
		summary.AverageRent = rentTotal.Div(decimal.NewFromInt(int64(summary.TenantStats.Active))).Round(0)
	}

	methodCounts := map[string]int{}
	inWindow := 0
	for _, p := range records {
		if p.PaymentDate.Before(from) {
			continue
		}
		inWindow++
		summary.TotalRevenue = summary.TotalRevenue.Add(p.Collected())
		methodCounts[string(p.PaymentMethod)]++
		switch p.Status {
		case models.PaymentStatusPaid:
			summary.PaymentStats.Paid++
		case models.PaymentStatusPending:
			summary.PaymentStats.Pending++
		case models.PaymentStatusOverdue:
			summary.PaymentStats.Overdue++
		case models.PaymentStatusPartial:
			summary.PaymentStats.Partial++
		}
	}
	for method, count := range methodCounts {
		summary.PaymentMethods[method] = percent(count, inWindow)
	}

	summary.MonthlyRevenue = monthlyRevenue(records, models.PeriodOf(now), now.Location())

	s.log.Debug("Summary report computed", map[string]interface{}{
		"range":    string(r),
		"tenants":  summary.TenantStats.Total,
		"payments": inWindow,
	})
	return summary, nil
}

// monthlyRevenue buckets collected money by payment month for the trailing periods
// ending at current, oldest first.
func monthlyRevenue(records []models.PaymentRecord, current models.BillingPeriod, loc *time.Location) []MonthlyRevenue {
	series := make([]MonthlyRevenue, trailingMonths)
	index := make(map[models.BillingPeriod]int, trailingMonths)
	for i := 0; i < trailingMonths; i++ {
		p := current.Previous(trailingMonths - 1 - i)
		series[i] = MonthlyRevenue{Month: p.MonthName()[:3], Year: p.Year, Amount: decimal.Zero}
		index[p] = i
	}
	for _, r := range records {
		i, ok := index[models.PeriodOf(r.PaymentDate.In(loc))]
		if !ok {
			continue
		}
		series[i].Amount = series[i].Amount.Add(r.Collected())
	}
	return series
}

func (s *reportService) TenantReport(ctx context.Context, tenantID uuid.UUID) (*TenantReport, error) {
	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, storeError("load tenant", "", err)
	}
	if tenant == nil {
		return nil, notFound("tenant", tenantID)
	}

	records, err := s.payments.List(ctx, models.PaymentFilter{TenantID: &tenantID})
	if err != nil {
		return nil, storeError("list tenant payments", "", err)
	}

	report := &TenantReport{
		Tenant:         tenant,
		PaymentHistory: records,
		TotalPaid:      decimal.Zero,
		TotalPending:   decimal.Zero,
		TotalPayments:  len(records),
	}
	for _, r := range records {
		report.TotalPaid = report.TotalPaid.Add(r.Collected())
		if r.Status != models.PaymentStatusPaid {
			report.TotalPending = report.TotalPending.Add(r.Outstanding())
		}
	}
	return report, nil
}

func (s *reportService) PaymentsReport(ctx context.Context, filter models.PaymentFilter) (*PaymentsReport, error) {
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, invalid("from", "must not be after to")
	}
	records, err := s.payments.List(ctx, filter)
	if err != nil {
		return nil, storeError("list payments", "", err)
	}

	report := &PaymentsReport{
		Payments: records,
		Summary: PaymentsSummary{
			Total:       len(records),
			TotalAmount: decimal.Zero,
			ByStatus:    map[string]int{},
			ByMethod:    map[string]int{},
		},
	}
	for _, r := range records {
		report.Summary.TotalAmount = report.Summary.TotalAmount.Add(r.Amount)
		report.Summary.ByStatus[string(r.Status)]++
		report.Summary.ByMethod[string(r.PaymentMethod)]++
	}
	return report, nil
}

func (s *reportService) OwnerStats(ctx context.Context) ([]OwnerStat, error) {
	properties, err := s.properties.List(ctx)
	if err != nil {
		return nil, storeError("list properties", "", err)
	}
	tenants, err := s.tenants.List(ctx, models.TenantFilter{})
	if err != nil {
		return nil, storeError("list tenants", "", err)
	}
	records, err := s.payments.List(ctx, models.PaymentFilter{})
	if err != nil {
		return nil, storeError("list payments", "", err)
	}

	stats := make([]OwnerStat, len(properties))
	index := make(map[uuid.UUID]int, len(properties))
	for i, p := range properties {
		stats[i] = OwnerStat{
			PropertyID:    p.ID,
			PropertyName:  p.PropertyName,
			OwnerName:     p.OwnerName,
			TotalCredited: decimal.Zero,
		}
		index[p.ID] = i
	}
	for _, t := range tenants {
		if t.PropertyID == nil {
			continue
		}
		if i, ok := index[*t.PropertyID]; ok {
			stats[i].TenantCount++
		}
	}
	for _, r := range records {
		if r.PropertyID == nil {
			continue
		}
		if i, ok := index[*r.PropertyID]; ok {
			stats[i].TotalCredited = stats[i].TotalCredited.Add(r.Collected())
		}
	}
	return stats, nil
}
