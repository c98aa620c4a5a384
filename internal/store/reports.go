package store

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"medistock/m/domain"
)

// salvageRate prices expired stock for the write-off column of the
// report: 80% of MRP.
var salvageRate = decimal.NewFromFloat(0.8)

// DashboardSummary is the owner's at-a-glance view.
type DashboardSummary struct {
	TotalMedicines int               `json:"total_medicines"`
	TodaySales     decimal.Decimal   `json:"today_sales"`
	MonthlyRevenue decimal.Decimal   `json:"monthly_revenue"`
	ExpiringSoon   int               `json:"expiring_soon"`
	RecentSales    []domain.Sale     `json:"recent_sales"`
	LowStock       []domain.Medicine `json:"low_stock"`
}

// Dashboard computes the summary for the session user as of now.
// Recent sales are the five newest; low stock lists up to five
// medicines under the threshold.
func (s *Store) Dashboard(sess *Session, now time.Time) (DashboardSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner, err := s.requireSession(sess)
	if err != nil {
		return DashboardSummary{}, err
	}

	out := DashboardSummary{
		TodaySales:     decimal.Zero,
		MonthlyRevenue: decimal.Zero,
		RecentSales:    []domain.Sale{},
		LowStock:       []domain.Medicine{},
	}

	for _, m := range s.medicines {
		if m.OwnerID != owner.ID {
			continue
		}
		out.TotalMedicines++
		if m.ExpiryStatusOn(now) == domain.ExpirySoon {
			out.ExpiringSoon++
		}
		if m.Quantity < domain.LowStockThreshold && len(out.LowStock) < 5 {
			out.LowStock = append(out.LowStock, m)
		}
	}

	var owned []domain.Sale
	for _, sale := range s.sales {
		if sale.OwnerID != owner.ID {
			continue
		}
		owned = append(owned, sale)
		if sameDay(sale.CreatedAt, now) {
			out.TodaySales = out.TodaySales.Add(sale.TotalAmount)
		}
		if sale.CreatedAt.Year() == now.Year() && sale.CreatedAt.Month() == now.Month() {
			out.MonthlyRevenue = out.MonthlyRevenue.Add(sale.TotalAmount)
		}
	}

	sort.SliceStable(owned, func(i, j int) bool {
		return owned[i].CreatedAt.After(owned[j].CreatedAt)
	})
	if len(owned) > 5 {
		owned = owned[:5]
	}
	out.RecentSales = append(out.RecentSales, owned...)
	return out, nil
}

// ExpiredMedicine pairs an expired record with its salvage value
// (80% of MRP times remaining quantity).
type ExpiredMedicine struct {
	domain.Medicine
	SalvageValue decimal.Decimal `json:"salvage_value"`
}

// ReportSummary aggregates the owner's full history.
type ReportSummary struct {
	TotalRevenue    decimal.Decimal   `json:"total_revenue"`
	UnitsSold       int64             `json:"units_sold"`
	ExpiredCount    int               `json:"expired_count"`
	RepeatCustomers int               `json:"repeat_customers"`
	Expired         []ExpiredMedicine `json:"expired"`
}

// Report computes the summary for the session user as of now.
func (s *Store) Report(sess *Session, now time.Time) (ReportSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner, err := s.requireSession(sess)
	if err != nil {
		return ReportSummary{}, err
	}

	out := ReportSummary{
		TotalRevenue: decimal.Zero,
		Expired:      []ExpiredMedicine{},
	}

	purchases := make(map[string]int)
	for _, sale := range s.sales {
		if sale.OwnerID != owner.ID {
			continue
		}
		out.TotalRevenue = out.TotalRevenue.Add(sale.TotalAmount)
		out.UnitsSold += sale.UnitsSold()
		purchases[sale.CustomerID]++
	}
	for _, count := range purchases {
		if count > 1 {
			out.RepeatCustomers++
		}
	}

	for _, m := range s.medicines {
		if m.OwnerID != owner.ID || m.ExpiryStatusOn(now) != domain.ExpiryPast {
			continue
		}
		out.ExpiredCount++
		out.Expired = append(out.Expired, ExpiredMedicine{
			Medicine:     m,
			SalvageValue: m.MRP.Mul(salvageRate).Mul(decimal.NewFromInt(m.Quantity)),
		})
	}
	return out, nil
}

// ExpiringWithin lists the session user's in-stock medicines whose
// expiry date falls within the next days, soonest first. Expired
// records are excluded; the alert is about stock that can still move.
func (s *Store) ExpiringWithin(sess *Session, now time.Time, days int) ([]domain.Medicine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner, err := s.requireSession(sess)
	if err != nil {
		return nil, err
	}
	if days <= 0 {
		days = domain.ExpiryWindowDays
	}

	out := []domain.Medicine{}
	for _, m := range s.medicines {
		if m.OwnerID != owner.ID || m.Quantity <= 0 {
			continue
		}
		if left := m.DaysUntilExpiry(now); left >= 0 && left <= days {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ExpDate.Before(out[j].ExpDate)
	})
	return out, nil
}

// CustomerSummary is a customer with purchase history attached.
type CustomerSummary struct {
	domain.Customer
	Purchases    int        `json:"purchases"`
	LastPurchase *time.Time `json:"last_purchase,omitempty"`
}

// CustomerSummaries lists the session user's customers with their
// purchase counts and most recent purchase dates.
func (s *Store) CustomerSummaries(sess *Session) ([]CustomerSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner, err := s.requireSession(sess)
	if err != nil {
		return nil, err
	}

	out := []CustomerSummary{}
	for _, c := range s.customers {
		if c.OwnerID != owner.ID {
			continue
		}
		summary := CustomerSummary{Customer: c}
		for _, sale := range s.sales {
			if sale.OwnerID != owner.ID || sale.CustomerID != c.ID {
				continue
			}
			summary.Purchases++
			if summary.LastPurchase == nil || sale.CreatedAt.After(*summary.LastPurchase) {
				created := sale.CreatedAt
				summary.LastPurchase = &created
			}
		}
		out = append(out, summary)
	}
	return out, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
