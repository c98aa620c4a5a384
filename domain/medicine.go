package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpiryStatus classifies a medicine by how close its expiry date is.
type ExpiryStatus string

const (
	ExpiryGood ExpiryStatus = "good"
	ExpirySoon ExpiryStatus = "expiring_soon"
	ExpiryPast ExpiryStatus = "expired"
)

// ExpiryWindowDays is the look-ahead window for the expiring-soon
// classification, in whole days.
const ExpiryWindowDays = 30

// LowStockThreshold is the quantity below which a medicine is flagged on
// the dashboard.
const LowStockThreshold = 10

type Medicine struct {
	ID           string          `json:"id"`
	OwnerID      string          `json:"owner_id"`
	BatchNo      string          `json:"batch_no"`
	Name         string          `json:"name"`
	Manufacturer string          `json:"manufacturer"`
	Category     string          `json:"category"`
	MfgDate      time.Time       `json:"mfg_date"`
	ExpDate      time.Time       `json:"exp_date"`
	BuyingDate   time.Time       `json:"buying_date"`
	MRP          decimal.Decimal `json:"mrp"`
	Discount     decimal.Decimal `json:"discount"`
	SellerID     string          `json:"seller_id,omitempty"`
	SellerName   string          `json:"seller_name,omitempty"`
	Quantity     int64           `json:"quantity"`
	Type         string          `json:"type"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// MedicinePatch names the fields an edit may change. Identifier, owner
// and creation timestamp stay store-managed.
type MedicinePatch struct {
	BatchNo      *string          `json:"batch_no,omitempty"`
	Name         *string          `json:"name,omitempty"`
	Manufacturer *string          `json:"manufacturer,omitempty"`
	Category     *string          `json:"category,omitempty"`
	MfgDate      *time.Time       `json:"mfg_date,omitempty"`
	ExpDate      *time.Time       `json:"exp_date,omitempty"`
	BuyingDate   *time.Time       `json:"buying_date,omitempty"`
	MRP          *decimal.Decimal `json:"mrp,omitempty"`
	Discount     *decimal.Decimal `json:"discount,omitempty"`
	SellerID     *string          `json:"seller_id,omitempty"`
	SellerName   *string          `json:"seller_name,omitempty"`
	Quantity     *int64           `json:"quantity,omitempty"`
	Type         *string          `json:"type,omitempty"`
}

// Apply merges the patch into a copy of the medicine and returns it. The
// caller refreshes UpdatedAt.
func (p MedicinePatch) Apply(m Medicine) Medicine {
	if p.BatchNo != nil {
		m.BatchNo = *p.BatchNo
	}
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.Manufacturer != nil {
		m.Manufacturer = *p.Manufacturer
	}
	if p.Category != nil {
		m.Category = *p.Category
	}
	if p.MfgDate != nil {
		m.MfgDate = *p.MfgDate
	}
	if p.ExpDate != nil {
		m.ExpDate = *p.ExpDate
	}
	if p.BuyingDate != nil {
		m.BuyingDate = *p.BuyingDate
	}
	if p.MRP != nil {
		m.MRP = *p.MRP
	}
	if p.Discount != nil {
		m.Discount = *p.Discount
	}
	if p.SellerID != nil {
		m.SellerID = *p.SellerID
	}
	if p.SellerName != nil {
		m.SellerName = *p.SellerName
	}
	if p.Quantity != nil {
		m.Quantity = *p.Quantity
	}
	if p.Type != nil {
		m.Type = *p.Type
	}
	return m
}

// DaysUntilExpiry returns the number of whole days between today and the
// expiry date, comparing calendar dates in UTC. Negative means expired.
func (m Medicine) DaysUntilExpiry(today time.Time) int {
	exp := time.Date(m.ExpDate.Year(), m.ExpDate.Month(), m.ExpDate.Day(), 0, 0, 0, 0, time.UTC)
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	return int(exp.Sub(day) / (24 * time.Hour))
}

// ExpiryStatusOn classifies the medicine relative to today: expired when
// the expiry date has passed, expiring soon within ExpiryWindowDays
// (inclusive), good otherwise.
func (m Medicine) ExpiryStatusOn(today time.Time) ExpiryStatus {
	days := m.DaysUntilExpiry(today)
	switch {
	case days < 0:
		return ExpiryPast
	case days <= ExpiryWindowDays:
		return ExpirySoon
	default:
		return ExpiryGood
	}
}
