package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale is an immutable checkout record. Customer name and phone are
// denormalized so the receipt survives later customer edits, and each
// line item snapshots the medicine's identity and price at sale time.
type Sale struct {
	ID            string          `json:"id"`
	OwnerID       string          `json:"owner_id"`
	CustomerID    string          `json:"customer_id"`
	CustomerName  string          `json:"customer_name"`
	CustomerPhone string          `json:"customer_phone"`
	Items         []SaleItem      `json:"items"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Tax           decimal.Decimal `json:"tax"`
	CreatedAt     time.Time       `json:"created_at"`
}

type SaleItem struct {
	MedicineID   string          `json:"medicine_id"`
	MedicineName string          `json:"medicine_name"`
	BatchNo      string          `json:"batch_no"`
	Quantity     int64           `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	LineTotal    decimal.Decimal `json:"line_total"`
}

// UnitsSold sums the quantities across all line items.
func (s Sale) UnitsSold() int64 {
	var units int64
	for _, item := range s.Items {
		units += item.Quantity
	}
	return units
}
