package store

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"medistock/m/domain"
	"medistock/m/internal/id"
)

// taxRate is the fixed point-of-sale tax applied to every checkout.
var taxRate = decimal.NewFromFloat(0.05)

// CartLine references a medicine and how many units of it to sell.
type CartLine struct {
	MedicineID string `json:"medicine_id"`
	Quantity   int64  `json:"quantity"`
}

// Cart is the checkout input: who is buying and what.
type Cart struct {
	CustomerName  string     `json:"customer_name"`
	CustomerPhone string     `json:"customer_phone"`
	CustomerEmail string     `json:"customer_email,omitempty"`
	Lines         []CartLine `json:"lines"`
}

// AddSale appends a pre-assembled sale owned by the session user. The
// caller is responsible for stock having already been decremented;
// Checkout is the safe path for a live cart.
func (s *Store) AddSale(sess *Session, sale domain.Sale) (domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner, err := s.requireSession(sess)
	if err != nil {
		return domain.Sale{}, err
	}
	sale.ID = id.New()
	sale.OwnerID = owner.ID
	sale.CreatedAt = time.Now().UTC()

	next := append(slices.Clone(s.sales), sale)
	if err := s.persist(keySales, next); err != nil {
		return domain.Sale{}, err
	}
	s.sales = next
	return sale, nil
}

// GetSales lists the session user's sales in creation order.
func (s *Store) GetSales(sess *Session) ([]domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner, err := s.requireSession(sess)
	if err != nil {
		return nil, err
	}
	out := []domain.Sale{}
	for _, sale := range s.sales {
		if sale.OwnerID == owner.ID {
			out = append(out, sale)
		}
	}
	return out, nil
}

// AddCustomer creates a customer record owned by the session user.
func (s *Store) AddCustomer(sess *Session, name, phone, email string) (domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner, err := s.requireSession(sess)
	if err != nil {
		return domain.Customer{}, err
	}
	customer, err := newCustomer(owner.ID, name, phone, email)
	if err != nil {
		return domain.Customer{}, err
	}

	next := append(slices.Clone(s.customers), customer)
	if err := s.persist(keyCustomers, next); err != nil {
		return domain.Customer{}, err
	}
	s.customers = next
	return customer, nil
}

// GetCustomers lists the session user's customers in creation order.
func (s *Store) GetCustomers(sess *Session) ([]domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner, err := s.requireSession(sess)
	if err != nil {
		return nil, err
	}
	out := []domain.Customer{}
	for _, c := range s.customers {
		if c.OwnerID == owner.ID {
			out = append(out, c)
		}
	}
	return out, nil
}

func newCustomer(ownerID, name, phone, email string) (domain.Customer, error) {
	if strings.TrimSpace(name) == "" {
		return domain.Customer{}, &ValidationError{Field: "customer_name", Reason: "is required"}
	}
	if strings.TrimSpace(phone) == "" {
		return domain.Customer{}, &ValidationError{Field: "customer_phone", Reason: "is required"}
	}
	return domain.Customer{
		ID:        id.New(),
		OwnerID:   ownerID,
		Name:      name,
		Phone:     phone,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Checkout sells a cart in one atomic step: it merges duplicate lines,
// re-validates stock against the current records, decrements
// quantities, finds or creates the customer by phone, and appends the
// sale with a 5% tax on the subtotal. Nothing is committed unless every
// line clears and every collection persists.
func (s *Store) Checkout(sess *Session, cart Cart) (domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner, err := s.requireSession(sess)
	if err != nil {
		return domain.Sale{}, err
	}
	if len(cart.Lines) == 0 {
		return domain.Sale{}, &ValidationError{Field: "lines", Reason: "cart is empty"}
	}
	if strings.TrimSpace(cart.CustomerName) == "" {
		return domain.Sale{}, &ValidationError{Field: "customer_name", Reason: "is required"}
	}
	if strings.TrimSpace(cart.CustomerPhone) == "" {
		return domain.Sale{}, &ValidationError{Field: "customer_phone", Reason: "is required"}
	}
	// Every line must be positive on its own; merging repeated medicine
	// ids could otherwise cancel a bad line against a good one.
	for _, line := range cart.Lines {
		if line.Quantity <= 0 {
			return domain.Sale{}, &ValidationError{Field: "quantity", Reason: "must be positive"}
		}
	}

	lines := mergeLines(cart.Lines)

	// Resolve every line against current stock before touching anything.
	medicines := slices.Clone(s.medicines)
	items := make([]domain.SaleItem, 0, len(lines))
	subtotal := decimal.Zero
	now := time.Now().UTC()
	for _, line := range lines {
		idx := -1
		for i, m := range medicines {
			if m.ID == line.MedicineID && m.OwnerID == owner.ID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return domain.Sale{}, ErrNotFound
		}
		med := medicines[idx]
		if med.Quantity < line.Quantity {
			return domain.Sale{}, ErrInsufficientStock
		}
		med.Quantity -= line.Quantity
		med.UpdatedAt = now
		medicines[idx] = med

		lineTotal := med.MRP.Mul(decimal.NewFromInt(line.Quantity))
		items = append(items, domain.SaleItem{
			MedicineID:   med.ID,
			MedicineName: med.Name,
			BatchNo:      med.BatchNo,
			Quantity:     line.Quantity,
			UnitPrice:    med.MRP,
			LineTotal:    lineTotal,
		})
		subtotal = subtotal.Add(lineTotal)
	}

	customers := s.customers
	customer, found := s.findCustomer(owner.ID, cart.CustomerPhone)
	if !found {
		customer, err = newCustomer(owner.ID, cart.CustomerName, cart.CustomerPhone, cart.CustomerEmail)
		if err != nil {
			return domain.Sale{}, err
		}
		customers = append(slices.Clone(s.customers), customer)
	}

	tax := subtotal.Mul(taxRate)
	sale := domain.Sale{
		ID:            id.New(),
		OwnerID:       owner.ID,
		CustomerID:    customer.ID,
		CustomerName:  cart.CustomerName,
		CustomerPhone: cart.CustomerPhone,
		Items:         items,
		TotalAmount:   subtotal.Add(tax),
		Tax:           tax,
		CreatedAt:     now,
	}
	sales := append(slices.Clone(s.sales), sale)

	if err := s.persist(keyMedicines, medicines); err != nil {
		return domain.Sale{}, err
	}
	if err := s.persist(keyCustomers, customers); err != nil {
		return domain.Sale{}, err
	}
	if err := s.persist(keySales, sales); err != nil {
		return domain.Sale{}, err
	}
	s.medicines = medicines
	s.customers = customers
	s.sales = sales
	return sale, nil
}

// mergeLines folds repeated medicine ids into one line each, keeping
// first-seen order.
func mergeLines(lines []CartLine) []CartLine {
	merged := make([]CartLine, 0, len(lines))
	index := make(map[string]int, len(lines))
	for _, line := range lines {
		if i, ok := index[line.MedicineID]; ok {
			merged[i].Quantity += line.Quantity
			continue
		}
		index[line.MedicineID] = len(merged)
		merged = append(merged, line)
	}
	return merged
}

func (s *Store) findCustomer(ownerID, phone string) (domain.Customer, bool) {
	for _, c := range s.customers {
		if c.OwnerID == ownerID && c.Phone == phone {
			return c, true
		}
	}
	return domain.Customer{}, false
}
