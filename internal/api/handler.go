package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"

	"medistock/m/domain"
	"medistock/m/internal/store"
)

type ctxKey string

const ctxSession ctxKey = "session"

const dateLayout = "2006-01-02"

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	store  *store.Store
	secret string
}

// New constructs a Handler.
func New(st *store.Store, secret string) *Handler {
	return &Handler{store: st, secret: secret}
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/login", h.login)
		r.Group(func(protected chi.Router) {
			protected.Use(h.authMiddleware)
			protected.Post("/logout", h.logout)
			protected.Post("/reset-password", h.resetPassword)
		})
	})

	r.Group(func(pr chi.Router) {
		pr.Use(h.authMiddleware)

		pr.Get("/profile", h.getProfile)
		pr.Put("/profile", h.updateProfile)

		pr.Route("/medicines", func(r chi.Router) {
			r.Post("/", h.addMedicine)
			r.Get("/", h.listMedicines)
			r.Put("/{id}", h.updateMedicine)
			r.Delete("/{id}", h.deleteMedicine)
			r.Get("/expiry-alert", h.expiryAlerts)
		})

		pr.Route("/sales", func(r chi.Router) {
			r.Post("/", h.createSale)
			r.Get("/", h.listSales)
		})

		pr.Get("/customers", h.listCustomers)

		pr.Route("/reports", func(r chi.Router) {
			r.Get("/dashboard", h.dashboard)
			r.Get("/summary", h.reportSummary)
		})
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Authentication helpers

type authClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

func (h *Handler) generateToken(userID string) (string, error) {
	claims := authClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.secret))
}

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		tokenString := strings.TrimSpace(header[len("Bearer "):])
		token, err := jwt.ParseWithClaims(tokenString, &authClaims{}, func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwt.SigningMethodHS256 {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(h.secret), nil
		})
		if err != nil || !token.Valid {
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		claims, ok := token.Claims.(*authClaims)
		if !ok || claims.UserID == "" {
			respondError(w, http.StatusUnauthorized, "invalid token claims")
			return
		}
		sess := &store.Session{UserID: claims.UserID}
		ctx := context.WithValue(r.Context(), ctxSession, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFromContext(r *http.Request) *store.Session {
	if val := r.Context().Value(ctxSession); val != nil {
		if sess, ok := val.(*store.Session); ok {
			return sess
		}
	}
	return nil
}

// Auth handlers

type registerRequest struct {
	FirstName    string `json:"first_name"`
	MiddleName   string `json:"middle_name"`
	LastName     string `json:"last_name"`
	BusinessName string `json:"business_name"`
	Country      string `json:"country"`
	State        string `json:"state"`
	City         string `json:"city"`
	Street       string `json:"street"`
	Pincode      string `json:"pincode"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	AltPhone     string `json:"alt_phone"`
	GST          string `json:"gst"`
	Aadhar       string `json:"aadhar"`
	PAN          string `json:"pan"`
	DrugLicense  string `json:"drug_license"`
	Password     string `json:"password"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := h.store.RegisterUser(store.Registration{
		FirstName:    req.FirstName,
		MiddleName:   req.MiddleName,
		LastName:     req.LastName,
		BusinessName: req.BusinessName,
		Country:      req.Country,
		State:        req.State,
		City:         req.City,
		Street:       req.Street,
		Pincode:      req.Pincode,
		Email:        req.Email,
		Phone:        req.Phone,
		AltPhone:     req.AltPhone,
		GST:          req.GST,
		Aadhar:       req.Aadhar,
		PAN:          req.PAN,
		DrugLicense:  req.DrugLicense,
		Password:     req.Password,
	})
	if err != nil {
		respondStoreError(w, err)
		return
	}
	user.PasswordHash = ""
	respondJSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	_, user, err := h.store.LoginUser(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		respondStoreError(w, err)
		return
	}
	token, err := h.generateToken(user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to generate token")
		return
	}
	user.PasswordHash = ""
	respondJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.store.LogoutUser(); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		NewPassword string `json:"new_password"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.store.ChangePassword(sessionFromContext(r), payload.NewPassword); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "password updated"})
}

// Profile handlers

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.store.GetUser(sessionFromContext(r))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	user.PasswordHash = ""
	respondJSON(w, http.StatusOK, user)
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r)
	var patch domain.UserPatch
	if err := decodeJSON(r, &patch); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := h.store.UpdateUser(sess.UserID, patch)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	user.PasswordHash = ""
	respondJSON(w, http.StatusOK, user)
}

// Medicine handlers

type medicineRequest struct {
	BatchNo      string          `json:"batch_no"`
	Name         string          `json:"name"`
	Manufacturer string          `json:"manufacturer"`
	Category     string          `json:"category"`
	MfgDate      string          `json:"mfg_date"`
	ExpDate      string          `json:"exp_date"`
	BuyingDate   string          `json:"buying_date"`
	MRP          decimal.Decimal `json:"mrp"`
	Discount     decimal.Decimal `json:"discount"`
	SellerID     string          `json:"seller_id"`
	SellerName   string          `json:"seller_name"`
	Quantity     int64           `json:"quantity"`
	Type         string          `json:"type"`
}

func (h *Handler) addMedicine(w http.ResponseWriter, r *http.Request) {
	var req medicineRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	mfg, err := parseDate(req.MfgDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "mfg_date must be in YYYY-MM-DD format")
		return
	}
	exp, err := parseDate(req.ExpDate)
	if err != nil || exp.IsZero() {
		respondError(w, http.StatusBadRequest, "exp_date must be in YYYY-MM-DD format")
		return
	}
	buying, err := parseDate(req.BuyingDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "buying_date must be in YYYY-MM-DD format")
		return
	}
	med, err := h.store.AddMedicine(sessionFromContext(r), domain.Medicine{
		BatchNo:      req.BatchNo,
		Name:         req.Name,
		Manufacturer: req.Manufacturer,
		Category:     req.Category,
		MfgDate:      mfg,
		ExpDate:      exp,
		BuyingDate:   buying,
		MRP:          req.MRP,
		Discount:     req.Discount,
		SellerID:     req.SellerID,
		SellerName:   req.SellerName,
		Quantity:     req.Quantity,
		Type:         req.Type,
	})
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, med)
}

func (h *Handler) listMedicines(w http.ResponseWriter, r *http.Request) {
	medicines, err := h.store.GetMedicines(sessionFromContext(r))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, medicines)
}

type medicinePatchRequest struct {
	BatchNo      *string          `json:"batch_no"`
	Name         *string          `json:"name"`
	Manufacturer *string          `json:"manufacturer"`
	Category     *string          `json:"category"`
	MfgDate      *string          `json:"mfg_date"`
	ExpDate      *string          `json:"exp_date"`
	BuyingDate   *string          `json:"buying_date"`
	MRP          *decimal.Decimal `json:"mrp"`
	Discount     *decimal.Decimal `json:"discount"`
	SellerID     *string          `json:"seller_id"`
	SellerName   *string          `json:"seller_name"`
	Quantity     *int64           `json:"quantity"`
	Type         *string          `json:"type"`
}

func (h *Handler) updateMedicine(w http.ResponseWriter, r *http.Request) {
	var req medicinePatchRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	patch := domain.MedicinePatch{
		BatchNo:      req.BatchNo,
		Name:         req.Name,
		Manufacturer: req.Manufacturer,
		Category:     req.Category,
		MRP:          req.MRP,
		Discount:     req.Discount,
		SellerID:     req.SellerID,
		SellerName:   req.SellerName,
		Quantity:     req.Quantity,
		Type:         req.Type,
	}
	for _, field := range []struct {
		raw  *string
		dest **time.Time
		name string
	}{
		{req.MfgDate, &patch.MfgDate, "mfg_date"},
		{req.ExpDate, &patch.ExpDate, "exp_date"},
		{req.BuyingDate, &patch.BuyingDate, "buying_date"},
	} {
		if field.raw == nil {
			continue
		}
		parsed, err := time.Parse(dateLayout, *field.raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, field.name+" must be in YYYY-MM-DD format")
			return
		}
		*field.dest = &parsed
	}
	med, err := h.store.UpdateMedicine(sessionFromContext(r), chi.URLParam(r, "id"), patch)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, med)
}

func (h *Handler) deleteMedicine(w http.ResponseWriter, r *http.Request) {
	removed, err := h.store.DeleteMedicine(sessionFromContext(r), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if !removed {
		respondError(w, http.StatusNotFound, "medicine not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) expiryAlerts(w http.ResponseWriter, r *http.Request) {
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	items, err := h.store.ExpiringWithin(sessionFromContext(r), time.Now().UTC(), days)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

// Sales handlers

func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	var cart store.Cart
	if err := decodeJSON(r, &cart); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	sale, err := h.store.Checkout(sessionFromContext(r), cart)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, sale)
}

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	sales, err := h.store.GetSales(sessionFromContext(r))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sales)
}

// Customer handlers

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.store.CustomerSummaries(sessionFromContext(r))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, customers)
}

// Reports

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := h.store.Dashboard(sessionFromContext(r), time.Now().UTC())
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (h *Handler) reportSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.store.Report(sessionFromContext(r), time.Now().UTC())
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// Helpers

func parseDate(val string) (time.Time, error) {
	if strings.TrimSpace(val) == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, val)
}

func respondStoreError(w http.ResponseWriter, err error) {
	var verr *store.ValidationError
	switch {
	case errors.As(err, &verr):
		respondError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, store.ErrNoSession):
		respondError(w, http.StatusUnauthorized, "no active session")
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, "record not found")
	case errors.Is(err, store.ErrDuplicateEmail):
		respondError(w, http.StatusConflict, "email already exists")
	case errors.Is(err, store.ErrInsufficientStock):
		respondError(w, http.StatusConflict, "insufficient stock")
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, dest interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
