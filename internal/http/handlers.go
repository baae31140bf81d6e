package http

import (
	"encoding/json"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/sarawakparks/park-reservations/internal/booking"
	"github.com/sarawakparks/park-reservations/internal/config"
	"github.com/sarawakparks/park-reservations/internal/domain"
	"github.com/sarawakparks/park-reservations/internal/idempotency"
	"github.com/sarawakparks/park-reservations/internal/observability"
)

type Handlers struct {
	cfg    *config.Config
	svc    *booking.Service
	idemp  *idempotency.Idempotency
	logger observability.Logger
}

func NewHandlers(cfg *config.Config, svc *booking.Service, idemp *idempotency.Idempotency, logger observability.Logger) *Handlers {
	return &Handlers{cfg: cfg, svc: svc, idemp: idemp, logger: logger}
}

type parkResp struct {
	ParkID      string   `json:"park_id"`
	Name        string   `json:"name"`
	Location    string   `json:"location"`
	Description string   `json:"description,omitempty"`
	MaxCapacity int      `json:"max_capacity"`
	TicketPrice *float64 `json:"ticket_price,omitempty"`
}

type merchResp struct {
	SKU           string  `json:"sku"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	StockQuantity int     `json:"stock_quantity"`
}

type lineResp struct {
	Type      domain.LineItemType `json:"type"`
	Name      string              `json:"name"`
	Quantity  int                 `json:"quantity"`
	UnitPrice float64             `json:"unit_price"`
	ParkID    string              `json:"park_id,omitempty"`
	VisitDate string              `json:"visit_date,omitempty"`
	SKU       string              `json:"sku,omitempty"`
	TicketIDs []string            `json:"ticket_ids,omitempty"`
}

type ticketResp struct {
	TicketID  string  `json:"ticket_id"`
	ParkID    string  `json:"park_id"`
	ParkName  string  `json:"park_name"`
	VisitDate string  `json:"visit_date"`
	Price     float64 `json:"price"`
	Status    string  `json:"status"`
	QRCode    string  `json:"qr_code"`
}

func toParkResp(p domain.Park) parkResp {
	return parkResp{
		ParkID:      p.ID,
		Name:        p.Name,
		Location:    p.Location,
		Description: p.Description,
		MaxCapacity: p.MaxCapacity,
		TicketPrice: p.TicketPrice,
	}
}

func toLineResps(lines []domain.LineItem) []lineResp {
	out := make([]lineResp, len(lines))
	for i, l := range lines {
		out[i] = lineResp{
			Type:      l.Type,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			ParkID:    l.ParkID,
			VisitDate: l.VisitDate,
			SKU:       l.SKU,
			TicketIDs: l.TicketIDs,
		}
	}
	return out
}

func toTicketResp(t domain.Ticket) ticketResp {
	return ticketResp{
		TicketID:  t.ID,
		ParkID:    t.ParkID,
		ParkName:  t.ParkName,
		VisitDate: t.VisitDate,
		Price:     t.Price,
		Status:    string(t.Status),
		QRCode:    t.QRCode,
	}
}

// principal extracts the authenticated identity the auth collaborator
// attached upstream. Credentials themselves are not validated here.
func principal(r *http.Request) (domain.Principal, bool) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		return domain.Principal{}, false
	}
	return domain.Principal{UserID: userID, Name: r.Header.Get("X-User-Name")}, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	var lineErr *booking.LineError
	if errors.As(err, &lineErr) {
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"error":      lineErr.Err.Error(),
			"line_index": lineErr.Index,
			"line_type":  lineErr.Line.Type,
			"line_name":  lineErr.Line.Name,
		})
		return
	}
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrCapacityExceeded), errors.Is(err, domain.ErrInsufficientStock):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrRefundDenied):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidState):
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (h *Handlers) ListParks(w http.ResponseWriter, r *http.Request) {
	parks, err := h.svc.Parks(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]parkResp, len(parks))
	for i, p := range parks {
		out[i] = toParkResp(p)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"parks": out})
}

func (h *Handlers) Availability(w http.ResponseWriter, r *http.Request) {
	parkID := chi.URLParam(r, "id")
	visitDate := r.URL.Query().Get("date")
	remaining, err := h.svc.Availability(r.Context(), parkID, visitDate)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"park_id":    parkID,
		"visit_date": visitDate,
		"remaining":  remaining,
	})
}

func (h *Handlers) ListMerchandise(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Merchandise(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]merchResp, len(items))
	for i, m := range items {
		out[i] = merchResp{SKU: m.SKU, Name: m.Name, Price: m.Price, StockQuantity: m.StockQuantity}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"merchandise": out})
}

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(r)
	if !ok {
		http.Error(w, "missing principal", http.StatusUnauthorized)
		return
	}
	cart, err := h.svc.Cart(r.Context(), user.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_id": cart.UserID,
		"items":   toLineResps(cart.Items),
		"total":   cart.Total(),
	})
}

func (h *Handlers) AddCartItem(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(r)
	if !ok {
		http.Error(w, "missing principal", http.StatusUnauthorized)
		return
	}
	var req struct {
		Type      domain.LineItemType `json:"type"`
		ParkID    string              `json:"park_id"`
		VisitDate string              `json:"visit_date"`
		SKU       string              `json:"sku"`
		Quantity  int                 `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var err error
	switch req.Type {
	case domain.LineTicket:
		err = h.svc.AddTicketLine(r.Context(), user, req.ParkID, req.VisitDate, req.Quantity)
	case domain.LineMerch:
		err = h.svc.AddMerchLine(r.Context(), user, req.SKU, req.Quantity)
	default:
		http.Error(w, "unknown line item type", http.StatusBadRequest)
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(r)
	if !ok {
		http.Error(w, "missing principal", http.StatusUnauthorized)
		return
	}
	if err := h.svc.ClearCart(r.Context(), user); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Checkout is confirm-then-commit: one request commits the whole
// cart, no further prompts. Responses are replayed for a repeated
// Idempotency-Key, and the key is reserved for the duration of the
// attempt so two concurrent submissions cannot both commit.
func (h *Handlers) Checkout(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(r)
	if !ok {
		http.Error(w, "missing principal", http.StatusUnauthorized)
		return
	}
	key := r.Header.Get("Idempotency-Key")
	existing, err := h.idemp.Get(r.Context(), key)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if existing != nil {
		h.replay(w, existing)
		return
	}

	acquired, err := h.idemp.Begin(r.Context(), key)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !acquired {
		// Another attempt holds this key; it may have just finished.
		stored, err := h.idemp.Get(r.Context(), key)
		if err == nil && stored != nil {
			h.replay(w, stored)
			return
		}
		http.Error(w, "checkout with this Idempotency-Key is in progress", http.StatusConflict)
		return
	}

	order, err := h.svc.Checkout(r.Context(), user)
	if err != nil {
		if aerr := h.idemp.Abort(r.Context(), key); aerr != nil {
			h.logger.WithField("idempotency_key", key).Error("failed to release idempotency reservation", aerr)
		}
		writeError(w, err)
		return
	}

	data, _ := json.Marshal(map[string]interface{}{
		"order_id":       order.ID,
		"total_cost":     order.TotalCost,
		"payment_status": order.PaymentStatus,
		"lines":          toLineResps(order.Lines),
	})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	w.Write(data)

	if err := h.idemp.Finish(r.Context(), key, idempotency.Response{Status: http.StatusCreated, Result: data}); err != nil {
		h.logger.WithField("idempotency_key", key).Error("failed to store idempotent checkout response", err)
	}
}

func (h *Handlers) replay(w http.ResponseWriter, resp *idempotency.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Status)
	w.Write(resp.Result)
}

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.svc.Order(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"order_id":       order.ID,
		"user_id":        order.UserID,
		"date":           order.Date,
		"total_cost":     order.TotalCost,
		"payment_status": order.PaymentStatus,
		"lines":          toLineResps(order.Lines),
	})
}

func (h *Handlers) ListTickets(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(r)
	if !ok {
		http.Error(w, "missing principal", http.StatusUnauthorized)
		return
	}
	status := domain.TicketStatus(r.URL.Query().Get("status"))
	tickets, err := h.svc.TicketsFor(r.Context(), user.UserID, status)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]ticketResp, len(tickets))
	for i, tk := range tickets {
		out[i] = toTicketResp(tk)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tickets": out})
}

func (h *Handlers) RefundTicket(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(r)
	if !ok {
		http.Error(w, "missing principal", http.StatusUnauthorized)
		return
	}
	if err := h.svc.RefundTicket(r.Context(), user, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "refunded"})
}

func (h *Handlers) CancelTicket(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(r)
	if !ok {
		http.Error(w, "missing principal", http.StatusUnauthorized)
		return
	}
	if err := h.svc.CancelWithoutRefund(r.Context(), user, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (h *Handlers) RescheduleTicket(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(r)
	if !ok {
		http.Error(w, "missing principal", http.StatusUnauthorized)
		return
	}
	var req struct {
		VisitDate string `json:"visit_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.svc.RescheduleTicket(r.Context(), user, chi.URLParam(r, "id"), req.VisitDate); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "rescheduled"})
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Ready"))
}
