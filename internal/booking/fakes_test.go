package booking

import (
	"context"
	"fmt"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/sarawakparks/park-reservations/internal/domain"
)

// fakeCapacityStore reproduces the store-level guarantee the real
// adapter relies on: each document update is serialized, so every
// TryBook observes a definite occupancy at its commit point.
type fakeCapacityStore struct {
	mu    sync.Mutex
	parks map[string]*domain.Park
}

func newFakeCapacityStore(parks ...domain.Park) *fakeCapacityStore {
	s := &fakeCapacityStore{parks: make(map[string]*domain.Park)}
	for i := range parks {
		p := parks[i]
		s.parks[p.ID] = &p
	}
	return s
}

func copyPark(p *domain.Park) *domain.Park {
	cp := *p
	cp.Schedules = append([]domain.Schedule(nil), p.Schedules...)
	return &cp
}

func (s *fakeCapacityStore) GetPark(ctx context.Context, parkID string) (*domain.Park, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.parks[parkID]
	if !ok {
		return nil, errors.Wrapf(domain.ErrNotFound, "park %s", parkID)
	}
	return copyPark(p), nil
}

func (s *fakeCapacityStore) ListParks(ctx context.Context) ([]domain.Park, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Park
	for _, p := range s.parks {
		out = append(out, *copyPark(p))
	}
	return out, nil
}

func (s *fakeCapacityStore) EnsureSchedule(ctx context.Context, parkID, visitDate string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.parks[parkID]
	if !ok {
		return false, errors.Wrapf(domain.ErrNotFound, "park %s", parkID)
	}
	if p.FindSchedule(visitDate) != nil {
		return false, nil
	}
	p.Schedules = append(p.Schedules, domain.Schedule{VisitDate: visitDate})
	return true, nil
}

func (s *fakeCapacityStore) TryBook(ctx context.Context, parkID, visitDate string, qty int) (domain.BookOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.parks[parkID]
	if !ok {
		return domain.BookingNotFound, nil
	}
	sched := p.FindSchedule(visitDate)
	if sched == nil {
		return domain.BookingNotFound, nil
	}
	if sched.CurrentOccupancy+qty > p.MaxCapacity {
		return domain.BookingCapacityExceeded, nil
	}
	sched.CurrentOccupancy += qty
	return domain.BookingSucceeded, nil
}

func (s *fakeCapacityStore) DecrementOccupancy(ctx context.Context, parkID, visitDate string, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.parks[parkID]
	if !ok {
		return errors.Wrapf(domain.ErrNotFound, "park %s", parkID)
	}
	sched := p.FindSchedule(visitDate)
	if sched == nil {
		return errors.Wrapf(domain.ErrNotFound, "schedule %s", visitDate)
	}
	sched.CurrentOccupancy -= qty
	if sched.CurrentOccupancy < 0 {
		sched.CurrentOccupancy = 0
	}
	return nil
}

func (s *fakeCapacityStore) occupancy(parkID, visitDate string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sched := s.parks[parkID].FindSchedule(visitDate); sched != nil {
		return sched.CurrentOccupancy
	}
	return 0
}

type fakeMerchStore struct {
	mu    sync.Mutex
	items map[string]*domain.Merchandise
}

func newFakeMerchStore(items ...domain.Merchandise) *fakeMerchStore {
	s := &fakeMerchStore{items: make(map[string]*domain.Merchandise)}
	for i := range items {
		m := items[i]
		s.items[m.SKU] = &m
	}
	return s
}

func (s *fakeMerchStore) GetBySKU(ctx context.Context, sku string) (*domain.Merchandise, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.items[sku]
	if !ok {
		return nil, errors.Wrapf(domain.ErrNotFound, "merchandise %s", sku)
	}
	cp := *m
	return &cp, nil
}

func (s *fakeMerchStore) List(ctx context.Context) ([]domain.Merchandise, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Merchandise
	for _, m := range s.items {
		out = append(out, *m)
	}
	return out, nil
}

func (s *fakeMerchStore) DecrementStock(ctx context.Context, sku string, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.items[sku]
	if !ok {
		return errors.Wrapf(domain.ErrNotFound, "merchandise %s", sku)
	}
	if m.StockQuantity < qty {
		return errors.Wrapf(domain.ErrInsufficientStock, "merchandise %s", sku)
	}
	m.StockQuantity -= qty
	return nil
}

func (s *fakeMerchStore) stock(sku string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[sku].StockQuantity
}

type fakeTicketStore struct {
	mu      sync.Mutex
	tickets map[string]domain.Ticket
}

func newFakeTicketStore() *fakeTicketStore {
	return &fakeTicketStore{tickets: make(map[string]domain.Ticket)}
}

func (s *fakeTicketStore) Insert(ctx context.Context, t domain.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tickets[t.ID]; exists {
		return fmt.Errorf("duplicate ticket id %s", t.ID)
	}
	s.tickets[t.ID] = t
	return nil
}

func (s *fakeTicketStore) Get(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[ticketID]
	if !ok {
		return nil, errors.Wrapf(domain.ErrNotFound, "ticket %s", ticketID)
	}
	return &t, nil
}

func (s *fakeTicketStore) FindByOwner(ctx context.Context, ownerID string, status domain.TicketStatus) ([]domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Ticket
	for _, t := range s.tickets {
		if t.OwnerID != ownerID {
			continue
		}
		if status != "" && t.Status != status {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *fakeTicketStore) SetStatus(ctx context.Context, ticketID string, status domain.TicketStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[ticketID]
	if !ok {
		return errors.Wrapf(domain.ErrNotFound, "ticket %s", ticketID)
	}
	t.Status = status
	s.tickets[ticketID] = t
	return nil
}

func (s *fakeTicketStore) SetVisitDate(ctx context.Context, ticketID, visitDate string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[ticketID]
	if !ok {
		return errors.Wrapf(domain.ErrNotFound, "ticket %s", ticketID)
	}
	t.VisitDate = visitDate
	s.tickets[ticketID] = t
	return nil
}

func (s *fakeTicketStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tickets)
}

type fakeOrderStore struct {
	mu     sync.Mutex
	orders []domain.Order
}

func (s *fakeOrderStore) Insert(ctx context.Context, o domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = append(s.orders, o)
	return nil
}

func (s *fakeOrderStore) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.orders {
		if s.orders[i].ID == orderID {
			return &s.orders[i], nil
		}
	}
	return nil, errors.Wrapf(domain.ErrNotFound, "order %s", orderID)
}

func (s *fakeOrderStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

type fakeCartStore struct {
	mu    sync.Mutex
	carts map[string][]domain.LineItem
}

func newFakeCartStore() *fakeCartStore {
	return &fakeCartStore{carts: make(map[string][]domain.LineItem)}
}

func (s *fakeCartStore) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &domain.Cart{
		UserID: userID,
		Items:  append([]domain.LineItem(nil), s.carts[userID]...),
	}, nil
}

func (s *fakeCartStore) Save(ctx context.Context, cart *domain.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[cart.UserID] = append([]domain.LineItem(nil), cart.Items...)
	return nil
}

func (s *fakeCartStore) Delete(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, userID)
	return nil
}

type recordingAuditor struct {
	mu      sync.Mutex
	entries []string
}

func (a *recordingAuditor) Record(ctx context.Context, actor, category, action string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, category+": "+action)
}

type recordingEvents struct {
	mu   sync.Mutex
	keys []string
}

func (e *recordingEvents) Publish(ctx context.Context, routingKey string, payload map[string]interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.keys = append(e.keys, routingKey)
}
