package booking

import (
	"context"

	"github.com/sarawakparks/park-reservations/internal/domain"
)

// CapacityStore is the persistence boundary for park capacity. TryBook
// is the single-shot compare-and-increment protocol: it never retries
// internally; contention surfaces as BookingCapacityExceeded and the
// caller decides whether to try again.
type CapacityStore interface {
	GetPark(ctx context.Context, parkID string) (*domain.Park, error)
	ListParks(ctx context.Context) ([]domain.Park, error)
	// EnsureSchedule lazily creates a zero-occupancy schedule for the
	// date. Reports whether a schedule was created.
	EnsureSchedule(ctx context.Context, parkID, visitDate string) (bool, error)
	TryBook(ctx context.Context, parkID, visitDate string, qty int) (domain.BookOutcome, error)
	// DecrementOccupancy releases qty units, floored at zero. Not
	// CAS-protected: a decrement can never violate the capacity
	// invariant.
	DecrementOccupancy(ctx context.Context, parkID, visitDate string, qty int) error
}

type MerchStore interface {
	GetBySKU(ctx context.Context, sku string) (*domain.Merchandise, error)
	List(ctx context.Context) ([]domain.Merchandise, error)
	// DecrementStock conditionally takes qty units off the shelf,
	// failing with domain.ErrInsufficientStock when short.
	DecrementStock(ctx context.Context, sku string, qty int) error
}

type TicketStore interface {
	Insert(ctx context.Context, t domain.Ticket) error
	Get(ctx context.Context, ticketID string) (*domain.Ticket, error)
	FindByOwner(ctx context.Context, ownerID string, status domain.TicketStatus) ([]domain.Ticket, error)
	SetStatus(ctx context.Context, ticketID string, status domain.TicketStatus) error
	SetVisitDate(ctx context.Context, ticketID, visitDate string) error
}

type OrderStore interface {
	Insert(ctx context.Context, o domain.Order) error
	Get(ctx context.Context, orderID string) (*domain.Order, error)
}

// CartStore persists cart snapshots so a cart survives session
// restarts. Get returns an empty cart when none is saved.
type CartStore interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) error
	Delete(ctx context.Context, userID string) error
}

// Auditor records fire-and-forget audit entries. Implementations must
// swallow their own failures; auditing never blocks an operation.
type Auditor interface {
	Record(ctx context.Context, actor, category, action string)
}

// EventPublisher emits fire-and-forget domain events. Same contract
// as Auditor: failures are logged, never propagated.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload map[string]interface{})
}
