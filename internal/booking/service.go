package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sarawakparks/park-reservations/internal/domain"
	"github.com/sarawakparks/park-reservations/internal/observability"
	"golang.org/x/sync/errgroup"
)

// Service is the reservation engine: it owns the advisory cart
// overlay, the checkout orchestration and the ticket lifecycle. All
// capacity writes go through the CapacityStore's single-shot
// compare-and-increment; the service never holds application locks.
type Service struct {
	parks   CapacityStore
	merch   MerchStore
	tickets TicketStore
	orders  OrderStore
	carts   CartStore
	audit   Auditor
	events  EventPublisher
	refunds RefundPolicy
	logger  observability.Logger
}

func NewService(
	parks CapacityStore,
	merch MerchStore,
	tickets TicketStore,
	orders OrderStore,
	carts CartStore,
	audit Auditor,
	events EventPublisher,
	refunds RefundPolicy,
	logger observability.Logger,
) *Service {
	return &Service{
		parks:   parks,
		merch:   merch,
		tickets: tickets,
		orders:  orders,
		carts:   carts,
		audit:   audit,
		events:  events,
		refunds: refunds,
		logger:  logger,
	}
}

// LineError reports which checkout line failed. Lines before Index
// are already committed and stay committed; lines after it were never
// attempted.
type LineError struct {
	Index int
	Line  domain.LineItem
	Err   error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("checkout line %d (%s %q): %v", e.Index+1, e.Line.Type, e.Line.Name, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

func (s *Service) Parks(ctx context.Context) ([]domain.Park, error) {
	return s.parks.ListParks(ctx)
}

func (s *Service) Merchandise(ctx context.Context) ([]domain.Merchandise, error) {
	return s.merch.List(ctx)
}

// Availability returns how many spots remain for a park+date from the
// persisted occupancy alone. A missing schedule counts as empty.
func (s *Service) Availability(ctx context.Context, parkID, visitDate string) (int, error) {
	if _, err := domain.ParseVisitDate(visitDate); err != nil {
		return 0, errors.Wrapf(domain.ErrInvalidState, "bad visit date %q", visitDate)
	}
	park, err := s.parks.GetPark(ctx, parkID)
	if err != nil {
		return 0, err
	}
	occupancy := 0
	if sched := park.FindSchedule(visitDate); sched != nil {
		occupancy = sched.CurrentOccupancy
	}
	return domain.Remaining(occupancy, park.MaxCapacity), nil
}

func (s *Service) Cart(ctx context.Context, userID string) (*domain.Cart, error) {
	return s.carts.Get(ctx, userID)
}

func (s *Service) ClearCart(ctx context.Context, user domain.Principal) error {
	return s.carts.Delete(ctx, user.UserID)
}

// AddTicketLine stages a ticket reservation in the cart after the
// advisory overlay check: the oracle sees the requested quantity plus
// what this cart already holds for the same park+date, against the
// persisted occupancy. Nothing is committed at the capacity store.
func (s *Service) AddTicketLine(ctx context.Context, user domain.Principal, parkID, visitDate string, qty int) error {
	if qty <= 0 {
		return errors.Wrap(domain.ErrInvalidState, "quantity must be positive")
	}
	if err := s.requireFutureDate(visitDate); err != nil {
		return err
	}

	park, err := s.parks.GetPark(ctx, parkID)
	if err != nil {
		return err
	}
	if park.TicketPrice == nil {
		return errors.Wrapf(domain.ErrInvalidState, "ticket price for %s is not set", park.Name)
	}

	created, err := s.parks.EnsureSchedule(ctx, parkID, visitDate)
	if err != nil {
		return err
	}
	if created {
		s.audit.Record(ctx, user.Name, "SYSTEM", fmt.Sprintf("Auto-created schedule %s for %s", visitDate, parkID))
	}

	occupancy := 0
	if sched := park.FindSchedule(visitDate); sched != nil {
		occupancy = sched.CurrentOccupancy
	}

	cart, err := s.carts.Get(ctx, user.UserID)
	if err != nil {
		return err
	}
	reserved := cart.ReservedTickets(parkID, visitDate)
	if !domain.IsAvailable(qty+reserved, occupancy, park.MaxCapacity) {
		remaining := domain.Remaining(occupancy+reserved, park.MaxCapacity)
		return errors.Wrapf(domain.ErrCapacityExceeded,
			"only %d spot(s) remain for %s considering your cart", remaining, visitDate)
	}

	cart.Add(domain.LineItem{
		Type:      domain.LineTicket,
		Name:      park.Name,
		Quantity:  qty,
		UnitPrice: *park.TicketPrice,
		ParkID:    park.ID,
		VisitDate: visitDate,
	})
	return s.carts.Save(ctx, cart)
}

// AddMerchLine stages a merchandise purchase, rejecting quantities the
// shelf cannot cover once in-cart quantities for the SKU are counted.
func (s *Service) AddMerchLine(ctx context.Context, user domain.Principal, sku string, qty int) error {
	if qty <= 0 {
		return errors.Wrap(domain.ErrInvalidState, "quantity must be positive")
	}
	item, err := s.merch.GetBySKU(ctx, sku)
	if err != nil {
		return err
	}
	cart, err := s.carts.Get(ctx, user.UserID)
	if err != nil {
		return err
	}
	inCart := cart.ReservedMerch(sku)
	if item.StockQuantity < inCart+qty {
		available := item.StockQuantity - inCart
		if available < 0 {
			available = 0
		}
		return errors.Wrapf(domain.ErrInsufficientStock,
			"only %d more item(s) of %s available considering your cart", available, item.Name)
	}

	cart.Add(domain.LineItem{
		Type:      domain.LineMerch,
		Name:      item.Name,
		Quantity:  qty,
		UnitPrice: item.Price,
		SKU:       item.SKU,
	})
	return s.carts.Save(ctx, cart)
}

// Checkout commits the cart line by line, in cart order. Each line's
// own commit is atomic; the lines together are not a transaction. On
// a failed line the remaining lines are abandoned, already-committed
// lines stay committed, no order is written and the cart is kept so
// the customer can adjust it. The returned *LineError names the line.
func (s *Service) Checkout(ctx context.Context, user domain.Principal) (*domain.Order, error) {
	cart, err := s.carts.Get(ctx, user.UserID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, errors.Wrap(domain.ErrInvalidState, "cart is empty")
	}
	total := cart.Total()

	committed := make([]domain.LineItem, 0, len(cart.Items))
	for i, line := range cart.Items {
		switch line.Type {
		case domain.LineMerch:
			if err := s.merch.DecrementStock(ctx, line.SKU, line.Quantity); err != nil {
				observability.CheckoutLines.WithLabelValues("merch", "failed").Inc()
				return nil, &LineError{Index: i, Line: line, Err: err}
			}
			observability.CheckoutLines.WithLabelValues("merch", "committed").Inc()
			committed = append(committed, line)

		case domain.LineTicket:
			// Re-fetch the authoritative park; the cart may be stale.
			park, err := s.parks.GetPark(ctx, line.ParkID)
			if err != nil {
				observability.CheckoutLines.WithLabelValues("ticket", "failed").Inc()
				return nil, &LineError{Index: i, Line: line, Err: err}
			}

			outcome, err := s.parks.TryBook(ctx, line.ParkID, line.VisitDate, line.Quantity)
			if err != nil {
				return nil, &LineError{Index: i, Line: line, Err: err}
			}
			observability.BookingsTotal.WithLabelValues(outcome.String()).Inc()
			switch outcome {
			case domain.BookingCapacityExceeded:
				observability.CheckoutLines.WithLabelValues("ticket", "failed").Inc()
				return nil, &LineError{Index: i, Line: line, Err: errors.Wrapf(domain.ErrCapacityExceeded,
					"cannot book %d ticket(s) for %s on %s", line.Quantity, park.Name, line.VisitDate)}
			case domain.BookingNotFound:
				observability.CheckoutLines.WithLabelValues("ticket", "failed").Inc()
				return nil, &LineError{Index: i, Line: line, Err: errors.Wrapf(domain.ErrNotFound,
					"schedule for %s on %s", park.Name, line.VisitDate)}
			}

			// Capacity is secured; mint one ticket per unit. Each is
			// independently cancellable, so a qty-3 line yields three
			// rows. Inserts within the line can run concurrently.
			ticketIDs := make([]string, line.Quantity)
			g, gctx := errgroup.WithContext(ctx)
			for j := 0; j < line.Quantity; j++ {
				t := domain.NewTicket(user.UserID, park.ID, park.Name, line.VisitDate, line.UnitPrice)
				ticketIDs[j] = t.ID
				g.Go(func() error { return s.tickets.Insert(gctx, t) })
			}
			if err := g.Wait(); err != nil {
				return nil, &LineError{Index: i, Line: line, Err: err}
			}
			line.TicketIDs = ticketIDs
			observability.CheckoutLines.WithLabelValues("ticket", "committed").Inc()
			committed = append(committed, line)

			s.events.Publish(ctx, "booking.confirmed", map[string]interface{}{
				"park_id":    park.ID,
				"visit_date": line.VisitDate,
				"quantity":   line.Quantity,
				"ticket_ids": ticketIDs,
				"user_id":    user.UserID,
			})
		}
	}

	order := domain.NewOrder(user.UserID, committed, total)
	if err := s.orders.Insert(ctx, order); err != nil {
		return nil, err
	}
	if err := s.carts.Delete(ctx, user.UserID); err != nil {
		s.logger.WithField("user_id", user.UserID).Error("failed to clear cart after checkout", err)
	}

	s.audit.Record(ctx, user.Name, "ORDER", fmt.Sprintf("Placed order $%.2f", total))
	s.events.Publish(ctx, "order.created", map[string]interface{}{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"total":    order.TotalCost,
	})
	return &order, nil
}

func (s *Service) Order(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.orders.Get(ctx, orderID)
}

func (s *Service) TicketsFor(ctx context.Context, ownerID string, status domain.TicketStatus) ([]domain.Ticket, error) {
	return s.tickets.FindByOwner(ctx, ownerID, status)
}

// RefundTicket cancels with refund when the policy allows it. Denial
// leaves the ticket untouched; the caller may still cancel without a
// refund via CancelWithoutRefund.
func (s *Service) RefundTicket(ctx context.Context, user domain.Principal, ticketID string) error {
	ticket, err := s.ownedConfirmedTicket(ctx, user, ticketID)
	if err != nil {
		return err
	}

	ok, err := s.refunds.Refundable(ticket.VisitDate)
	if err != nil {
		return err
	}
	if !ok {
		s.audit.Record(ctx, user.Name, "PAYMENT", "Refund denied (Policy)")
		return errors.Wrapf(domain.ErrRefundDenied,
			"visit on %s is within the %s refund window", ticket.VisitDate, s.refunds.Window)
	}

	if err := s.cancel(ctx, ticket); err != nil {
		return err
	}
	s.audit.Record(ctx, user.Name, "PAYMENT", fmt.Sprintf("Refund processed $%.2f", ticket.Price))
	s.events.Publish(ctx, "ticket.cancelled", map[string]interface{}{
		"ticket_id": ticket.ID,
		"refunded":  true,
	})
	return nil
}

// CancelWithoutRefund performs the same CONFIRMED -> CANCELLED
// transition and capacity release, logged distinctly and with no
// monetary refund.
func (s *Service) CancelWithoutRefund(ctx context.Context, user domain.Principal, ticketID string) error {
	ticket, err := s.ownedConfirmedTicket(ctx, user, ticketID)
	if err != nil {
		return err
	}
	if err := s.cancel(ctx, ticket); err != nil {
		return err
	}
	s.audit.Record(ctx, user.Name, "BOOKING", fmt.Sprintf("Cancelled without refund %s", ticket.ID))
	s.events.Publish(ctx, "ticket.cancelled", map[string]interface{}{
		"ticket_id": ticket.ID,
		"refunded":  false,
	})
	return nil
}

func (s *Service) cancel(ctx context.Context, ticket *domain.Ticket) error {
	if err := s.tickets.SetStatus(ctx, ticket.ID, domain.TicketCancelled); err != nil {
		return err
	}
	if err := s.parks.DecrementOccupancy(ctx, ticket.ParkID, ticket.VisitDate, 1); err != nil {
		s.logger.WithFields(map[string]interface{}{
			"ticket_id": ticket.ID,
			"park_id":   ticket.ParkID,
		}).Error("failed to release occupancy on cancellation", err)
	}
	return nil
}

// RescheduleTicket books one unit on the new date first and only then
// releases the old date and moves the ticket's visit date in place.
// A full or missing new date leaves everything unchanged. The crash
// window between the new-date book and the old-date release is an
// accepted occupancy overcount, never an oversell.
func (s *Service) RescheduleTicket(ctx context.Context, user domain.Principal, ticketID, newDate string) error {
	if err := s.requireFutureDate(newDate); err != nil {
		return err
	}
	ticket, err := s.ownedConfirmedTicket(ctx, user, ticketID)
	if err != nil {
		return err
	}
	if ticket.ParkID == "" {
		return errors.Wrap(domain.ErrInvalidState, "ticket has no resolvable park")
	}
	if _, err := s.parks.GetPark(ctx, ticket.ParkID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return errors.Wrapf(domain.ErrInvalidState, "park %s no longer exists", ticket.ParkID)
		}
		return err
	}

	created, err := s.parks.EnsureSchedule(ctx, ticket.ParkID, newDate)
	if err != nil {
		return err
	}
	if created {
		s.audit.Record(ctx, user.Name, "SYSTEM", fmt.Sprintf("Auto-created schedule %s for %s", newDate, ticket.ParkID))
	}

	outcome, err := s.parks.TryBook(ctx, ticket.ParkID, newDate, 1)
	if err != nil {
		return err
	}
	observability.BookingsTotal.WithLabelValues(outcome.String()).Inc()
	switch outcome {
	case domain.BookingCapacityExceeded:
		return errors.Wrapf(domain.ErrCapacityExceeded, "%s is full", newDate)
	case domain.BookingNotFound:
		return errors.Wrapf(domain.ErrNotFound, "schedule for %s", newDate)
	}

	if err := s.parks.DecrementOccupancy(ctx, ticket.ParkID, ticket.VisitDate, 1); err != nil {
		s.logger.WithField("ticket_id", ticket.ID).Error("failed to release old date on reschedule", err)
	}
	if err := s.tickets.SetVisitDate(ctx, ticket.ID, newDate); err != nil {
		return err
	}

	s.audit.Record(ctx, user.Name, "BOOKING", fmt.Sprintf("Rescheduled %s to %s", ticket.ID, newDate))
	s.events.Publish(ctx, "ticket.rescheduled", map[string]interface{}{
		"ticket_id": ticket.ID,
		"from":      ticket.VisitDate,
		"to":        newDate,
	})
	return nil
}

func (s *Service) ownedConfirmedTicket(ctx context.Context, user domain.Principal, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.Get(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.OwnerID != user.UserID {
		return nil, errors.Wrapf(domain.ErrNotFound, "ticket %s", ticketID)
	}
	if ticket.Status != domain.TicketConfirmed {
		return nil, errors.Wrapf(domain.ErrInvalidState, "ticket %s is %s", ticketID, ticket.Status)
	}
	return ticket, nil
}

func (s *Service) requireFutureDate(visitDate string) error {
	visit, err := domain.ParseVisitDate(visitDate)
	if err != nil {
		return errors.Wrapf(domain.ErrInvalidState, "bad visit date %q", visitDate)
	}
	today := time.Now().Truncate(24 * time.Hour)
	if !visit.After(today) {
		return errors.Wrapf(domain.ErrInvalidState, "visit date %s must be after today", visitDate)
	}
	return nil
}
