package booking

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sarawakparks/park-reservations/internal/domain"
)

// RefundPolicy decides refund eligibility from the ticket's current
// visit date: refundable while the visit is more than Window away.
// Evaluated at the moment of request, so a reschedule changes
// eligibility for future requests.
type RefundPolicy struct {
	Window time.Duration
	Now    func() time.Time
}

func NewRefundPolicy(window time.Duration) RefundPolicy {
	if window == 0 {
		window = 24 * time.Hour
	}
	return RefundPolicy{Window: window, Now: time.Now}
}

func (p RefundPolicy) Refundable(visitDate string) (bool, error) {
	visit, err := domain.ParseVisitDate(visitDate)
	if err != nil {
		return false, errors.Wrapf(domain.ErrInvalidState, "bad visit date %q", visitDate)
	}
	return visit.Sub(p.Now()) > p.Window, nil
}
