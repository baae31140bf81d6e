package domain

import "time"

// Order is the immutable record of a completed checkout. Ticket lines
// carry the IDs of the tickets minted for them. Payment is assumed to
// succeed once capacity and stock are secured, hence the fixed status.
type Order struct {
	ID            string
	UserID        string
	Lines         []LineItem
	TotalCost     float64
	Date          time.Time
	PaymentStatus string
}

func NewOrder(userID string, lines []LineItem, totalCost float64) Order {
	return Order{
		ID:            ShortID(),
		UserID:        userID,
		Lines:         lines,
		TotalCost:     totalCost,
		Date:          time.Now(),
		PaymentStatus: "PAID",
	}
}
