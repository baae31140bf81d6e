package domain

type LineItemType string

const (
	LineTicket LineItemType = "TICKET"
	LineMerch  LineItemType = "MERCH"
)

// LineItem is one entry in a cart or order: either a ticket
// reservation (park + visit date) or a merchandise purchase (SKU).
// The unit price is captured when the line is added.
type LineItem struct {
	Type      LineItemType
	Name      string
	Quantity  int
	UnitPrice float64
	ParkID    string
	VisitDate string
	SKU       string
	TicketIDs []string
}

func (l LineItem) Total() float64 {
	return l.UnitPrice * float64(l.Quantity)
}

// Cart is a customer's session-scoped staging area. It reserves
// nothing at the capacity store; its contents only feed the advisory
// overlay so one customer cannot pad a cart past capacity.
type Cart struct {
	UserID string
	Items  []LineItem
}

func (c *Cart) Add(item LineItem) {
	c.Items = append(c.Items, item)
}

func (c *Cart) Clear() {
	c.Items = nil
}

func (c *Cart) Total() float64 {
	var sum float64
	for _, it := range c.Items {
		sum += it.Total()
	}
	return sum
}

// ReservedTickets sums ticket quantities already in the cart for one
// (park, visit date) pair.
func (c *Cart) ReservedTickets(parkID, visitDate string) int {
	var qty int
	for _, it := range c.Items {
		if it.Type == LineTicket && it.ParkID == parkID && it.VisitDate == visitDate {
			qty += it.Quantity
		}
	}
	return qty
}

// ReservedMerch sums merchandise quantities already in the cart for
// one SKU.
func (c *Cart) ReservedMerch(sku string) int {
	var qty int
	for _, it := range c.Items {
		if it.Type == LineMerch && it.SKU == sku {
			qty += it.Quantity
		}
	}
	return qty
}
