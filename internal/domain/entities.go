package domain

import (
	"time"

	"github.com/google/uuid"
)

// VisitDateLayout is the calendar-date format used for schedule keys.
const VisitDateLayout = "2006-01-02"

type TicketStatus string

const (
	TicketConfirmed TicketStatus = "CONFIRMED"
	TicketCancelled TicketStatus = "CANCELLED"
)

// Park holds catalog metadata plus the per-date capacity ledger. The
// park-level MaxCapacity applies uniformly to every visit date.
type Park struct {
	ID          string
	Name        string
	Location    string
	Description string
	MaxCapacity int
	TicketPrice *float64
	Schedules   []Schedule
}

// FindSchedule returns the schedule for visitDate, or nil.
func (p *Park) FindSchedule(visitDate string) *Schedule {
	for i := range p.Schedules {
		if p.Schedules[i].VisitDate == visitDate {
			return &p.Schedules[i]
		}
	}
	return nil
}

// Schedule is a park's occupancy counter for one visit date. Created
// lazily at zero occupancy and never destroyed by ticket operations.
type Schedule struct {
	VisitDate        string
	CurrentOccupancy int
}

// Ticket is one committed reservation against exactly one park+date.
// Price is captured at booking time and immutable thereafter.
type Ticket struct {
	ID        string
	OwnerID   string
	ParkID    string
	ParkName  string
	VisitDate string
	Price     float64
	Status    TicketStatus
	QRCode    string
	CreatedAt time.Time
}

func NewTicket(ownerID, parkID, parkName, visitDate string, price float64) Ticket {
	id := ShortID()
	return Ticket{
		ID:        id,
		OwnerID:   ownerID,
		ParkID:    parkID,
		ParkName:  parkName,
		VisitDate: visitDate,
		Price:     price,
		Status:    TicketConfirmed,
		QRCode:    "QR-" + id,
		CreatedAt: time.Now(),
	}
}

type Merchandise struct {
	SKU           string
	Name          string
	Price         float64
	StockQuantity int
}

// Principal is the opaque authenticated identity supplied by the
// authentication collaborator. Credentials are validated elsewhere.
type Principal struct {
	UserID string
	Name   string
}

// ShortID returns an 8-character identifier, the form used for ticket
// and order IDs throughout the system.
func ShortID() string {
	return uuid.New().String()[:8]
}

// ParseVisitDate validates a calendar date string.
func ParseVisitDate(visitDate string) (time.Time, error) {
	return time.Parse(VisitDateLayout, visitDate)
}
