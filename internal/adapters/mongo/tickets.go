package mongo

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sarawakparks/park-reservations/internal/domain"
	"github.com/sarawakparks/park-reservations/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type TicketRepository struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewTicketRepository(db *mongo.Database, logger observability.Logger) *TicketRepository {
	return &TicketRepository{
		coll:   db.Collection("tickets"),
		logger: logger,
	}
}

type TicketDoc struct {
	TicketID  string    `bson:"ticket_id"`
	OwnerID   string    `bson:"owner_id"`
	ParkID    string    `bson:"park_id"`
	ParkName  string    `bson:"park_name"`
	VisitDate string    `bson:"visit_date"`
	Price     float64   `bson:"price"`
	Status    string    `bson:"status"`
	QRCode    string    `bson:"qr_code"`
	CreatedAt time.Time `bson:"created_at"`
}

func (d TicketDoc) toDomain() domain.Ticket {
	return domain.Ticket{
		ID:        d.TicketID,
		OwnerID:   d.OwnerID,
		ParkID:    d.ParkID,
		ParkName:  d.ParkName,
		VisitDate: d.VisitDate,
		Price:     d.Price,
		Status:    domain.TicketStatus(d.Status),
		QRCode:    d.QRCode,
		CreatedAt: d.CreatedAt,
	}
}

func (r *TicketRepository) Insert(ctx context.Context, t domain.Ticket) error {
	_, err := r.coll.InsertOne(ctx, TicketDoc{
		TicketID:  t.ID,
		OwnerID:   t.OwnerID,
		ParkID:    t.ParkID,
		ParkName:  t.ParkName,
		VisitDate: t.VisitDate,
		Price:     t.Price,
		Status:    string(t.Status),
		QRCode:    t.QRCode,
		CreatedAt: t.CreatedAt,
	})
	if err != nil {
		r.logger.Error("failed to insert ticket", err)
	}
	return err
}

func (r *TicketRepository) Get(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	var doc TicketDoc
	err := r.coll.FindOne(ctx, bson.M{"ticket_id": ticketID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, errors.Wrapf(domain.ErrNotFound, "ticket %s", ticketID)
	}
	if err != nil {
		return nil, err
	}
	ticket := doc.toDomain()
	return &ticket, nil
}

func (r *TicketRepository) FindByOwner(ctx context.Context, ownerID string, status domain.TicketStatus) ([]domain.Ticket, error) {
	filter := bson.M{"owner_id": ownerID}
	if status != "" {
		filter["status"] = string(status)
	}
	cur, err := r.coll.Find(ctx, filter)
	if err != nil {
		r.logger.Error("failed to find tickets", err)
		return nil, err
	}
	defer cur.Close(ctx)

	var tickets []domain.Ticket
	for cur.Next(ctx) {
		var doc TicketDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		tickets = append(tickets, doc.toDomain())
	}
	return tickets, cur.Err()
}

func (r *TicketRepository) SetStatus(ctx context.Context, ticketID string, status domain.TicketStatus) error {
	res, err := r.coll.UpdateOne(
		ctx,
		bson.M{"ticket_id": ticketID},
		bson.M{"$set": bson.M{"status": string(status)}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return errors.Wrapf(domain.ErrNotFound, "ticket %s", ticketID)
	}
	return nil
}

// SetVisitDate moves a ticket to a new date in place; reschedule
// never mints a new ticket.
func (r *TicketRepository) SetVisitDate(ctx context.Context, ticketID, visitDate string) error {
	res, err := r.coll.UpdateOne(
		ctx,
		bson.M{"ticket_id": ticketID},
		bson.M{"$set": bson.M{"visit_date": visitDate}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return errors.Wrapf(domain.ErrNotFound, "ticket %s", ticketID)
	}
	return nil
}
