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

type OrderRepository struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewOrderRepository(db *mongo.Database, logger observability.Logger) *OrderRepository {
	return &OrderRepository{
		coll:   db.Collection("orders"),
		logger: logger,
	}
}

type OrderDoc struct {
	OrderID       string        `bson:"order_id"`
	UserID        string        `bson:"user_id"`
	Lines         []LineItemDoc `bson:"line_items"`
	TotalCost     float64       `bson:"total_cost"`
	Date          time.Time     `bson:"date"`
	PaymentStatus string        `bson:"payment_status"`
}

type LineItemDoc struct {
	Type      string   `bson:"item_type"`
	Name      string   `bson:"item_name"`
	Quantity  int      `bson:"quantity"`
	UnitPrice float64  `bson:"unit_price"`
	ParkID    string   `bson:"park_id,omitempty"`
	VisitDate string   `bson:"visit_date,omitempty"`
	SKU       string   `bson:"sku,omitempty"`
	TicketIDs []string `bson:"ticket_ids,omitempty"`
}

func lineToDoc(l domain.LineItem) LineItemDoc {
	return LineItemDoc{
		Type:      string(l.Type),
		Name:      l.Name,
		Quantity:  l.Quantity,
		UnitPrice: l.UnitPrice,
		ParkID:    l.ParkID,
		VisitDate: l.VisitDate,
		SKU:       l.SKU,
		TicketIDs: l.TicketIDs,
	}
}

func lineToDomain(d LineItemDoc) domain.LineItem {
	return domain.LineItem{
		Type:      domain.LineItemType(d.Type),
		Name:      d.Name,
		Quantity:  d.Quantity,
		UnitPrice: d.UnitPrice,
		ParkID:    d.ParkID,
		VisitDate: d.VisitDate,
		SKU:       d.SKU,
		TicketIDs: d.TicketIDs,
	}
}

func (r *OrderRepository) Insert(ctx context.Context, o domain.Order) error {
	doc := OrderDoc{
		OrderID:       o.ID,
		UserID:        o.UserID,
		Lines:         make([]LineItemDoc, 0, len(o.Lines)),
		TotalCost:     o.TotalCost,
		Date:          o.Date,
		PaymentStatus: o.PaymentStatus,
	}
	for _, l := range o.Lines {
		doc.Lines = append(doc.Lines, lineToDoc(l))
	}
	_, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		r.logger.Error("failed to insert order", err)
	}
	return err
}

func (r *OrderRepository) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	var doc OrderDoc
	err := r.coll.FindOne(ctx, bson.M{"order_id": orderID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, errors.Wrapf(domain.ErrNotFound, "order %s", orderID)
	}
	if err != nil {
		return nil, err
	}
	order := domain.Order{
		ID:            doc.OrderID,
		UserID:        doc.UserID,
		TotalCost:     doc.TotalCost,
		Date:          doc.Date,
		PaymentStatus: doc.PaymentStatus,
	}
	for _, l := range doc.Lines {
		order.Lines = append(order.Lines, lineToDomain(l))
	}
	return &order, nil
}
