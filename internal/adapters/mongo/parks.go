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

// ParkRepository is the capacity store. Park documents embed their
// schedules; occupancy updates are conditional updates of one element
// of that embedded array, which is the store-level atomicity the
// booking protocol relies on.
type ParkRepository struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewParkRepository(db *mongo.Database, logger observability.Logger) *ParkRepository {
	return &ParkRepository{
		coll:   db.Collection("parks"),
		logger: logger,
	}
}

type ParkDoc struct {
	ParkID      string        `bson:"park_id"`
	Name        string        `bson:"name"`
	Location    string        `bson:"location"`
	Description string        `bson:"description"`
	MaxCapacity int           `bson:"max_capacity"`
	TicketPrice *float64      `bson:"ticket_price,omitempty"`
	Schedules   []ScheduleDoc `bson:"schedules"`
}

type ScheduleDoc struct {
	VisitDate        string `bson:"visit_date"`
	CurrentOccupancy int    `bson:"current_occupancy"`
}

func (d ParkDoc) toDomain() domain.Park {
	park := domain.Park{
		ID:          d.ParkID,
		Name:        d.Name,
		Location:    d.Location,
		Description: d.Description,
		MaxCapacity: d.MaxCapacity,
		TicketPrice: d.TicketPrice,
	}
	for _, s := range d.Schedules {
		park.Schedules = append(park.Schedules, domain.Schedule{
			VisitDate:        s.VisitDate,
			CurrentOccupancy: s.CurrentOccupancy,
		})
	}
	return park
}

func (r *ParkRepository) GetPark(ctx context.Context, parkID string) (*domain.Park, error) {
	var doc ParkDoc
	err := r.coll.FindOne(ctx, bson.M{"park_id": parkID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, errors.Wrapf(domain.ErrNotFound, "park %s", parkID)
	}
	if err != nil {
		r.logger.Error("failed to get park", err)
		return nil, err
	}
	park := doc.toDomain()
	return &park, nil
}

func (r *ParkRepository) ListParks(ctx context.Context) ([]domain.Park, error) {
	cur, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		r.logger.Error("failed to list parks", err)
		return nil, err
	}
	defer cur.Close(ctx)

	var parks []domain.Park
	for cur.Next(ctx) {
		var doc ParkDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		parks = append(parks, doc.toDomain())
	}
	return parks, cur.Err()
}

// EnsureSchedule pushes a zero-occupancy schedule for the date unless
// one already exists. The guard filter makes concurrent ensures for
// the same date collapse into a single created sub-document.
func (r *ParkRepository) EnsureSchedule(ctx context.Context, parkID, visitDate string) (bool, error) {
	res, err := r.coll.UpdateOne(
		ctx,
		bson.M{"park_id": parkID, "schedules.visit_date": bson.M{"$ne": visitDate}},
		bson.M{"$push": bson.M{"schedules": ScheduleDoc{VisitDate: visitDate, CurrentOccupancy: 0}}},
	)
	if err != nil {
		r.logger.Error("failed to ensure schedule", err)
		return false, err
	}
	if res.ModifiedCount > 0 {
		return true, nil
	}
	// Matched nothing: either the schedule already exists or the park
	// is missing. Tell those apart.
	count, err := r.coll.CountDocuments(ctx, bson.M{"park_id": parkID})
	if err != nil {
		return false, err
	}
	if count == 0 {
		return false, errors.Wrapf(domain.ErrNotFound, "park %s", parkID)
	}
	return false, nil
}

// TryBook is the optimistic booking protocol: read the occupancy,
// fast-reject a doomed attempt, then increment only if the occupancy
// is still exactly the value just read. The conditional update is the
// linearization point; a zero-match means another booking won the
// race and the caller sees BookingCapacityExceeded. Single-shot by
// contract, no internal retry.
func (r *ParkRepository) TryBook(ctx context.Context, parkID, visitDate string, qty int) (domain.BookOutcome, error) {
	var doc ParkDoc
	err := r.coll.FindOne(ctx, bson.M{"park_id": parkID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return domain.BookingNotFound, nil
	}
	if err != nil {
		r.logger.Error("failed to read park for booking", err)
		return 0, err
	}

	var cur int
	found := false
	for _, s := range doc.Schedules {
		if s.VisitDate == visitDate {
			cur = s.CurrentOccupancy
			found = true
			break
		}
	}
	if !found {
		return domain.BookingNotFound, nil
	}
	if cur+qty > doc.MaxCapacity {
		return domain.BookingCapacityExceeded, nil
	}

	start := time.Now()
	res, err := r.coll.UpdateOne(
		ctx,
		bson.M{
			"park_id": parkID,
			"schedules": bson.M{"$elemMatch": bson.M{
				"visit_date":        visitDate,
				"current_occupancy": cur,
			}},
		},
		bson.M{"$inc": bson.M{"schedules.$.current_occupancy": qty}},
	)
	observability.OccupancyUpdateDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		r.logger.Error("conditional occupancy update failed", err)
		return 0, err
	}
	if res.ModifiedCount == 0 {
		observability.CASConflicts.Inc()
		return domain.BookingCapacityExceeded, nil
	}
	return domain.BookingSucceeded, nil
}

// DecrementOccupancy releases qty units, clamping at zero. Not a CAS:
// a concurrent lost update here can only undercount occupancy, which
// is acceptable; it can never oversell.
func (r *ParkRepository) DecrementOccupancy(ctx context.Context, parkID, visitDate string, qty int) error {
	var doc ParkDoc
	err := r.coll.FindOne(ctx, bson.M{"park_id": parkID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return errors.Wrapf(domain.ErrNotFound, "park %s", parkID)
	}
	if err != nil {
		return err
	}

	for _, s := range doc.Schedules {
		if s.VisitDate != visitDate {
			continue
		}
		next := s.CurrentOccupancy - qty
		if next < 0 {
			next = 0
		}
		start := time.Now()
		_, err := r.coll.UpdateOne(
			ctx,
			bson.M{"park_id": parkID, "schedules.visit_date": visitDate},
			bson.M{"$set": bson.M{"schedules.$.current_occupancy": next}},
		)
		observability.OccupancyUpdateDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			r.logger.Error("failed to decrement occupancy", err)
		}
		return err
	}
	return errors.Wrapf(domain.ErrNotFound, "schedule %s for park %s", visitDate, parkID)
}

// InsertPark seeds a park document. Used by the seeder and tests.
func (r *ParkRepository) InsertPark(ctx context.Context, park domain.Park) error {
	doc := ParkDoc{
		ParkID:      park.ID,
		Name:        park.Name,
		Location:    park.Location,
		Description: park.Description,
		MaxCapacity: park.MaxCapacity,
		TicketPrice: park.TicketPrice,
		Schedules:   []ScheduleDoc{},
	}
	for _, s := range park.Schedules {
		doc.Schedules = append(doc.Schedules, ScheduleDoc{
			VisitDate:        s.VisitDate,
			CurrentOccupancy: s.CurrentOccupancy,
		})
	}
	_, err := r.coll.InsertOne(ctx, doc)
	return err
}
