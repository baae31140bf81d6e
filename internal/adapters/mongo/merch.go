package mongo

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/sarawakparks/park-reservations/internal/domain"
	"github.com/sarawakparks/park-reservations/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type MerchRepository struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewMerchRepository(db *mongo.Database, logger observability.Logger) *MerchRepository {
	return &MerchRepository{
		coll:   db.Collection("merchandise"),
		logger: logger,
	}
}

type MerchDoc struct {
	SKU           string  `bson:"sku"`
	Name          string  `bson:"name"`
	Price         float64 `bson:"price"`
	StockQuantity int     `bson:"stock_quantity"`
}

func (d MerchDoc) toDomain() domain.Merchandise {
	return domain.Merchandise{
		SKU:           d.SKU,
		Name:          d.Name,
		Price:         d.Price,
		StockQuantity: d.StockQuantity,
	}
}

func (r *MerchRepository) GetBySKU(ctx context.Context, sku string) (*domain.Merchandise, error) {
	var doc MerchDoc
	err := r.coll.FindOne(ctx, bson.M{"sku": sku}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, errors.Wrapf(domain.ErrNotFound, "merchandise %s", sku)
	}
	if err != nil {
		r.logger.Error("failed to get merchandise", err)
		return nil, err
	}
	item := doc.toDomain()
	return &item, nil
}

func (r *MerchRepository) List(ctx context.Context) ([]domain.Merchandise, error) {
	cur, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		r.logger.Error("failed to list merchandise", err)
		return nil, err
	}
	defer cur.Close(ctx)

	var items []domain.Merchandise
	for cur.Next(ctx) {
		var doc MerchDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		items = append(items, doc.toDomain())
	}
	return items, cur.Err()
}

// DecrementStock takes qty off the shelf only while the shelf still
// covers it, in one conditional update. A zero-match means the SKU is
// missing or the stock ran out; the two are reported apart.
func (r *MerchRepository) DecrementStock(ctx context.Context, sku string, qty int) error {
	res, err := r.coll.UpdateOne(
		ctx,
		bson.M{"sku": sku, "stock_quantity": bson.M{"$gte": qty}},
		bson.M{"$inc": bson.M{"stock_quantity": -qty}},
	)
	if err != nil {
		r.logger.Error("failed to decrement stock", err)
		return err
	}
	if res.ModifiedCount > 0 {
		return nil
	}
	count, err := r.coll.CountDocuments(ctx, bson.M{"sku": sku})
	if err != nil {
		return err
	}
	if count == 0 {
		return errors.Wrapf(domain.ErrNotFound, "merchandise %s", sku)
	}
	return errors.Wrapf(domain.ErrInsufficientStock, "merchandise %s", sku)
}

// InsertMerch seeds a merchandise document. Used by the seeder and tests.
func (r *MerchRepository) InsertMerch(ctx context.Context, item domain.Merchandise) error {
	_, err := r.coll.InsertOne(ctx, MerchDoc{
		SKU:           item.SKU,
		Name:          item.Name,
		Price:         item.Price,
		StockQuantity: item.StockQuantity,
	})
	return err
}
