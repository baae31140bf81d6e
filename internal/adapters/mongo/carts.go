package mongo

import (
	"context"

	"github.com/sarawakparks/park-reservations/internal/domain"
	"github.com/sarawakparks/park-reservations/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CartRepository persists one cart snapshot per user so a cart
// survives session restarts. The snapshot is advisory state only; it
// holds no capacity.
type CartRepository struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewCartRepository(db *mongo.Database, logger observability.Logger) *CartRepository {
	return &CartRepository{
		coll:   db.Collection("carts"),
		logger: logger,
	}
}

type CartDoc struct {
	UserID string        `bson:"user_id"`
	Items  []LineItemDoc `bson:"items"`
}

func (r *CartRepository) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	var doc CartDoc
	err := r.coll.FindOne(ctx, bson.M{"user_id": userID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return &domain.Cart{UserID: userID}, nil
	}
	if err != nil {
		r.logger.Error("failed to load cart", err)
		return nil, err
	}
	cart := &domain.Cart{UserID: doc.UserID}
	for _, l := range doc.Items {
		cart.Items = append(cart.Items, lineToDomain(l))
	}
	return cart, nil
}

func (r *CartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	doc := CartDoc{UserID: cart.UserID, Items: make([]LineItemDoc, 0, len(cart.Items))}
	for _, l := range cart.Items {
		doc.Items = append(doc.Items, lineToDoc(l))
	}
	_, err := r.coll.UpdateOne(
		ctx,
		bson.M{"user_id": cart.UserID},
		bson.M{"$set": doc},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		r.logger.Error("failed to save cart", err)
	}
	return err
}

func (r *CartRepository) Delete(ctx context.Context, userID string) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"user_id": userID})
	return err
}
