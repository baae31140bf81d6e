package mongo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sarawakparks/park-reservations/internal/observability"
	"go.mongodb.org/mongo-driver/mongo"
)

// AuditLogger writes fire-and-forget audit entries. Failures are
// logged and swallowed; auditing must never fail the operation it
// describes.
type AuditLogger struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewAuditLogger(db *mongo.Database, logger observability.Logger) *AuditLogger {
	return &AuditLogger{
		coll:   db.Collection("audit_logs"),
		logger: logger,
	}
}

type AuditEntry struct {
	ID        uuid.UUID `bson:"_id"`
	Timestamp time.Time `bson:"timestamp"`
	Category  string    `bson:"category"`
	User      string    `bson:"user"`
	Action    string    `bson:"action"`
}

func (a *AuditLogger) Record(ctx context.Context, actor, category, action string) {
	entry := AuditEntry{
		ID:        uuid.New(),
		Timestamp: time.Now(),
		Category:  category,
		User:      actor,
		Action:    action,
	}
	if _, err := a.coll.InsertOne(ctx, entry); err != nil {
		a.logger.WithField("category", category).Error("failed to insert audit entry", err)
	}
}
