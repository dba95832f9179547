package models

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const BookingEventsColName = "booking_events"

const (
	AuditBookingCreated    = "booking.created"
	AuditBookingConfirmed  = "booking.confirmed"
	AuditBookingSoldOut    = "booking.sold_out"
	AuditBookingAbandoned  = "booking.abandoned"
	AuditSignatureRejected = "payment.signature_rejected"
	AuditPaymentFailed     = "payment.failed"
	AuditPaymentIntent     = "payment.intent_created"
)

// BookingEvent is one entry in the append-only history of a booking.
type BookingEvent struct {
	ID         primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	BookingID  string                 `bson:"booking_id" json:"booking_id"`
	UserID     string                 `bson:"user_id" json:"user_id"`
	Type       string                 `bson:"type" json:"type"`
	Status     BookingStatus          `bson:"status,omitempty" json:"status,omitempty"`
	Detail     map[string]interface{} `bson:"detail,omitempty" json:"detail,omitempty"`
	OccurredAt time.Time              `bson:"occurred_at" json:"occurred_at"`
}

func (e *BookingEvent) BeforeCreate() {
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
}

type AuditRepo interface {
	AppendBookingEvent(ctx context.Context, event *BookingEvent) error
	ListBookingEvents(ctx context.Context, bookingID, userID string) ([]BookingEvent, error)
}

func (mdb *MongodbRepo) GetCollection(ctx context.Context, dbName, colName string) (*mongo.Collection, error) {
	if mdb.mongodbClient == nil {
		return nil, fmt.Errorf("mongodb client is not initialized")
	}
	return mdb.mongodbClient.Database(dbName).Collection(colName), nil
}

func (mdb *MongodbRepo) EnsureAuditIndexes(ctx context.Context) error {
	col, err := mdb.GetCollection(ctx, mdb.dbName, BookingEventsColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %w", err)
	}

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "booking_id", Value: 1}, {Key: "occurred_at", Value: 1}},
			Options: options.Index().SetName("booking_timeline"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("user_id"),
		},
	}

	if _, err := col.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create audit indexes: %w", err)
	}
	return nil
}

func (mdb *MongodbRepo) AppendBookingEvent(ctx context.Context, event *BookingEvent) error {
	col, err := mdb.GetCollection(ctx, mdb.dbName, BookingEventsColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %w", err)
	}

	event.BeforeCreate()
	if _, err := col.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("failed to insert booking event: %w", err)
	}
	return nil
}

func (mdb *MongodbRepo) ListBookingEvents(ctx context.Context, bookingID, userID string) ([]BookingEvent, error) {
	col, err := mdb.GetCollection(ctx, mdb.dbName, BookingEventsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	filter := bson.M{"booking_id": bookingID, "user_id": userID}
	opts := options.Find().SetSort(bson.D{{Key: "occurred_at", Value: 1}})

	cursor, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding booking events: %w", err)
	}
	defer cursor.Close(ctx)

	events := []BookingEvent{}
	for cursor.Next(ctx) {
		var e BookingEvent
		if err := cursor.Decode(&e); err != nil {
			return nil, fmt.Errorf("error decoding booking event: %w", err)
		}
		events = append(events, e)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return events, nil
}
