package repository

import (
	"context"
	"fmt"
	"time"

	appointmentserrors "docbook/internal/appointments/errors"
	doctorsrepo "docbook/internal/doctors/repository"
	"docbook/pkg/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// SlotLedger manipulates the per-doctor slots_booked ledger. The ledger is
// the single source of truth for slot occupancy: an appointment exists only
// if its slot entry was first claimed here.
type SlotLedger interface {
	IsBooked(ctx context.Context, doctorID string, dateKey string, slotTime string) (bool, error)
	Reserve(ctx context.Context, doctorID string, dateKey string, slotTime string) error
	Release(ctx context.Context, doctorID string, dateKey string, slotTime string) error
}

type mongoSlotLedger struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoSlotLedger(cfg *config.Config) SlotLedger {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSlotLedger{
		cfg:        cfg,
		collection: db.Collection(doctorsrepo.CollectionName),
	}
}

func (l *mongoSlotLedger) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (l *mongoSlotLedger) IsBooked(ctx context.Context, doctorID string, dateKey string, slotTime string) (bool, error) {
	ctx, cancel := l.withTimeout(ctx, l.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(doctorID)
	if err != nil {
		return false, fmt.Errorf("%w: %s", appointmentserrors.ErrInvalidID, doctorID)
	}

	filter := bson.M{
		"_id":                   objectID,
		"slots_booked." + dateKey: slotTime,
	}

	count, err := l.collection.CountDocuments(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("failed to check slot occupancy: %w", err)
	}
	return count > 0, nil
}

// Reserve claims the slot with a single conditional update: the filter only
// matches when the slot time is absent from the day's ledger entry, so two
// concurrent claims for the same slot can never both match. A zero matched
// count means the slot is already held (or the doctor vanished; callers load
// the doctor before reserving, so that case is treated the same).
func (l *mongoSlotLedger) Reserve(ctx context.Context, doctorID string, dateKey string, slotTime string) error {
	ctx, cancel := l.withTimeout(ctx, l.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(doctorID)
	if err != nil {
		return fmt.Errorf("%w: %s", appointmentserrors.ErrInvalidID, doctorID)
	}

	field := "slots_booked." + dateKey
	filter := bson.M{
		"_id":  objectID,
		field:  bson.M{"$ne": slotTime},
	}
	update := bson.M{
		"$addToSet": bson.M{field: slotTime},
	}

	result, err := l.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to reserve slot: %w", err)
	}

	if result.MatchedCount == 0 {
		return appointmentserrors.ErrSlotTaken
	}
	return nil
}

// Release removes the slot entry and drops the day's array once it is empty.
// Releasing a slot that is not held is a no-op.
func (l *mongoSlotLedger) Release(ctx context.Context, doctorID string, dateKey string, slotTime string) error {
	ctx, cancel := l.withTimeout(ctx, l.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(doctorID)
	if err != nil {
		return fmt.Errorf("%w: %s", appointmentserrors.ErrInvalidID, doctorID)
	}

	field := "slots_booked." + dateKey
	_, err = l.collection.UpdateOne(ctx,
		bson.M{"_id": objectID},
		bson.M{"$pull": bson.M{field: slotTime}},
	)
	if err != nil {
		return fmt.Errorf("failed to release slot: %w", err)
	}

	_, err = l.collection.UpdateOne(ctx,
		bson.M{"_id": objectID, field: bson.M{"$size": 0}},
		bson.M{"$unset": bson.M{field: ""}},
	)
	if err != nil {
		return fmt.Errorf("failed to prune empty slot day: %w", err)
	}
	return nil
}
