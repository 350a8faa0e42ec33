package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	doctorserrors "docbook/internal/doctors/errors"
	"docbook/pkg/config"
	"docbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Doctors"
)

type mongoDoctorRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
}

type DoctorRepository interface {
	Create(ctx context.Context, doctor *model.Doctor) error
	FindByID(ctx context.Context, id string) (*model.Doctor, error)
	FindByEmail(ctx context.Context, email string) (*model.Doctor, error)
	FindAll(ctx context.Context) ([]*model.Doctor, error)
	UpdateProfile(ctx context.Context, id string, update *model.DoctorUpdate) error
	SetAvailability(ctx context.Context, id string, available bool) error
	Count(ctx context.Context) (int64, error)
}

func NewMongoDoctorRepository(cfg *config.Config) DoctorRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoDoctorRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoDoctorRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

func (r *mongoDoctorRepository) Create(ctx context.Context, doctor *model.Doctor) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	doctor.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, doctor)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return doctorserrors.ErrEmailTaken
		}
		return fmt.Errorf("failed to create doctor: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		doctor.ID = oid.Hex()
	}
	return nil
}

func (r *mongoDoctorRepository) FindByID(ctx context.Context, id string) (*model.Doctor, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", doctorserrors.ErrInvalidID, id)
	}

	var doctor model.Doctor
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doctor)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, doctorserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find doctor: %w", err)
	}

	return &doctor, nil
}

func (r *mongoDoctorRepository) FindByEmail(ctx context.Context, email string) (*model.Doctor, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var doctor model.Doctor
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&doctor)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, doctorserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find doctor by email: %w", err)
	}

	return &doctor, nil
}

func (r *mongoDoctorRepository) FindAll(ctx context.Context) ([]*model.Doctor, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find doctors: %w", err)
	}
	defer cursor.Close(ctx)

	var doctors []*model.Doctor
	if err = cursor.All(ctx, &doctors); err != nil {
		return nil, fmt.Errorf("failed to decode doctors: %w", err)
	}

	return doctors, nil
}

func (r *mongoDoctorRepository) UpdateProfile(ctx context.Context, id string, update *model.DoctorUpdate) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", doctorserrors.ErrInvalidID, id)
	}

	set := bson.M{}
	if update.Name != "" {
		set["name"] = update.Name
	}
	if update.Speciality != "" {
		set["speciality"] = update.Speciality
	}
	if update.Degree != "" {
		set["degree"] = update.Degree
	}
	if update.Experience != "" {
		set["experience"] = update.Experience
	}
	if update.About != "" {
		set["about"] = update.About
	}
	if update.Image != "" {
		set["image"] = update.Image
	}
	if update.Fees != nil {
		set["fees"] = *update.Fees
	}
	if update.Address != nil {
		set["address"] = *update.Address
	}
	if len(set) == 0 {
		return nil
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update doctor: %w", err)
	}

	if result.MatchedCount == 0 {
		return doctorserrors.ErrNotFound
	}
	return nil
}

func (r *mongoDoctorRepository) SetAvailability(ctx context.Context, id string, available bool) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", doctorserrors.ErrInvalidID, id)
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{"available": available}},
	)
	if err != nil {
		return fmt.Errorf("failed to set doctor availability: %w", err)
	}

	if result.MatchedCount == 0 {
		return doctorserrors.ErrNotFound
	}
	return nil
}

func (r *mongoDoctorRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count doctors: %w", err)
	}
	return count, nil
}
