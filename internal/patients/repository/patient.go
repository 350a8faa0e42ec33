package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	patientserrors "docbook/internal/patients/errors"
	"docbook/pkg/config"
	"docbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	CollectionName = "Patients"
)

type mongoPatientRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
}

type PatientRepository interface {
	Create(ctx context.Context, patient *model.Patient) error
	FindByID(ctx context.Context, id string) (*model.Patient, error)
	FindByEmail(ctx context.Context, email string) (*model.Patient, error)
	UpdateProfile(ctx context.Context, id string, update *model.PatientUpdate) error
	Count(ctx context.Context) (int64, error)
}

func NewMongoPatientRepository(cfg *config.Config) PatientRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoPatientRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoPatientRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

func (r *mongoPatientRepository) Create(ctx context.Context, patient *model.Patient) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	patient.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, patient)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return patientserrors.ErrEmailTaken
		}
		return fmt.Errorf("failed to create patient: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		patient.ID = oid.Hex()
	}
	return nil
}

func (r *mongoPatientRepository) FindByID(ctx context.Context, id string) (*model.Patient, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", patientserrors.ErrInvalidID, id)
	}

	var patient model.Patient
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&patient)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, patientserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find patient: %w", err)
	}

	return &patient, nil
}

func (r *mongoPatientRepository) FindByEmail(ctx context.Context, email string) (*model.Patient, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var patient model.Patient
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&patient)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, patientserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find patient by email: %w", err)
	}

	return &patient, nil
}

func (r *mongoPatientRepository) UpdateProfile(ctx context.Context, id string, update *model.PatientUpdate) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", patientserrors.ErrInvalidID, id)
	}

	set := bson.M{}
	if update.Name != "" {
		set["name"] = update.Name
	}
	if update.Phone != "" {
		set["phone"] = update.Phone
	}
	if update.Gender != "" {
		set["gender"] = update.Gender
	}
	if update.DateOfBirth != "" {
		set["date_of_birth"] = update.DateOfBirth
	}
	if update.Image != "" {
		set["image"] = update.Image
	}
	if update.Address != nil {
		set["address"] = *update.Address
	}
	if len(set) == 0 {
		return nil
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update patient: %w", err)
	}

	if result.MatchedCount == 0 {
		return patientserrors.ErrNotFound
	}
	return nil
}

func (r *mongoPatientRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count patients: %w", err)
	}
	return count, nil
}
