package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fieldline/crm-system/internal/core/domain"
)

const collectionInteractions = "interactions"

type InteractionRepository struct {
	col *mongo.Collection
}

func NewInteractionRepository(db *mongo.Database) *InteractionRepository {
	return &InteractionRepository{col: db.Collection(collectionInteractions)}
}

type interactionDoc struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	Type            string             `bson:"type"`
	InteractionDate time.Time          `bson:"interaction_date"`
	Notes           string             `bson:"notes,omitempty"`
	CustomerID      string             `bson:"customer_id"`
	PerformedByID   string             `bson:"performed_by_id"`
	CreatedAt       time.Time          `bson:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at"`
}

func toInteractionDoc(i *domain.Interaction) (*interactionDoc, error) {
	doc := &interactionDoc{
		Type:            string(i.Type),
		InteractionDate: i.InteractionDate,
		Notes:           i.Notes,
		CustomerID:      i.CustomerID,
		PerformedByID:   i.PerformedByID,
		CreatedAt:       i.CreatedAt,
		UpdatedAt:       i.UpdatedAt,
	}
	if i.ID != "" {
		oid, err := primitive.ObjectIDFromHex(i.ID)
		if err != nil {
			return nil, fmt.Errorf("interaction id %q: %w", i.ID, err)
		}
		doc.ID = oid
	}
	return doc, nil
}

func (d *interactionDoc) toDomain() *domain.Interaction {
	return &domain.Interaction{
		ID:              d.ID.Hex(),
		Type:            domain.InteractionType(d.Type),
		InteractionDate: d.InteractionDate,
		Notes:           d.Notes,
		CustomerID:      d.CustomerID,
		PerformedByID:   d.PerformedByID,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func (r *InteractionRepository) Insert(ctx context.Context, i *domain.Interaction) (*domain.Interaction, error) {
	doc, err := toInteractionDoc(i)
	if err != nil {
		return nil, err
	}
	doc.ID = primitive.NewObjectID()

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *InteractionRepository) FindByID(ctx context.Context, id string) (*domain.Interaction, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrInteractionNotFound
	}

	var doc interactionDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrInteractionNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *InteractionRepository) FindAll(ctx context.Context) ([]*domain.Interaction, error) {
	return r.findByFilter(ctx, bson.M{})
}

func (r *InteractionRepository) FindByCustomerID(ctx context.Context, customerID string) ([]*domain.Interaction, error) {
	return r.findByFilter(ctx, bson.M{"customer_id": customerID})
}

func (r *InteractionRepository) FindByPerformedByID(ctx context.Context, userID string) ([]*domain.Interaction, error) {
	return r.findByFilter(ctx, bson.M{"performed_by_id": userID})
}

func (r *InteractionRepository) FindByType(ctx context.Context, t domain.InteractionType) ([]*domain.Interaction, error) {
	return r.findByFilter(ctx, bson.M{"type": string(t)})
}

func (r *InteractionRepository) findByFilter(ctx context.Context, filter bson.M) ([]*domain.Interaction, error) {
	cursor, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var interactions []*domain.Interaction
	for cursor.Next(ctx) {
		var doc interactionDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		interactions = append(interactions, doc.toDomain())
	}
	return interactions, cursor.Err()
}

func (r *InteractionRepository) Update(ctx context.Context, i *domain.Interaction) error {
	doc, err := toInteractionDoc(i)
	if err != nil {
		return err
	}

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrInteractionNotFound
	}
	return nil
}

func (r *InteractionRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrInteractionNotFound
	}

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrInteractionNotFound
	}
	return nil
}

func (r *InteractionRepository) Count(ctx context.Context) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{})
}

func (r *InteractionRepository) ClearCustomer(ctx context.Context, customerID string) error {
	_, err := r.col.UpdateMany(ctx,
		bson.M{"customer_id": customerID},
		bson.M{"$unset": bson.M{"customer_id": ""}},
	)
	return err
}

func (r *InteractionRepository) ClearPerformedBy(ctx context.Context, userID string) error {
	_, err := r.col.UpdateMany(ctx,
		bson.M{"performed_by_id": userID},
		bson.M{"$unset": bson.M{"performed_by_id": ""}},
	)
	return err
}

// EnsureIndexes creates the indexes the interaction queries rely on.
func (r *InteractionRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "customer_id", Value: 1}}},
		{Keys: bson.D{{Key: "performed_by_id", Value: 1}}},
		{Keys: bson.D{{Key: "type", Value: 1}}},
		{Keys: bson.D{{Key: "interaction_date", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
