package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fieldline/crm-system/internal/core/domain"
)

const collectionCustomers = "customers"

type CustomerRepository struct {
	col *mongo.Collection
}

func NewCustomerRepository(db *mongo.Database) *CustomerRepository {
	return &CustomerRepository{col: db.Collection(collectionCustomers)}
}

// customerDoc is the persisted shape. The purchase total is stored as a
// canonical decimal string to keep the aggregate exact.
type customerDoc struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty"`
	FirstName          string             `bson:"first_name"`
	LastName           string             `bson:"last_name"`
	Email              string             `bson:"email"`
	PhoneNumber        string             `bson:"phone_number,omitempty"`
	Company            string             `bson:"company,omitempty"`
	Address            string             `bson:"address,omitempty"`
	Status             string             `bson:"status"`
	TotalPurchaseValue string             `bson:"total_purchase_value"`
	CreatedAt          time.Time          `bson:"created_at"`
	UpdatedAt          time.Time          `bson:"updated_at"`
}

func toCustomerDoc(c *domain.Customer) (*customerDoc, error) {
	doc := &customerDoc{
		FirstName:          c.FirstName,
		LastName:           c.LastName,
		Email:              c.Email,
		PhoneNumber:        c.PhoneNumber,
		Company:            c.Company,
		Address:            c.Address,
		Status:             string(c.Status),
		TotalPurchaseValue: c.TotalPurchaseValue.String(),
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
	if c.ID != "" {
		oid, err := primitive.ObjectIDFromHex(c.ID)
		if err != nil {
			return nil, fmt.Errorf("customer id %q: %w", c.ID, err)
		}
		doc.ID = oid
	}
	return doc, nil
}

func (d *customerDoc) toDomain() (*domain.Customer, error) {
	total, err := decimal.NewFromString(d.TotalPurchaseValue)
	if err != nil {
		return nil, fmt.Errorf("customer %s: bad stored total %q: %w", d.ID.Hex(), d.TotalPurchaseValue, err)
	}
	return &domain.Customer{
		ID:                 d.ID.Hex(),
		FirstName:          d.FirstName,
		LastName:           d.LastName,
		Email:              d.Email,
		PhoneNumber:        d.PhoneNumber,
		Company:            d.Company,
		Address:            d.Address,
		Status:             domain.CustomerStatus(d.Status),
		TotalPurchaseValue: total,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}, nil
}

func (r *CustomerRepository) Insert(ctx context.Context, c *domain.Customer) (*domain.Customer, error) {
	doc, err := toCustomerDoc(c)
	if err != nil {
		return nil, err
	}
	doc.ID = primitive.NewObjectID()

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, err
	}
	return doc.toDomain()
}

func (r *CustomerRepository) FindByID(ctx context.Context, id string) (*domain.Customer, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrCustomerNotFound
	}

	var doc customerDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, err
	}
	return doc.toDomain()
}

func (r *CustomerRepository) FindByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	var doc customerDoc
	if err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, err
	}
	return doc.toDomain()
}

func (r *CustomerRepository) FindAll(ctx context.Context) ([]*domain.Customer, error) {
	cursor, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var customers []*domain.Customer
	for cursor.Next(ctx) {
		var doc customerDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		c, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, cursor.Err()
}

func (r *CustomerRepository) Update(ctx context.Context, c *domain.Customer) error {
	doc, err := toCustomerDoc(c)
	if err != nil {
		return err
	}

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrCustomerNotFound
	}
	return nil
}

func (r *CustomerRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrCustomerNotFound
	}

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrCustomerNotFound
	}
	return nil
}

func (r *CustomerRepository) Count(ctx context.Context) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{})
}

// EnsureIndexes creates the indexes the customer queries rely on.
func (r *CustomerRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
