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

const collectionSales = "sales"

type SaleRepository struct {
	col *mongo.Collection
}

func NewSaleRepository(db *mongo.Database) *SaleRepository {
	return &SaleRepository{col: db.Collection(collectionSales)}
}

type saleDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Amount      string             `bson:"amount"`
	SaleDate    time.Time          `bson:"sale_date"`
	Status      string             `bson:"status"`
	Description string             `bson:"description,omitempty"`
	CustomerID  string             `bson:"customer_id"`
	SalesRepID  string             `bson:"sales_rep_id"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

func toSaleDoc(s *domain.Sale) (*saleDoc, error) {
	doc := &saleDoc{
		Amount:      s.Amount.String(),
		SaleDate:    s.SaleDate,
		Status:      string(s.Status),
		Description: s.Description,
		CustomerID:  s.CustomerID,
		SalesRepID:  s.SalesRepID,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
	if s.ID != "" {
		oid, err := primitive.ObjectIDFromHex(s.ID)
		if err != nil {
			return nil, fmt.Errorf("sale id %q: %w", s.ID, err)
		}
		doc.ID = oid
	}
	return doc, nil
}

func (d *saleDoc) toDomain() (*domain.Sale, error) {
	amount, err := decimal.NewFromString(d.Amount)
	if err != nil {
		return nil, fmt.Errorf("sale %s: bad stored amount %q: %w", d.ID.Hex(), d.Amount, err)
	}
	return &domain.Sale{
		ID:          d.ID.Hex(),
		Amount:      amount,
		SaleDate:    d.SaleDate,
		Status:      domain.SaleStatus(d.Status),
		Description: d.Description,
		CustomerID:  d.CustomerID,
		SalesRepID:  d.SalesRepID,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}, nil
}

func (r *SaleRepository) Insert(ctx context.Context, s *domain.Sale) (*domain.Sale, error) {
	doc, err := toSaleDoc(s)
	if err != nil {
		return nil, err
	}
	doc.ID = primitive.NewObjectID()

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, err
	}
	return doc.toDomain()
}

func (r *SaleRepository) FindByID(ctx context.Context, id string) (*domain.Sale, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrSaleNotFound
	}

	var doc saleDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSaleNotFound
		}
		return nil, err
	}
	return doc.toDomain()
}

func (r *SaleRepository) FindAll(ctx context.Context) ([]*domain.Sale, error) {
	return r.findByFilter(ctx, bson.M{})
}

func (r *SaleRepository) FindByCustomerID(ctx context.Context, customerID string) ([]*domain.Sale, error) {
	return r.findByFilter(ctx, bson.M{"customer_id": customerID})
}

func (r *SaleRepository) FindBySalesRepID(ctx context.Context, repID string) ([]*domain.Sale, error) {
	return r.findByFilter(ctx, bson.M{"sales_rep_id": repID})
}

func (r *SaleRepository) FindByStatus(ctx context.Context, status domain.SaleStatus) ([]*domain.Sale, error) {
	return r.findByFilter(ctx, bson.M{"status": string(status)})
}

// findByFilter scans sales in insertion order so report tie-breaking stays
// deterministic.
func (r *SaleRepository) findByFilter(ctx context.Context, filter bson.M) ([]*domain.Sale, error) {
	cursor, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sales []*domain.Sale
	for cursor.Next(ctx) {
		var doc saleDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		s, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		sales = append(sales, s)
	}
	return sales, cursor.Err()
}

func (r *SaleRepository) Update(ctx context.Context, s *domain.Sale) error {
	doc, err := toSaleDoc(s)
	if err != nil {
		return err
	}

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrSaleNotFound
	}
	return nil
}

func (r *SaleRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrSaleNotFound
	}

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrSaleNotFound
	}
	return nil
}

func (r *SaleRepository) ClearCustomer(ctx context.Context, customerID string) error {
	_, err := r.col.UpdateMany(ctx,
		bson.M{"customer_id": customerID},
		bson.M{"$unset": bson.M{"customer_id": ""}},
	)
	return err
}

func (r *SaleRepository) ClearSalesRep(ctx context.Context, repID string) error {
	_, err := r.col.UpdateMany(ctx,
		bson.M{"sales_rep_id": repID},
		bson.M{"$unset": bson.M{"sales_rep_id": ""}},
	)
	return err
}

// EnsureIndexes creates the indexes the sale queries rely on.
func (r *SaleRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "customer_id", Value: 1}}},
		{Keys: bson.D{{Key: "sales_rep_id", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "sale_date", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
