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

	"github.com/99minutos/product-catalog/internal/core/domain"
	"github.com/99minutos/product-catalog/internal/core/ports"
)

type productDoc struct {
	ID              int64                `bson:"_id"`
	Name            string               `bson:"name"`
	Price           primitive.Decimal128 `bson:"price"`
	StartDate       time.Time            `bson:"start_date"`
	DurationDays    int                  `bson:"duration_days"`
	EndDate         *time.Time           `bson:"end_date,omitempty"`
	CategoryID      int64                `bson:"category_id"`
	CreatedAt       time.Time            `bson:"created_at"`
	CreatedByUserID string               `bson:"created_by_user_id"`
}

func toProductDoc(p *domain.Product) (productDoc, error) {
	price, err := primitive.ParseDecimal128(p.Price.String())
	if err != nil {
		return productDoc{}, fmt.Errorf("price %s: %w", p.Price, err)
	}
	doc := productDoc{
		ID:              p.ID,
		Name:            p.Name,
		Price:           price,
		StartDate:       p.StartDate.UTC(),
		DurationDays:    p.DurationDays,
		CategoryID:      p.CategoryID,
		CreatedAt:       p.CreatedAt.UTC(),
		CreatedByUserID: p.CreatedByUserID,
	}
	if p.EndDate != nil {
		end := p.EndDate.UTC()
		doc.EndDate = &end
	}
	return doc, nil
}

func (d productDoc) toDomain() (domain.Product, error) {
	price, err := decimal.NewFromString(d.Price.String())
	if err != nil {
		return domain.Product{}, fmt.Errorf("product %d price: %w", d.ID, err)
	}
	p := domain.Product{
		ID:              d.ID,
		Name:            d.Name,
		Price:           price,
		StartDate:       d.StartDate.UTC(),
		DurationDays:    d.DurationDays,
		CategoryID:      d.CategoryID,
		CreatedAt:       d.CreatedAt.UTC(),
		CreatedByUserID: d.CreatedByUserID,
	}
	if d.EndDate != nil {
		end := d.EndDate.UTC()
		p.EndDate = &end
	}
	return p, nil
}

type ProductRepository struct {
	db         *mongo.Database
	col        *mongo.Collection
	categories *mongo.Collection
	users      *mongo.Collection
}

func NewProductRepository(db *mongo.Database) ports.ProductRepository {
	return &ProductRepository{
		db:         db,
		col:        db.Collection(collectionProducts),
		categories: db.Collection(collectionCategories),
		users:      db.Collection(collectionUsers),
	}
}

func (r *ProductRepository) List(ctx context.Context, filter ports.ProductFilter) ([]domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := bson.M{}
	if filter.CategoryID != nil {
		query["category_id"] = *filter.CategoryID
	}

	cur, err := r.col.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	defer cur.Close(ctx)

	var docs []productDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}

	products := make([]domain.Product, 0, len(docs))
	for _, d := range docs {
		p, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	if err := r.joinCategories(ctx, products); err != nil {
		return nil, err
	}
	if filter.IncludeCreator {
		if err := r.joinCreators(ctx, products); err != nil {
			return nil, err
		}
	}
	return products, nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var d productDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("find product: %w", err)
	}

	p, err := d.toDomain()
	if err != nil {
		return nil, err
	}
	one := []domain.Product{p}
	if err := r.joinCategories(ctx, one); err != nil {
		return nil, err
	}
	if err := r.joinCreators(ctx, one); err != nil {
		return nil, err
	}
	return &one[0], nil
}

func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	// Without foreign keys the category reference is checked here.
	n, err := r.categories.CountDocuments(ctx, bson.M{"_id": p.CategoryID})
	if err != nil {
		return fmt.Errorf("check category: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("insert product: %w", domain.ErrCategoryNotFound)
	}

	id, err := nextSequence(ctx, r.db, collectionProducts)
	if err != nil {
		return err
	}
	p.ID = id

	doc, err := toProductDoc(p)
	if err != nil {
		return err
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		p.ID = 0
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc, err := toProductDoc(p)
	if err != nil {
		return err
	}

	set := bson.M{
		"name":          doc.Name,
		"price":         doc.Price,
		"start_date":    doc.StartDate,
		"duration_days": doc.DurationDays,
		"category_id":   doc.CategoryID,
	}
	update := bson.M{"$set": set}
	if doc.EndDate != nil {
		set["end_date"] = *doc.EndDate
	} else {
		update["$unset"] = bson.M{"end_date": ""}
	}

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": p.ID}, update)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrConcurrencyConflict
	}
	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("delete product: %w", err)
	}
	return res.DeletedCount > 0, nil
}

func (r *ProductRepository) Exists(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("product exists: %w", err)
	}
	return n > 0, nil
}

func (r *ProductRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

func (r *ProductRepository) joinCategories(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.CategoryID)
	}

	cur, err := r.categories.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return fmt.Errorf("join categories: %w", err)
	}
	var docs []categoryDoc
	if err := cur.All(ctx, &docs); err != nil {
		return fmt.Errorf("decode joined categories: %w", err)
	}

	byID := make(map[int64]domain.Category, len(docs))
	for _, d := range docs {
		byID[d.ID] = domain.Category{ID: d.ID, Name: d.Name}
	}
	for i := range products {
		if c, ok := byID[products[i].CategoryID]; ok {
			products[i].Category = &c
		}
	}
	return nil
}

func (r *ProductRepository) joinCreators(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]string, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.CreatedByUserID)
	}

	cur, err := r.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find().SetProjection(bson.M{"email": 1}))
	if err != nil {
		return fmt.Errorf("join creators: %w", err)
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return fmt.Errorf("decode joined creators: %w", err)
	}

	byID := make(map[string]domain.User, len(docs))
	for _, d := range docs {
		byID[d.ID] = domain.User{ID: d.ID, Email: d.Email}
	}
	for i := range products {
		if u, ok := byID[products[i].CreatedByUserID]; ok {
			products[i].CreatedBy = &u
		}
	}
	return nil
}
