package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/apperror"
	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/pricing"
)

type priceDoc struct {
	Type      string    `bson:"_id"`
	Price     string    `bson:"price"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

func (d *priceDoc) toEntity() (*pricing.TicketTypePrice, error) {
	price, err := decimal.NewFromString(d.Price)
	if err != nil {
		return nil, err
	}
	return &pricing.TicketTypePrice{Type: pricing.TicketType(d.Type), Price: price, UpdatedAt: d.UpdatedAt.UTC()}, nil
}

type PriceRepository struct {
	coll *mongo.Collection
}

func NewPriceRepository(db *mongo.Database) *PriceRepository {
	return &PriceRepository{coll: db.Collection(pricesCollection)}
}

func (r *PriceRepository) Get(ctx context.Context, t pricing.TicketType) (*pricing.TicketTypePrice, error) {
	var doc priceDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": string(t)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, pricing.ErrPriceNotFound
		}
		return nil, apperror.NewStorageError("price.get", err)
	}
	return doc.toEntity()
}

func (r *PriceRepository) List(ctx context.Context) ([]*pricing.TicketTypePrice, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, apperror.NewStorageError("price.list", err)
	}
	var docs []priceDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, apperror.NewStorageError("price.list", err)
	}
	prices := make([]*pricing.TicketTypePrice, 0, len(docs))
	for i := range docs {
		p, err := docs[i].toEntity()
		if err != nil {
			return nil, err
		}
		prices = append(prices, p)
	}
	return prices, nil
}

func (r *PriceRepository) Upsert(ctx context.Context, p *pricing.TicketTypePrice) error {
	doc := priceDoc{Type: string(p.Type), Price: p.Price.StringFixed(2), UpdatedAt: p.UpdatedAt}
	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": doc.Type}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return apperror.NewStorageError("price.upsert", err)
	}
	return nil
}
