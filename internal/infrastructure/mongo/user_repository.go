package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/apperror"
	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/user"
)

type paymentCardDoc struct {
	ID       string `bson:"id"`
	Brand    string `bson:"brand"`
	Last4    string `bson:"last4"`
	ExpMonth int    `bson:"expMonth"`
	ExpYear  int    `bson:"expYear"`
}

// 金額は丸め誤差を避けるため文字列で保存する
type ticketDoc struct {
	Number        string          `bson:"ticketNumber"`
	MovieID       string          `bson:"movieId"`
	MovieTitle    string          `bson:"movieTitle"`
	ShowroomID    string          `bson:"showroomId"`
	ShowtimeStart time.Time       `bson:"showtime"`
	Seats         []string        `bson:"seats"`
	TicketCounts  map[string]int  `bson:"ticketCounts"`
	Subtotal      string          `bson:"subtotal"`
	CreatedAt     time.Time       `bson:"createdAt"`
	PaymentCard   *paymentCardDoc `bson:"paymentCard,omitempty"`
}

type userDoc struct {
	ID           string           `bson:"_id"`
	Email        string           `bson:"email"`
	Name         string           `bson:"name"`
	Tickets      []ticketDoc      `bson:"tickets"`
	PaymentCards []paymentCardDoc `bson:"paymentCards"`
	Version      int64            `bson:"version"`
	CreatedAt    time.Time        `bson:"createdAt"`
	UpdatedAt    time.Time        `bson:"updatedAt"`
}

func cardDoc(c user.PaymentCardSnapshot) paymentCardDoc {
	return paymentCardDoc{ID: c.ID, Brand: c.Brand, Last4: c.Last4, ExpMonth: c.ExpMonth, ExpYear: c.ExpYear}
}

func (d paymentCardDoc) toEntity() user.PaymentCardSnapshot {
	return user.PaymentCardSnapshot{ID: d.ID, Brand: d.Brand, Last4: d.Last4, ExpMonth: d.ExpMonth, ExpYear: d.ExpYear}
}

func toUserDoc(u *user.User, version int64) userDoc {
	doc := userDoc{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Tickets:      make([]ticketDoc, len(u.Tickets)),
		PaymentCards: make([]paymentCardDoc, len(u.PaymentCards)),
		Version:      version,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
	for i, t := range u.Tickets {
		td := ticketDoc{
			Number:        t.Number,
			MovieID:       t.MovieID,
			MovieTitle:    t.MovieTitle,
			ShowroomID:    t.ShowroomID,
			ShowtimeStart: t.ShowtimeStart.UTC(),
			Seats:         t.Seats,
			TicketCounts:  t.TicketCounts,
			Subtotal:      t.Subtotal.StringFixed(2),
			CreatedAt:     t.CreatedAt,
		}
		if t.PaymentCard != nil {
			c := cardDoc(*t.PaymentCard)
			td.PaymentCard = &c
		}
		doc.Tickets[i] = td
	}
	for i, c := range u.PaymentCards {
		doc.PaymentCards[i] = cardDoc(c)
	}
	return doc
}

func (d *userDoc) toEntity() (*user.User, error) {
	u := &user.User{
		ID:        d.ID,
		Email:     d.Email,
		Name:      d.Name,
		Tickets:   make([]user.Ticket, len(d.Tickets)),
		Version:   d.Version,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
	for i, td := range d.Tickets {
		subtotal := decimal.Zero
		if td.Subtotal != "" {
			v, err := decimal.NewFromString(td.Subtotal)
			if err != nil {
				return nil, err
			}
			subtotal = v
		}
		t := user.Ticket{
			Number:        td.Number,
			MovieID:       td.MovieID,
			MovieTitle:    td.MovieTitle,
			ShowroomID:    td.ShowroomID,
			ShowtimeStart: td.ShowtimeStart.UTC(),
			Seats:         td.Seats,
			TicketCounts:  td.TicketCounts,
			Subtotal:      subtotal,
			CreatedAt:     td.CreatedAt.UTC(),
		}
		if td.PaymentCard != nil {
			c := td.PaymentCard.toEntity()
			t.PaymentCard = &c
		}
		u.Tickets[i] = t
	}
	for _, c := range d.PaymentCards {
		u.PaymentCards = append(u.PaymentCards, c.toEntity())
	}
	return u, nil
}

// UserRepository は users コレクションを使うユーザーリポジトリ
type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(usersCollection)}
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	if _, err := r.coll.InsertOne(ctx, toUserDoc(u, 1)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return user.ErrUserAlreadyExists
		}
		return apperror.NewStorageError("user.create", err)
	}
	u.Version = 1
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	var doc userDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, user.ErrUserNotFound
		}
		return nil, apperror.NewStorageError("user.get", err)
	}
	return doc.toEntity()
}

func (r *UserRepository) Save(ctx context.Context, u *user.User) error {
	res, err := r.coll.ReplaceOne(ctx,
		bson.M{"_id": u.ID, "version": u.Version},
		toUserDoc(u, u.Version+1))
	if err != nil {
		return apperror.NewStorageError("user.save", err)
	}
	if res.MatchedCount == 0 {
		n, err := r.coll.CountDocuments(ctx, bson.M{"_id": u.ID})
		if err != nil {
			return apperror.NewStorageError("user.save", err)
		}
		if n == 0 {
			return user.ErrUserNotFound
		}
		return apperror.ErrVersionConflict
	}
	u.Version++
	return nil
}
