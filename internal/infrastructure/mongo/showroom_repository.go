package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/apperror"
	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/showroom"
)

type showtimeDoc struct {
	MovieID     string    `bson:"movieId"`
	Start       time.Time `bson:"start"`
	RoomID      string    `bson:"roomId"`
	BookedSeats []string  `bson:"bookedSeats"`
}

type showroomDoc struct {
	ID        string        `bson:"_id"`
	Showtimes []showtimeDoc `bson:"showtimes"`
	Version   int64         `bson:"version"`
	CreatedAt time.Time     `bson:"createdAt"`
	UpdatedAt time.Time     `bson:"updatedAt"`
}

func toShowroomDoc(r *showroom.Showroom, version int64) showroomDoc {
	doc := showroomDoc{
		ID:        r.ID,
		Showtimes: make([]showtimeDoc, len(r.Showtimes)),
		Version:   version,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	for i, st := range r.Showtimes {
		seats := st.BookedSeats
		if seats == nil {
			seats = []string{}
		}
		doc.Showtimes[i] = showtimeDoc{MovieID: st.MovieID, Start: st.Start.UTC(), RoomID: st.RoomID, BookedSeats: seats}
	}
	return doc
}

func (d *showroomDoc) toEntity() *showroom.Showroom {
	r := &showroom.Showroom{
		ID:        d.ID,
		Showtimes: make([]showroom.Showtime, len(d.Showtimes)),
		Version:   d.Version,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
	for i, st := range d.Showtimes {
		seats := st.BookedSeats
		if seats == nil {
			seats = []string{}
		}
		r.Showtimes[i] = showroom.Showtime{MovieID: st.MovieID, Start: st.Start.UTC(), RoomID: st.RoomID, BookedSeats: seats}
	}
	return r
}

// ShowroomRepository は showrooms コレクションを使う上映室リポジトリ
type ShowroomRepository struct {
	coll *mongo.Collection
}

func NewShowroomRepository(db *mongo.Database) *ShowroomRepository {
	return &ShowroomRepository{coll: db.Collection(showroomsCollection)}
}

func (r *ShowroomRepository) Create(ctx context.Context, room *showroom.Showroom) error {
	if _, err := r.coll.InsertOne(ctx, toShowroomDoc(room, 1)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return showroom.ErrShowroomAlreadyExists
		}
		return apperror.NewStorageError("showroom.create", err)
	}
	room.Version = 1
	return nil
}

func (r *ShowroomRepository) GetByID(ctx context.Context, id string) (*showroom.Showroom, error) {
	var doc showroomDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, showroom.ErrShowroomNotFound
		}
		return nil, apperror.NewStorageError("showroom.get", err)
	}
	return doc.toEntity(), nil
}

func (r *ShowroomRepository) List(ctx context.Context) ([]*showroom.Showroom, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, apperror.NewStorageError("showroom.list", err)
	}
	var docs []showroomDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, apperror.NewStorageError("showroom.list", err)
	}
	rooms := make([]*showroom.Showroom, len(docs))
	for i := range docs {
		rooms[i] = docs[i].toEntity()
	}
	return rooms, nil
}

// Save は {_id, version} を条件にドキュメントを置き換える
func (r *ShowroomRepository) Save(ctx context.Context, room *showroom.Showroom) error {
	res, err := r.coll.ReplaceOne(ctx,
		bson.M{"_id": room.ID, "version": room.Version},
		toShowroomDoc(room, room.Version+1))
	if err != nil {
		return apperror.NewStorageError("showroom.save", err)
	}
	if res.MatchedCount == 0 {
		n, err := r.coll.CountDocuments(ctx, bson.M{"_id": room.ID})
		if err != nil {
			return apperror.NewStorageError("showroom.save", err)
		}
		if n == 0 {
			return showroom.ErrShowroomNotFound
		}
		return apperror.ErrVersionConflict
	}
	room.Version++
	return nil
}

func (r *ShowroomRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return apperror.NewStorageError("showroom.delete", err)
	}
	if res.DeletedCount == 0 {
		return showroom.ErrShowroomNotFound
	}
	return nil
}
