package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/apperror"
	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/showroom"
)

// showtimeDoc は showrooms.showtimes (JSONB) の要素
type showtimeDoc struct {
	MovieID     string    `json:"movie_id"`
	Start       time.Time `json:"start"`
	RoomID      string    `json:"room_id"`
	BookedSeats []string  `json:"booked_seats"`
}

type showroomRow struct {
	ID        string    `db:"id"`
	Showtimes []byte    `db:"showtimes"`
	Version   int64     `db:"version"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r *showroomRow) toEntity() (*showroom.Showroom, error) {
	var docs []showtimeDoc
	if len(r.Showtimes) > 0 {
		if err := json.Unmarshal(r.Showtimes, &docs); err != nil {
			return nil, fmt.Errorf("上映回のデコードに失敗: %w", err)
		}
	}
	room := &showroom.Showroom{
		ID:        r.ID,
		Showtimes: make([]showroom.Showtime, len(docs)),
		Version:   r.Version,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	for i, d := range docs {
		seats := d.BookedSeats
		if seats == nil {
			seats = []string{}
		}
		room.Showtimes[i] = showroom.Showtime{
			MovieID:     d.MovieID,
			Start:       d.Start.UTC(),
			RoomID:      d.RoomID,
			BookedSeats: seats,
		}
	}
	return room, nil
}

func encodeShowtimes(showtimes []showroom.Showtime) ([]byte, error) {
	docs := make([]showtimeDoc, len(showtimes))
	for i, st := range showtimes {
		seats := st.BookedSeats
		if seats == nil {
			seats = []string{}
		}
		docs[i] = showtimeDoc{
			MovieID:     st.MovieID,
			Start:       st.Start.UTC(),
			RoomID:      st.RoomID,
			BookedSeats: seats,
		}
	}
	return json.Marshal(docs)
}

// ShowroomRepository は上映室を1行1ドキュメントで保存する
type ShowroomRepository struct{ db *sqlx.DB }

func NewShowroomRepository(db *sqlx.DB) *ShowroomRepository {
	return &ShowroomRepository{db: db}
}

const selectShowroom = `SELECT id, showtimes, version, created_at, updated_at FROM showrooms`

func (r *ShowroomRepository) Create(ctx context.Context, room *showroom.Showroom) error {
	data, err := encodeShowtimes(room.Showtimes)
	if err != nil {
		return err
	}
	query := `INSERT INTO showrooms (id, showtimes, version, created_at, updated_at) VALUES ($1, $2, 1, $3, $4)`
	if _, err := r.db.ExecContext(ctx, query, room.ID, data, room.CreatedAt, room.UpdatedAt); err != nil {
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return showroom.ErrShowroomAlreadyExists
		}
		return apperror.NewStorageError("showroom.create", err)
	}
	room.Version = 1
	return nil
}

func (r *ShowroomRepository) GetByID(ctx context.Context, id string) (*showroom.Showroom, error) {
	var row showroomRow
	if err := r.db.GetContext(ctx, &row, selectShowroom+` WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, showroom.ErrShowroomNotFound
		}
		return nil, apperror.NewStorageError("showroom.get", err)
	}
	return row.toEntity()
}

func (r *ShowroomRepository) List(ctx context.Context) ([]*showroom.Showroom, error) {
	var rows []showroomRow
	if err := r.db.SelectContext(ctx, &rows, selectShowroom+` ORDER BY id`); err != nil {
		return nil, apperror.NewStorageError("showroom.list", err)
	}
	rooms := make([]*showroom.Showroom, 0, len(rows))
	for i := range rows {
		room, err := rows[i].toEntity()
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}

// Save はバージョン一致を条件にドキュメント全体を置き換える
func (r *ShowroomRepository) Save(ctx context.Context, room *showroom.Showroom) error {
	data, err := encodeShowtimes(room.Showtimes)
	if err != nil {
		return err
	}
	err = withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE showrooms SET showtimes = $1, version = version + 1, updated_at = $2 WHERE id = $3 AND version = $4`,
			data, room.UpdatedAt, room.ID, room.Version)
		if err != nil {
			return apperror.NewStorageError("showroom.save", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return apperror.NewStorageError("showroom.save", err)
		}
		if n > 0 {
			return nil
		}
		var exists bool
		if err := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM showrooms WHERE id = $1)`, room.ID); err != nil {
			return apperror.NewStorageError("showroom.save", err)
		}
		if !exists {
			return showroom.ErrShowroomNotFound
		}
		return apperror.ErrVersionConflict
	})
	if err != nil {
		return err
	}
	room.Version++
	return nil
}

func (r *ShowroomRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM showrooms WHERE id = $1`, id)
	if err != nil {
		return apperror.NewStorageError("showroom.delete", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return showroom.ErrShowroomNotFound
	}
	return nil
}
