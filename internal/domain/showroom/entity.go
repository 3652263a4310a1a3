package showroom

import (
	"time"

	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/apperror"
)

// Showtime は上映回を表す。上映室内では (MovieID, Start) で一意に識別される
type Showtime struct {
	MovieID     string
	Start       time.Time
	RoomID      string
	BookedSeats []string
}

// Matches は (MovieID, Start) の組で上映回を照合する
// 開始時刻だけの照合は同時刻の別作品と衝突するため行わない
func (s *Showtime) Matches(movieID string, start time.Time) bool {
	return s.MovieID == movieID && s.Start.Equal(start)
}

func (s *Showtime) clone() Showtime {
	c := *s
	c.BookedSeats = append([]string(nil), s.BookedSeats...)
	return c
}

// Showroom は上映室エンティティ。上映回の一覧を順序付きで所有する
type Showroom struct {
	ID        string
	Showtimes []Showtime
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int64 // 楽観的ロック用
}

// NewShowroom は新しい上映室を作成する
func NewShowroom(id string) *Showroom {
	now := time.Now().UTC()
	return &Showroom{
		ID:        id,
		Showtimes: []Showtime{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate は上映室の検証を行う
func (r *Showroom) Validate() error {
	if r.ID == "" {
		return apperror.NewValidationError("showroom_id", "必須です")
	}
	return nil
}

// Clone はディープコピーを返す
func (r *Showroom) Clone() *Showroom {
	c := *r
	c.Showtimes = make([]Showtime, len(r.Showtimes))
	for i := range r.Showtimes {
		c.Showtimes[i] = r.Showtimes[i].clone()
	}
	return &c
}

// FindShowtime は (movieID, start) に一致する上映回の位置を返す
func (r *Showroom) FindShowtime(movieID string, start time.Time) (int, error) {
	for i := range r.Showtimes {
		if r.Showtimes[i].Matches(movieID, start) {
			return i, nil
		}
	}
	return -1, ErrShowtimeNotFound
}

// Showtime は一致する上映回のコピーを返す
func (r *Showroom) Showtime(movieID string, start time.Time) (Showtime, error) {
	i, err := r.FindShowtime(movieID, start)
	if err != nil {
		return Showtime{}, err
	}
	return r.Showtimes[i].clone(), nil
}

// AddShowtime は上映回を末尾に追加する
func (r *Showroom) AddShowtime(movieID string, start time.Time, roomID string) (Showtime, error) {
	if movieID == "" {
		return Showtime{}, apperror.NewValidationError("movie_id", "必須です")
	}
	if start.IsZero() {
		return Showtime{}, apperror.NewValidationError("start", "必須です")
	}
	if _, err := r.FindShowtime(movieID, start); err == nil {
		return Showtime{}, ErrShowtimeAlreadyExists
	}
	if roomID == "" {
		roomID = r.ID
	}
	st := Showtime{
		MovieID:     movieID,
		Start:       start.UTC(),
		RoomID:      roomID,
		BookedSeats: []string{},
	}
	r.Showtimes = append(r.Showtimes, st)
	r.touch()
	return st.clone(), nil
}

// RemoveShowtime は上映回を削除する。残りの順序は保持される
func (r *Showroom) RemoveShowtime(movieID string, start time.Time) (Showtime, error) {
	i, err := r.FindShowtime(movieID, start)
	if err != nil {
		return Showtime{}, err
	}
	removed := r.Showtimes[i]
	r.Showtimes = append(r.Showtimes[:i], r.Showtimes[i+1:]...)
	r.touch()
	return removed, nil
}

// BookSeats は重複チェックの上で座席を予約済み集合に追加する
// 1席でも予約済みなら何も変更せず SeatConflictError を返す
func (r *Showroom) BookSeats(movieID string, start time.Time, seats []string) (Showtime, error) {
	i, err := r.FindShowtime(movieID, start)
	if err != nil {
		return Showtime{}, err
	}
	st := &r.Showtimes[i]
	if taken := Intersect(st.BookedSeats, seats); len(taken) > 0 {
		return Showtime{}, &SeatConflictError{Seats: taken}
	}
	st.BookedSeats = Union(st.BookedSeats, seats)
	r.touch()
	return st.clone(), nil
}

// ReleaseSeats は指定された座席だけを予約済み集合から取り除く
func (r *Showroom) ReleaseSeats(movieID string, start time.Time, seats []string) (Showtime, error) {
	i, err := r.FindShowtime(movieID, start)
	if err != nil {
		return Showtime{}, err
	}
	st := &r.Showtimes[i]
	st.BookedSeats = Difference(st.BookedSeats, seats)
	r.touch()
	return st.clone(), nil
}

func (r *Showroom) touch() {
	r.UpdatedAt = time.Now().UTC()
}
