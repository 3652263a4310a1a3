// Package memory はテストとローカル実行用のインメモリストアを提供する
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/apperror"
	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/showroom"
)

// ShowroomRepository はインメモリの上映室リポジトリ
// 保存・取得のたびにディープコピーし、呼び出し側との共有を防ぐ
type ShowroomRepository struct {
	mu    sync.RWMutex
	rooms map[string]*showroom.Showroom
}

func NewShowroomRepository() *ShowroomRepository {
	return &ShowroomRepository{rooms: make(map[string]*showroom.Showroom)}
}

func (r *ShowroomRepository) Create(ctx context.Context, room *showroom.Showroom) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[room.ID]; ok {
		return showroom.ErrShowroomAlreadyExists
	}
	room.Version = 1
	r.rooms[room.ID] = room.Clone()
	return nil
}

func (r *ShowroomRepository) GetByID(ctx context.Context, id string) (*showroom.Showroom, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[id]
	if !ok {
		return nil, showroom.ErrShowroomNotFound
	}
	return room.Clone(), nil
}

func (r *ShowroomRepository) List(ctx context.Context) ([]*showroom.Showroom, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*showroom.Showroom, 0, len(r.rooms))
	for _, room := range r.rooms {
		out = append(out, room.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *ShowroomRepository) Save(ctx context.Context, room *showroom.Showroom) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.rooms[room.ID]
	if !ok {
		return showroom.ErrShowroomNotFound
	}
	if current.Version != room.Version {
		return apperror.ErrVersionConflict
	}
	room.Version++
	r.rooms[room.ID] = room.Clone()
	return nil
}

func (r *ShowroomRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[id]; !ok {
		return showroom.ErrShowroomNotFound
	}
	delete(r.rooms, id)
	return nil
}
