package service

import (
	"context"
	"sort"
	"sync"

	"card-game-bot/internal/model"
	"card-game-bot/internal/repository"
)

type memUsers struct {
	mu    sync.Mutex
	names map[int64]string
}

func newMemUsers() *memUsers { return &memUsers{names: map[int64]string{}} }

func (m *memUsers) Upsert(_ context.Context, id int64, username string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.names[id] = username
	return &model.User{TelegramID: id, Username: username}, nil
}

type memCounts struct {
	mu     sync.Mutex
	counts map[int64]int64
}

func newMemCounts() *memCounts { return &memCounts{counts: map[int64]int64{}} }

func (m *memCounts) Increment(_ context.Context, id int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[id]++
	return m.counts[id], nil
}

func (m *memCounts) Get(_ context.Context, id int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.counts[id]
	if !ok {
		return 0, repository.ErrCountNotFound
	}
	return n, nil
}

func (m *memCounts) Add(_ context.Context, id int64, amount int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.counts[id]
	if !ok {
		return 0, repository.ErrCountNotFound
	}
	m.counts[id] = max(n+amount, 0)
	return m.counts[id], nil
}

func (m *memCounts) Top(_ context.Context, limit int) ([]*model.CountEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.CountEntry
	for id, n := range m.counts {
		out = append(out, &model.CountEntry{UserID: id, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].UserID < out[j].UserID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memDibs struct {
	byUser map[int64]int64
}

func newMemDibs() *memDibs { return &memDibs{byUser: map[int64]int64{}} }

func (m *memDibs) Create(_ context.Context, id, number int64) error {
	if _, ok := m.byUser[id]; ok {
		return repository.ErrDibTaken
	}
	for _, n := range m.byUser {
		if n == number {
			return repository.ErrDibTaken
		}
	}
	m.byUser[id] = number
	return nil
}

func (m *memDibs) Delete(_ context.Context, id int64) error {
	if _, ok := m.byUser[id]; !ok {
		return repository.ErrDibNotFound
	}
	delete(m.byUser, id)
	return nil
}

func (m *memDibs) List(context.Context) ([]*model.Dib, error) {
	var out []*model.Dib
	for id, n := range m.byUser {
		out = append(out, &model.Dib{UserID: id, Number: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

type memMatches struct {
	created []*model.MatchResult
	limit   int
}

func (m *memMatches) Create(_ context.Context, r *model.MatchResult) error {
	m.created = append(m.created, r)
	return nil
}

func (m *memMatches) TopWinners(_ context.Context, game string, limit int) ([]*model.WinRank, error) {
	m.limit = limit
	wins := map[int64]int64{}
	for _, r := range m.created {
		if game == "" || r.Game == game {
			wins[r.WinnerID]++
		}
	}
	var out []*model.WinRank
	for id, n := range wins {
		out = append(out, &model.WinRank{UserID: id, Wins: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Wins > out[j].Wins })
	return out, nil
}

func (m *memMatches) CountWins(_ context.Context, id int64) (int64, error) {
	var n int64
	for _, r := range m.created {
		if r.WinnerID == id {
			n++
		}
	}
	return n, nil
}
