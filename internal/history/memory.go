package history

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/park285/cheese-arena/pkg/arenadto"
)

// memrepo keeps records in process. Used when no DATABASE_URL is configured.
type memrepo struct {
	mu   sync.RWMutex
	max  int
	byID map[string]*arenadto.GameRecord
	list []*arenadto.GameRecord
}

// NewMemoryRepository keeps at most max records (oldest evicted first). max <= 0 means 1000.
func NewMemoryRepository(max int) Repository {
	if max <= 0 {
		max = 1000
	}
	return &memrepo{max: max, byID: make(map[string]*arenadto.GameRecord)}
}

func (m *memrepo) SaveGame(ctx context.Context, rec arenadto.GameRecord) error {
	id := strings.TrimSpace(rec.ID)
	if id == "" {
		return ErrDuplicateGame
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byID[id]; exists {
		return ErrDuplicateGame
	}
	copy := cloneRecord(rec)
	m.byID[id] = &copy
	m.list = append(m.list, &copy)
	for len(m.list) > m.max {
		delete(m.byID, m.list[0].ID)
		m.list = m.list[1:]
	}
	return nil
}

func (m *memrepo) RecentGames(ctx context.Context, limit int) ([]arenadto.GameRecord, error) {
	limit = clampLimit(limit)
	m.mu.RLock()
	items := append([]*arenadto.GameRecord(nil), m.list...)
	m.mu.RUnlock()

	// EndedAt desc, then game number desc
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].EndedAt.Equal(items[j].EndedAt) {
			return items[i].EndedAt.After(items[j].EndedAt)
		}
		return items[i].Game > items[j].Game
	})
	if len(items) > limit {
		items = items[:limit]
	}
	out := make([]arenadto.GameRecord, 0, len(items))
	for _, it := range items {
		out = append(out, cloneRecord(*it))
	}
	return out, nil
}

func (m *memrepo) GetGame(ctx context.Context, id string) (*arenadto.GameRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.byID[strings.TrimSpace(id)]
	if !ok || g == nil {
		return nil, nil
	}
	copy := cloneRecord(*g)
	return &copy, nil
}

func (m *memrepo) Close() error { return nil }

func cloneRecord(rec arenadto.GameRecord) arenadto.GameRecord {
	rec.MovesUCI = append([]string(nil), rec.MovesUCI...)
	rec.MovesSAN = append([]string(nil), rec.MovesSAN...)
	return rec
}
