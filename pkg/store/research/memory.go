package research

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/de-tools/bacc-research/pkg/models/store"
)

type memoryStore struct {
	mu      sync.RWMutex
	records map[string]*store.ResearchRecord
	order   []string
	now     func() time.Time
}

// NewMemoryStore returns a process-local Store. Records are lost on restart.
func NewMemoryStore() Store {
	return &memoryStore{
		records: make(map[string]*store.ResearchRecord),
		now:     time.Now,
	}
}

func (m *memoryStore) Upsert(_ context.Context, update store.ResearchUpdate) (*store.ResearchRecord, error) {
	if update.SessionID == "" {
		return nil, ErrMissingSessionID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	rec, ok := m.records[update.SessionID]
	if !ok {
		created := store.NewResearchRecord(update, now)
		rec = &created
		m.records[update.SessionID] = rec
		m.order = append(m.order, update.SessionID)
	} else {
		rec.Apply(update, now)
	}

	out := clone(*rec)
	return &out, nil
}

func (m *memoryStore) Get(_ context.Context, sessionID string) (*store.ResearchRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	out := clone(*rec)
	return &out, nil
}

func (m *memoryStore) List(_ context.Context) ([]store.ResearchRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]store.ResearchRecord, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, clone(*m.records[id]))
	}
	slices.SortStableFunc(out, func(a, b store.ResearchRecord) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

func (m *memoryStore) Ping(context.Context) error { return nil }

func (m *memoryStore) Close(context.Context) error { return nil }

func clone(r store.ResearchRecord) store.ResearchRecord {
	out := r
	out.CalculatorData = make(map[string]store.CalculatorEntry, len(r.CalculatorData))
	for k, v := range r.CalculatorData {
		out.CalculatorData[k] = v
	}
	out.SurveyData = make(map[string]store.SurveyEntry, len(r.SurveyData))
	for k, v := range r.SurveyData {
		out.SurveyData[k] = v
	}
	out.Metadata = make(store.Answers, len(r.Metadata))
	for k, v := range r.Metadata {
		out.Metadata[k] = v
	}
	out.CompletionStatus = make(store.Answers, len(r.CompletionStatus))
	for k, v := range r.CompletionStatus {
		out.CompletionStatus[k] = v
	}
	return out
}
