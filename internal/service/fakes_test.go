package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"ideogrid/internal/model"
)

// memSessions round-trips snapshots through JSON like the Redis cache does
type memSessions struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemSessions() *memSessions {
	return &memSessions{data: make(map[string][]byte)}
}

func (m *memSessions) Save(_ context.Context, snap model.SessionSnapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[snap.ID] = b
	return nil
}

func (m *memSessions) Load(_ context.Context, id string) (*model.SessionSnapshot, error) {
	m.mu.Lock()
	b, ok := m.data[id]
	m.mu.Unlock()
	if !ok {
		return nil, nil
	}
	var snap model.SessionSnapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (m *memSessions) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

type memResults struct {
	mu      sync.Mutex
	results map[string]model.Result
}

func newMemResults() *memResults {
	return &memResults{results: make(map[string]model.Result)}
}

func (m *memResults) Create(_ context.Context, sub *model.Submission) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := fmt.Sprintf("r%d", len(m.results)+1)
	m.results[id] = model.Result{ID: id, Submission: *sub}
	return id, nil
}

func (m *memResults) GetByID(_ context.Context, id string) (*model.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res, ok := m.results[id]
	if !ok {
		return nil, nil
	}
	return &res, nil
}

func (m *memResults) CountByMacro(context.Context) (map[model.MacroCode]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[model.MacroCode]int64)
	for _, r := range m.results {
		out[r.Macro]++
	}
	return out, nil
}

type memTally struct {
	mu     sync.Mutex
	counts map[model.TallyKind]map[string]int64
}

func newMemTally() *memTally {
	return &memTally{counts: make(map[model.TallyKind]map[string]int64)}
}

func (m *memTally) Increment(ctx context.Context, kind model.TallyKind, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts[kind] == nil {
		m.counts[kind] = make(map[string]int64)
	}
	m.counts[kind][key]++
	return nil
}

func (m *memTally) Set(_ context.Context, kind model.TallyKind, key string, count int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts[kind] == nil {
		m.counts[kind] = make(map[string]int64)
	}
	m.counts[kind][key] = count
	return nil
}

func (m *memTally) Top(_ context.Context, kind model.TallyKind, limit int) ([]model.TallyEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.TallyEntry
	for k, n := range m.counts[kind] {
		out = append(out, model.TallyEntry{Key: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	if len(out) > limit {
		out = out[:limit]
	}
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, nil
}

type event struct {
	session string
	msgType string
	payload interface{}
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []event
	closed []string
}

func (r *recordingNotifier) Notify(sessionID, msgType string, payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event{sessionID, msgType, payload})
}

func (r *recordingNotifier) CloseSession(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = append(r.closed, sessionID)
}

func (r *recordingNotifier) count(msgType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.msgType == msgType {
			n++
		}
	}
	return n
}
