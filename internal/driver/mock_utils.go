package driver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/agenthands/aurehal/internal/core/model"
)

// MockReferential is an in-memory Referential for tests. Errs is keyed by
// "operation:id", e.g. "describe:520677".
type MockReferential struct {
	Children     map[model.ID][]model.ID
	Parents      map[model.ID][]model.ID
	Descriptions map[model.ID]model.Description
	Counts       map[model.ID]int
	Errs         map[string]error
	Delay        time.Duration

	mu          sync.Mutex
	calls       map[string]int
	inFlight    int
	maxInFlight int
}

func (m *MockReferential) FindChildren(ctx context.Context, id model.ID) ([]model.ID, error) {
	if err := m.enter(ctx, OpFindChildren, id); err != nil {
		return nil, err
	}
	defer m.leave()
	return m.Children[id], nil
}

func (m *MockReferential) FindParents(ctx context.Context, id model.ID) ([]model.ID, error) {
	if err := m.enter(ctx, OpFindParents, id); err != nil {
		return nil, err
	}
	defer m.leave()
	return m.Parents[id], nil
}

func (m *MockReferential) Describe(ctx context.Context, id model.ID) (*model.Description, error) {
	if err := m.enter(ctx, OpDescribe, id); err != nil {
		return nil, err
	}
	defer m.leave()
	d, ok := m.Descriptions[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (m *MockReferential) CountPublications(ctx context.Context, id model.ID) (*int, error) {
	if err := m.enter(ctx, OpCountPublications, id); err != nil {
		return nil, err
	}
	defer m.leave()
	n, ok := m.Counts[id]
	if !ok {
		return nil, nil
	}
	return &n, nil
}

// Calls reports how many times op was invoked for id.
func (m *MockReferential) Calls(op Operation, id model.ID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[key(op, id)]
}

// TotalCalls reports how many times op was invoked for any id.
func (m *MockReferential) TotalCalls(op Operation) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	prefix := string(op) + ":"
	for k, n := range m.calls {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			total += n
		}
	}
	return total
}

// MaxInFlight is the highest number of concurrent calls observed.
func (m *MockReferential) MaxInFlight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxInFlight
}

func (m *MockReferential) enter(ctx context.Context, op Operation, id model.ID) error {
	m.mu.Lock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[key(op, id)]++
	m.inFlight++
	if m.inFlight > m.maxInFlight {
		m.maxInFlight = m.inFlight
	}
	err := m.Errs[key(op, id)]
	m.mu.Unlock()

	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			m.leave()
			return ctx.Err()
		}
	}
	if err != nil {
		m.leave()
		return err
	}
	return nil
}

func (m *MockReferential) leave() {
	m.mu.Lock()
	m.inFlight--
	m.mu.Unlock()
}

func key(op Operation, id model.ID) string {
	return fmt.Sprintf("%s:%s", op, id)
}
