package delivery

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/skalola/3kathletez/internal"
)

// Submitter is the narrow contract with the external notification
// collaborator. The engine tracks the handle ids it receives so stale
// reminders can be cancelled on replanning; it never retries internally.
type Submitter interface {
	Submit(d internal.ReminderDescriptor) (string, error)
	Cancel(handleID string) error
}

// MemorySubmitter keeps pending descriptors in memory. It backs the
// development server and the engine tests.
type MemorySubmitter struct {
	mu      sync.Mutex
	pending map[string]internal.ReminderDescriptor
	logger  internal.Logger
}

func NewMemorySubmitter(logger internal.Logger) *MemorySubmitter {
	return &MemorySubmitter{
		pending: make(map[string]internal.ReminderDescriptor),
		logger:  logger,
	}
}

func (m *MemorySubmitter) Submit(d internal.ReminderDescriptor) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.NewString()
	m.pending[id] = d
	if m.logger != nil {
		m.logger.Debugf("delivery: scheduled %q (%s) at %s", d.Title, d.CorrelationID, d.TriggerTime)
	}
	return id, nil
}

func (m *MemorySubmitter) Cancel(handleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pending[handleID]; !ok {
		return errors.New("delivery: unknown handle")
	}
	delete(m.pending, handleID)
	return nil
}

// Pending returns a copy of the live descriptors, keyed by handle id.
func (m *MemorySubmitter) Pending() map[string]internal.ReminderDescriptor {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]internal.ReminderDescriptor, len(m.pending))
	for k, v := range m.pending {
		out[k] = v
	}
	return out
}

var _ Submitter = (*MemorySubmitter)(nil)
