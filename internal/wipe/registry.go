package wipe

import (
	"fmt"
	"sync"
)

// Registry гарантирует эксклюзивный доступ к цели: вторая сессия против
// той же identity отклоняется, пока первая активна. Сессии против разных
// целей выполняются параллельно.
type Registry struct {
	mu     sync.Mutex
	active map[string]string // identity -> session id
}

// NewRegistry создает пустой реестр активных сессий
func NewRegistry() *Registry {
	return &Registry{
		active: make(map[string]string),
	}
}

func (r *Registry) acquire(identity, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if holder, busy := r.active[identity]; busy {
		return fmt.Errorf("%w: %s (session %s)", ErrTargetBusy, identity, holder)
	}

	r.active[identity] = sessionID
	return nil
}

func (r *Registry) release(identity string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, identity)
}

// ActiveSessions возвращает снимок активных сессий
func (r *Registry) ActiveSessions() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := make(map[string]string, len(r.active))
	for identity, id := range r.active {
		snapshot[identity] = id
	}
	return snapshot
}
