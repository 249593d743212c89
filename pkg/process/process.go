package process

import (
	"context"
	"fmt"
	"sync"

	"github.com/sf7293/widget-manager/internal/domain"
	"github.com/sf7293/widget-manager/internal/errval"
)

// Process executes one task kind. Implementations re-fetch the widgets they work on.
type Process interface {
	Kind() domain.TaskKind
	Execute(ctx context.Context, task domain.Task) error
}

// Registry maps task kinds to the process executing them.
type Registry struct {
	mu        sync.RWMutex
	processes map[domain.TaskKind]Process
}

func NewRegistry(processes ...Process) *Registry {
	r := &Registry{processes: make(map[domain.TaskKind]Process, len(processes))}
	for _, p := range processes {
		r.Register(p)
	}

	return r
}

func (r *Registry) Register(p Process) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processes[p.Kind()] = p
}

// NewProcess returns the process registered for taskKind.
func (r *Registry) NewProcess(taskKind domain.TaskKind) (Process, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.processes[taskKind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errval.ErrInvalidTaskKind, taskKind)
	}

	return p, nil
}
