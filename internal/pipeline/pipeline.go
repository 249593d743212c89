package pipeline

import (
	"github.com/sf7293/widget-manager/internal/domain"
	"github.com/sf7293/widget-manager/pkg/process"
)

// NewRegistry wires the four pipeline tasks into a process registry for the worker.
func NewRegistry(storage domain.Storage, mailer domain.Mailer, locker domain.DistributedLock, tasks domain.TaskQueue, cfg Config) *process.Registry {
	return process.NewRegistry(
		NewRecordProcessor(storage, cfg),
		NewFollowUpNotifier(storage, mailer, locker, cfg),
		NewBatchDispatcher(storage, tasks, cfg),
		NewDailyAggregator(storage, mailer, cfg),
	)
}
