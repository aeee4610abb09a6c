package workers

import (
	"context"
	"log/slog"

	"chat-relay/contract"
	"chat-relay/domain"
)

// PersistWorker drains the write-through queue into the history store
// and the search index. Appending is best-effort: a failed write is
// logged and dropped, leaving a tolerated gap in history. There is no
// atomicity between "persisted" and "delivered"; the router has already
// delivered (or dropped) the message by the time the job lands here.
type PersistWorker struct {
	log   *slog.Logger
	store contract.HistoryStore
	index contract.MessageIndex
	jobs  <-chan domain.Append
}

func NewPersistWorker(log *slog.Logger, store contract.HistoryStore,
	index contract.MessageIndex, jobs <-chan domain.Append) *PersistWorker {
	return &PersistWorker{log: log, store: store, index: index, jobs: jobs}
}

func (w *PersistWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping persistence worker")
			return ctx.Err()
		case job, ok := <-w.jobs:
			if !ok {
				return nil
			}
			w.apply(job)
		}
	}
}

func (w *PersistWorker) apply(job domain.Append) {
	if err := w.store.Append(job.Pair, job.Message); err != nil {
		w.log.Warn("History append failed",
			"pair", job.Pair, "message_id", job.Message.ID, "error", err)
		return
	}
	if w.index == nil {
		return
	}
	if err := w.index.Index(job.Pair, job.Message); err != nil {
		w.log.Warn("Search indexing failed",
			"pair", job.Pair, "message_id", job.Message.ID, "error", err)
	}
}
