//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"chat-relay/domain"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself; the supervisor does.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker,
// avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Peer is the writable side of one client connection. Send serializes a
// frame onto the wire; implementations must be safe for concurrent use.
type Peer interface {
	Send(frame any) error
	Close() error
	RemoteAddr() string
}

// Classifier scores message text for sentiment. Positive scores lean
// happy, negative lean sad or angry; domain.MoodForScore applies the
// threshold policy.
type Classifier interface {
	Score(text string) float64
}

// HistoryStore is the durable append-only log of messages per pair.
type HistoryStore interface {
	Append(pair domain.PairKey, message domain.Message) error
	Read(pair domain.PairKey, limit int) ([]domain.Message, error)
}

// MessageIndex receives every persisted message for full-text search.
type MessageIndex interface {
	Index(pair domain.PairKey, message domain.Message) error
}

type IDirectory interface {
	Members(groupID string) []string
}
