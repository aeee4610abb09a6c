//go:generate go run go.uber.org/mock/mockgen -source=history.go -destination=../mocks/mock_history_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"chat-relay/domain"
)

type IHistoryRepository interface {
	Append(pair domain.PairKey, message domain.Message) error
	Read(pair domain.PairKey, limit int) ([]domain.Message, error)
	Peers(user string) ([]string, error)
}

// HistoryRepository persists per-pair message logs in BadgerDB.
// The key is formatted as "msg:{pair}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding
//     (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two
//     messages land on the same nanosecond.
//
// A "contact:{user}:{peer}" marker is written per direction so the
// derived contact relation can be answered with a cheap prefix scan.
type HistoryRepository struct {
	db       *badger.DB
	log      *slog.Logger
	maxLimit int
}

func NewHistoryRepository(db *badger.DB, log *slog.Logger, maxLimit int) HistoryRepository {
	return HistoryRepository{db: db, log: log, maxLimit: maxLimit}
}

type diskMessage struct {
	ID        string      `json:"id"`
	Sender    string      `json:"sender"`
	Recipient string      `json:"recipient"`
	Body      string      `json:"body"`
	Mood      domain.Mood `json:"mood"`
	At        int64       `json:"at"`
}

func (h HistoryRepository) Append(pair domain.PairKey, message domain.Message) error {
	key := fmt.Sprintf("msg:%s:%019d:%s", pair, message.CreatedAt.UnixNano(), message.ID)
	value, err := json.Marshal(fromMessage(message))
	if err != nil {
		return err
	}

	left, right := pair.Users()
	return h.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(key), value); err != nil {
			return err
		}
		if err := txn.Set(contactKey(left, right), nil); err != nil {
			return err
		}
		return txn.Set(contactKey(right, left), nil)
	})
}

// Read returns at most limit of the most recent messages for the pair,
// oldest first within the returned window. The configured maximum caps
// any requested limit; zero or negative means "use the maximum".
func (h HistoryRepository) Read(pair domain.PairKey, limit int) ([]domain.Message, error) {
	if limit <= 0 || limit > h.maxLimit {
		limit = h.maxLimit
	}

	var values [][]byte
	err := h.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("msg:%s:", pair))
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek past the newest possible timestamp, then walk backwards.
		seekKey := append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if len(values) == limit {
				break
			}
			err := it.Item().Value(func(value []byte) error {
				values = append(values, append([]byte{}, value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	messages := make([]domain.Message, 0, len(values))
	for i := len(values) - 1; i >= 0; i-- {
		message, err := toMessage(values[i])
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}

// Peers lists everyone the user has exchanged messages with. The
// relation is derived from observed traffic, not authoritative.
func (h HistoryRepository) Peers(user string) ([]string, error) {
	var peers []string
	err := h.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("contact:%s:", user))
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			peers = append(peers, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(peers)
	return lo.Uniq(peers), nil
}

func contactKey(user, peer string) []byte {
	return []byte(strings.Join([]string{"contact", user, peer}, ":"))
}

func fromMessage(message domain.Message) diskMessage {
	return diskMessage{
		ID:        message.ID.String(),
		Sender:    message.Sender,
		Recipient: message.Recipient,
		Body:      message.Body,
		Mood:      message.Mood,
		At:        message.CreatedAt.UnixNano(),
	}
}

func toMessage(value []byte) (domain.Message, error) {
	var dm diskMessage
	if err := json.Unmarshal(value, &dm); err != nil {
		return domain.Message{}, err
	}
	parsedID, err := uuid.Parse(dm.ID)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:        parsedID,
		Sender:    dm.Sender,
		Recipient: dm.Recipient,
		Body:      dm.Body,
		Mood:      dm.Mood,
		CreatedAt: time.Unix(0, dm.At).UTC(),
	}, nil
}
