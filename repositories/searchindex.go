package repositories

import (
	"context"
	"log/slog"
	"time"

	"github.com/blugelabs/bluge"

	"chat-relay/domain"
)

// SearchIndex maintains a Bluge full-text index over persisted messages.
// Each document carries the pair key and both participants as keyword
// fields, so a search can be restricted to conversations the requesting
// user actually took part in.
type SearchIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewSearchIndex(writer *bluge.Writer, log *slog.Logger) *SearchIndex {
	return &SearchIndex{writer: writer, log: log}
}

type SearchHit struct {
	ID     string    `json:"id"`
	Pair   string    `json:"pair"`
	Sender string    `json:"sender"`
	Body   string    `json:"body"`
	At     time.Time `json:"at"`
}

func (s *SearchIndex) Index(pair domain.PairKey, message domain.Message) error {
	left, right := pair.Users()
	doc := bluge.NewDocument(message.ID.String()).
		AddField(bluge.NewKeywordField("pair", string(pair)).StoreValue()).
		AddField(bluge.NewKeywordField("participant", left)).
		AddField(bluge.NewKeywordField("participant", right)).
		AddField(bluge.NewKeywordField("sender", message.Sender).StoreValue()).
		AddField(bluge.NewTextField("body", message.Body).StoreValue()).
		AddField(bluge.NewDateTimeField("at", message.CreatedAt).StoreValue())
	return s.writer.Update(doc.ID(), doc)
}

// Search runs a match query over message bodies, restricted to pairs
// involving the given user, returning at most limit hits.
func (s *SearchIndex) Search(ctx context.Context, user, terms string, limit int) ([]SearchHit, error) {
	reader, err := s.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			s.log.Warn("Closing index reader failed", "error", err)
		}
	}()

	query := bluge.NewBooleanQuery().
		AddMust(bluge.NewMatchQuery(terms).SetField("body")).
		AddMust(bluge.NewTermQuery(user).SetField("participant"))

	iterator, err := reader.Search(ctx, bluge.NewTopNSearch(limit, query))
	if err != nil {
		return nil, err
	}

	var hits []SearchHit
	for {
		match, err := iterator.Next()
		if err != nil {
			return nil, err
		}
		if match == nil {
			break
		}
		var hit SearchHit
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				hit.ID = string(value)
			case "pair":
				hit.Pair = string(value)
			case "sender":
				hit.Sender = string(value)
			case "body":
				hit.Body = string(value)
			case "at":
				if at, err := bluge.DecodeDateTime(value); err == nil {
					hit.At = at
				}
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	return hits, nil
}
