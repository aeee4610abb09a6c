package repositories

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/stretchr/testify/require"

	"chat-relay/domain"
)

func openTestIndex(t *testing.T) *SearchIndex {
	t.Helper()
	writer, err := bluge.OpenWriter(bluge.InMemoryOnlyConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })
	return NewSearchIndex(writer, slog.Default())
}

func indexMessage(t *testing.T, index *SearchIndex, sender, recipient, body string) {
	t.Helper()
	message := domain.NewMessage(sender, recipient, body, domain.MoodNeutral, time.Now().UTC())
	require.NoError(t, index.Index(domain.NewPairKey(sender, recipient), message))
}

func TestSearchIndex_Match_Query_On_Body(t *testing.T) {
	req := require.New(t)
	index := openTestIndex(t)

	indexMessage(t, index, "alice", "bob", "deploy the new release tonight")
	indexMessage(t, index, "alice", "bob", "lunch tomorrow?")

	hits, err := index.Search(context.Background(), "alice", "release", 10)
	req.NoError(err)
	req.Len(hits, 1)
	req.Equal("alice", hits[0].Sender)
	req.Equal("deploy the new release tonight", hits[0].Body)
	req.Equal(string(domain.NewPairKey("alice", "bob")), hits[0].Pair)
}

func TestSearchIndex_Restricts_Hits_To_Participant(t *testing.T) {
	req := require.New(t)
	index := openTestIndex(t)

	indexMessage(t, index, "alice", "bob", "the secret launch date")
	indexMessage(t, index, "carol", "dave", "another launch entirely")

	hits, err := index.Search(context.Background(), "alice", "launch", 10)
	req.NoError(err)
	req.Len(hits, 1)
	req.Equal("alice", hits[0].Sender)

	hits, err = index.Search(context.Background(), "mallory", "launch", 10)
	req.NoError(err)
	req.Empty(hits)
}

func TestSearchIndex_Honors_Limit(t *testing.T) {
	req := require.New(t)
	index := openTestIndex(t)

	for i := 0; i < 5; i++ {
		indexMessage(t, index, "alice", "bob", "coffee break soon")
	}

	hits, err := index.Search(context.Background(), "alice", "coffee", 2)
	req.NoError(err)
	req.Len(hits, 2)
}
