package services

import (
	"context"

	"chat-relay/domain"
	"chat-relay/repositories"
)

type IHistoryService interface {
	Messages(user, peer string, limit int) ([]domain.Message, error)
	Contacts(user string) ([]string, error)
	Search(ctx context.Context, user, terms string, limit int) ([]repositories.SearchHit, error)
}

// HistoryService answers read-side queries over the durable store and
// the search index. It lives outside the duplex channel entirely.
type HistoryService struct {
	history repositories.IHistoryRepository
	index   *repositories.SearchIndex
}

func NewHistoryService(history repositories.IHistoryRepository,
	index *repositories.SearchIndex) *HistoryService {
	return &HistoryService{history: history, index: index}
}

// Messages returns the most recent window of the pair's history,
// oldest first. An unknown user or empty history yields an empty slice.
func (s *HistoryService) Messages(user, peer string, limit int) ([]domain.Message, error) {
	return s.history.Read(domain.NewPairKey(user, peer), limit)
}

func (s *HistoryService) Contacts(user string) ([]string, error) {
	return s.history.Peers(user)
}

func (s *HistoryService) Search(ctx context.Context, user, terms string, limit int) ([]repositories.SearchHit, error) {
	return s.index.Search(ctx, user, terms, limit)
}
