package upstream

import (
	"context"
	"log/slog"

	"rftrank/internal"
	"rftrank/internal/config"
	"rftrank/internal/ranking"
)

// SyncService chains the upstream product-list fetch directly into the batch
// ranker. The legacy system forwarded the fetched list over loopback HTTP to
// its own batch endpoint; here the second hop is an in-process call.
type SyncService struct {
	client *Client
	engine *ranking.Engine
}

func NewSyncService(cfg config.Config, engine *ranking.Engine) *SyncService {
	return &SyncService{client: NewClient(cfg), engine: engine}
}

// FetchAndRank fetches the upstream product list and resolves every code to
// its recommended process order. Per-code failures stay in-band; only the
// fetch itself can fail.
func (s *SyncService) FetchAndRank(ctx context.Context) (internal.ResolvedList, error) {
	list, err := s.client.FetchProductList(ctx)
	if err != nil {
		return internal.ResolvedList{}, err
	}

	resolved := s.engine.RankList(list)

	failed := 0
	for _, p := range resolved.Product {
		if p.Error != "" {
			failed++
		}
	}
	slog.Info("upstream sync ranked", "codes", len(resolved.Product), "failed", failed)

	return resolved, nil
}
