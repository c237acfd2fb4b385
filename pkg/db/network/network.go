package network

import (
	"context"
	"fmt"
	"time"

	"github.com/gitmesh/gitmesh/pkg/db/peer"
	"github.com/gitmesh/gitmesh/pkg/db/repository"
	"github.com/gitmesh/gitmesh/pkg/db/user"
)

type Stats struct {
	TotalUsers        int64 `json:"totalUsers"`
	TotalRepositories int64 `json:"totalRepositories"`
	ActivePeers       int64 `json:"activePeers"`
	TotalStorage      int64 `json:"totalStorage"`
}

type Aggregator interface {
	Stats(ctx context.Context, now time.Time) (*Stats, error)
}

type aggregator struct {
	users user.DBService
	repos repository.DBService
	peers peer.DBService
}

func NewAggregator(users user.DBService, repos repository.DBService, peers peer.DBService) Aggregator {
	return &aggregator{users: users, repos: repos, peers: peers}
}

// Stats is recomputed on every call.
func (a *aggregator) Stats(ctx context.Context, now time.Time) (*Stats, error) {
	var (
		stats Stats
		err   error
	)
	if stats.TotalUsers, err = a.users.Count(ctx); err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	if stats.TotalRepositories, err = a.repos.Count(ctx); err != nil {
		return nil, fmt.Errorf("count repositories: %w", err)
	}
	if stats.ActivePeers, err = a.peers.CountActive(ctx, now); err != nil {
		return nil, fmt.Errorf("count active peers: %w", err)
	}
	if stats.TotalStorage, err = a.users.SumStorageUsed(ctx); err != nil {
		return nil, fmt.Errorf("sum storage: %w", err)
	}
	return &stats, nil
}
