package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/hivefund/ledger/internal/calculator"
	"github.com/hivefund/ledger/internal/ledger"
	"github.com/hivefund/ledger/pkg/api"
	"github.com/hivefund/ledger/pkg/api/apiconnect"
)

// LeaderboardService implements the Connect LeaderboardService.
type LeaderboardService struct {
	apiconnect.UnimplementedLeaderboardServiceHandler
	leaderboard *ledger.Leaderboard
}

func NewLeaderboardService(leaderboard *ledger.Leaderboard) *LeaderboardService {
	return &LeaderboardService{leaderboard: leaderboard}
}

// GetLeaderboard ranks donors for a timeframe and optional category.
func (s *LeaderboardService) GetLeaderboard(ctx context.Context, req *connect.Request[api.GetLeaderboardRequest]) (*connect.Response[api.GetLeaderboardResponse], error) {
	entries, err := s.leaderboard.GetLeaderboard(ctx, ledger.LeaderboardQuery{
		Timeframe: req.Msg.Timeframe,
		Category:  req.Msg.Category,
		Limit:     int(req.Msg.Limit),
	})
	if err != nil {
		return nil, toConnectError(err)
	}

	// Already validated by the leaderboard.
	timeframe, _ := calculator.ParseTimeframe(req.Msg.Timeframe)

	slog.Debug("GetLeaderboard successful",
		"timeframe", timeframe,
		"category", req.Msg.Category,
		"entries", len(entries),
	)

	return connect.NewResponse(&api.GetLeaderboardResponse{
		Timeframe: string(timeframe),
		Entries:   toAPIEntries(entries),
	}), nil
}
