package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/hivefund/ledger/internal/ledger"
	"github.com/hivefund/ledger/internal/middleware"
	"github.com/hivefund/ledger/pkg/api"
	"github.com/hivefund/ledger/pkg/api/apiconnect"
)

// MatchService implements the Connect MatchService.
type MatchService struct {
	apiconnect.UnimplementedMatchServiceHandler
	engine *ledger.MatchEngine
}

func NewMatchService(engine *ledger.MatchEngine) *MatchService {
	return &MatchService{engine: engine}
}

// CreateMatchPool opens a HoneyMatch pool sponsored by the caller.
func (s *MatchService) CreateMatchPool(ctx context.Context, req *connect.Request[api.CreateMatchPoolRequest]) (*connect.Response[api.CreateMatchPoolResponse], error) {
	slog.Info("CreateMatchPool request received",
		"campaign_id", req.Msg.CampaignID,
		"pledge_amount", req.Msg.PledgeAmount,
		"deadline", req.Msg.Deadline,
	)

	if req.Msg.CampaignID == "" {
		return nil, invalidArgument("campaign_id required")
	}
	pledge, err := parseAmount("pledge_amount", req.Msg.PledgeAmount)
	if err != nil {
		return nil, err
	}

	pool, err := s.engine.CreateMatchPool(ctx, ledger.PoolRequest{
		CampaignID: req.Msg.CampaignID,
		SponsorID:  middleware.GetDonorID(ctx),
		Pledge:     pledge,
		Deadline:   req.Msg.Deadline,
	})
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.CreateMatchPoolResponse{Pool: toAPIPool(pool)}), nil
}

// GetMatchPool returns the campaign's most recent pool.
func (s *MatchService) GetMatchPool(ctx context.Context, req *connect.Request[api.GetMatchPoolRequest]) (*connect.Response[api.GetMatchPoolResponse], error) {
	if req.Msg.CampaignID == "" {
		return nil, invalidArgument("campaign_id required")
	}

	pool, err := s.engine.GetPool(ctx, req.Msg.CampaignID)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.GetMatchPoolResponse{Pool: toAPIPool(pool)}), nil
}
