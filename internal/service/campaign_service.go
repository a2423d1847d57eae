package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/hivefund/ledger/internal/ledger"
	"github.com/hivefund/ledger/internal/models"
	"github.com/hivefund/ledger/pkg/api"
	"github.com/hivefund/ledger/pkg/api/apiconnect"
)

// CampaignService implements the Connect CampaignService.
type CampaignService struct {
	apiconnect.UnimplementedCampaignServiceHandler
	campaigns *ledger.Campaigns
}

func NewCampaignService(campaigns *ledger.Campaigns) *CampaignService {
	return &CampaignService{campaigns: campaigns}
}

// CreateCampaign opens a new active campaign.
func (s *CampaignService) CreateCampaign(ctx context.Context, req *connect.Request[api.CreateCampaignRequest]) (*connect.Response[api.CreateCampaignResponse], error) {
	slog.Info("CreateCampaign request received",
		"title", req.Msg.Title,
		"category", req.Msg.Category,
		"goal_amount", req.Msg.GoalAmount,
	)

	goal, err := parseAmount("goal_amount", req.Msg.GoalAmount)
	if err != nil {
		return nil, err
	}

	campaign, err := s.campaigns.CreateCampaign(ctx, ledger.CampaignRequest{
		Title:    req.Msg.Title,
		Category: req.Msg.Category,
		Goal:     goal,
		Deadline: req.Msg.Deadline,
	})
	if err != nil {
		return nil, toConnectError(err)
	}

	slog.Info("Campaign created", "campaign_id", campaign.ID)

	return connect.NewResponse(&api.CreateCampaignResponse{Campaign: toAPICampaign(campaign)}), nil
}

func (s *CampaignService) GetCampaign(ctx context.Context, req *connect.Request[api.GetCampaignRequest]) (*connect.Response[api.GetCampaignResponse], error) {
	if req.Msg.CampaignID == "" {
		return nil, invalidArgument("campaign_id required")
	}

	campaign, err := s.campaigns.GetCampaign(ctx, req.Msg.CampaignID)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.GetCampaignResponse{Campaign: toAPICampaign(campaign)}), nil
}

// ListCampaigns lists campaigns by status, newest first.
func (s *CampaignService) ListCampaigns(ctx context.Context, req *connect.Request[api.ListCampaignsRequest]) (*connect.Response[api.ListCampaignsResponse], error) {
	campaigns, err := s.campaigns.ListCampaigns(ctx, ledger.CampaignQuery{
		Status:   models.CampaignStatus(req.Msg.Status),
		Category: req.Msg.Category,
		Limit:    int(req.Msg.Limit),
	})
	if err != nil {
		return nil, toConnectError(err)
	}

	out := make([]*api.Campaign, len(campaigns))
	for i, c := range campaigns {
		out[i] = toAPICampaign(c)
	}

	slog.Debug("ListCampaigns successful", "status", req.Msg.Status, "count", len(out))

	return connect.NewResponse(&api.ListCampaignsResponse{Campaigns: out}), nil
}

// UpdateCampaignStatus completes or cancels a campaign.
func (s *CampaignService) UpdateCampaignStatus(ctx context.Context, req *connect.Request[api.UpdateCampaignStatusRequest]) (*connect.Response[api.UpdateCampaignStatusResponse], error) {
	slog.Info("UpdateCampaignStatus request received",
		"campaign_id", req.Msg.CampaignID,
		"status", req.Msg.Status,
	)

	if req.Msg.CampaignID == "" {
		return nil, invalidArgument("campaign_id required")
	}

	campaign, err := s.campaigns.UpdateCampaignStatus(ctx, req.Msg.CampaignID, models.CampaignStatus(req.Msg.Status))
	if err != nil {
		return nil, toConnectError(err)
	}

	slog.Info("Campaign status updated", "campaign_id", campaign.ID, "status", campaign.Status)

	return connect.NewResponse(&api.UpdateCampaignStatusResponse{Campaign: toAPICampaign(campaign)}), nil
}
