package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/hivefund/ledger/internal/auth"
	"github.com/hivefund/ledger/internal/ledger"
	"github.com/hivefund/ledger/internal/middleware"
	"github.com/hivefund/ledger/internal/models"
	"github.com/hivefund/ledger/pkg/api"
	"github.com/hivefund/ledger/pkg/api/apiconnect"
)

// DonationService implements the Connect DonationService.
type DonationService struct {
	apiconnect.UnimplementedDonationServiceHandler
	recorder *ledger.Recorder
}

// NewDonationService creates a new DonationService.
func NewDonationService(recorder *ledger.Recorder) *DonationService {
	return &DonationService{recorder: recorder}
}

// RecordDonation commits a donation for the calling donor, or for a guest
// when the request carries no identity.
func (s *DonationService) RecordDonation(ctx context.Context, req *connect.Request[api.RecordDonationRequest]) (*connect.Response[api.RecordDonationResponse], error) {
	slog.Debug("RecordDonation request received",
		"campaign_id", req.Msg.CampaignID,
		"amount", req.Msg.Amount,
		"anonymous", req.Msg.Anonymous,
	)

	if req.Msg.CampaignID == "" {
		return nil, invalidArgument("campaign_id required")
	}
	amount, err := parseAmount("amount", req.Msg.Amount)
	if err != nil {
		return nil, err
	}

	donorID, donorName := middleware.GetDonorID(ctx), middleware.GetDonorName(ctx)
	receipt, err := s.recorder.RecordDonation(ctx, ledger.DonationRequest{
		CampaignID:     req.Msg.CampaignID,
		Amount:         amount,
		DonorID:        donorID,
		DonorName:      donorName,
		Anonymous:      req.Msg.Anonymous,
		Message:        req.Msg.Message,
		IdempotencyKey: req.Msg.IdempotencyKey,
	})
	if err != nil {
		return nil, toConnectError(err)
	}

	name := donorName
	if receipt.Donation.GroupKey() == models.AnonymousDonor {
		name = models.AnonymousDonor
	}
	resp := &api.RecordDonationResponse{
		Donation:      toAPIDonation(receipt.Donation, name),
		MatchedAmount: receipt.MatchedAmount.String(),
		Warning:       receipt.Warning,
		Replayed:      receipt.Replayed,
	}
	if !receipt.Replayed {
		resp.RaisedAmount = receipt.Raised.String()
	}
	return connect.NewResponse(resp), nil
}

// ListCampaignDonations lists a campaign's donations with anonymous donors
// hidden.
func (s *DonationService) ListCampaignDonations(ctx context.Context, req *connect.Request[api.ListCampaignDonationsRequest]) (*connect.Response[api.ListCampaignDonationsResponse], error) {
	if req.Msg.CampaignID == "" {
		return nil, invalidArgument("campaign_id required")
	}

	views, err := s.recorder.ListCampaignDonations(ctx, req.Msg.CampaignID, int(req.Msg.Limit))
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.ListCampaignDonationsResponse{
		Donations: toAPIDonationViews(views),
	}), nil
}

// ListMyDonations lists the calling donor's donations, anonymous ones
// included.
func (s *DonationService) ListMyDonations(ctx context.Context, req *connect.Request[api.ListMyDonationsRequest]) (*connect.Response[api.ListMyDonationsResponse], error) {
	donorID := middleware.GetDonorID(ctx)
	if donorID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}

	donations, err := s.recorder.ListDonorDonations(ctx, donorID, int(req.Msg.Limit))
	if err != nil {
		return nil, toConnectError(err)
	}

	name := middleware.GetDonorName(ctx)
	out := make([]*api.Donation, len(donations))
	for i := range donations {
		out[i] = toAPIDonation(&donations[i].Donation, name)
		out[i].CampaignTitle = donations[i].CampaignTitle
	}

	slog.Debug("ListMyDonations successful", "donor_id", donorID, "count", len(out))

	return connect.NewResponse(&api.ListMyDonationsResponse{Donations: out}), nil
}
