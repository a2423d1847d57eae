package service

import (
	"github.com/hivefund/ledger/internal/ledger"
	"github.com/hivefund/ledger/internal/models"
	"github.com/hivefund/ledger/pkg/api"
)

// Conversions from domain models to API messages.

func toAPICampaign(c *models.Campaign) *api.Campaign {
	return &api.Campaign{
		ID:           c.ID,
		Title:        c.Title,
		Category:     c.Category,
		GoalAmount:   c.Goal.String(),
		RaisedAmount: c.Raised.String(),
		Deadline:     c.Deadline,
		Status:       string(c.Status),
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

// toAPIDonation renders a donation for its own donor.
func toAPIDonation(d *models.Donation, donorName string) *api.Donation {
	return &api.Donation{
		ID:         d.ID,
		CampaignID: d.CampaignID,
		DonorID:    d.DonorID,
		DonorName:  donorName,
		Anonymous:  d.Anonymous,
		Amount:     d.Amount.String(),
		Message:    d.Message,
		CreatedAt:  d.CreatedAt,
	}
}

func toAPIDonationViews(views []ledger.DonationView) []*api.Donation {
	out := make([]*api.Donation, len(views))
	for i := range views {
		out[i] = toAPIDonation(&views[i].Donation, views[i].DisplayName)
	}
	return out
}

func toAPIPool(p *models.MatchPool) *api.MatchPool {
	return &api.MatchPool{
		ID:              p.ID,
		CampaignID:      p.CampaignID,
		SponsorID:       p.SponsorID,
		TotalAmount:     p.Total.String(),
		RemainingAmount: p.Remaining.String(),
		MatchedAmount:   p.Matched().String(),
		Deadline:        p.Deadline,
		Status:          string(p.Status),
		CreatedAt:       p.CreatedAt,
	}
}

func toAPIEntries(entries []models.LeaderboardEntry) []*api.LeaderboardEntry {
	out := make([]*api.LeaderboardEntry, len(entries))
	for i, e := range entries {
		out[i] = &api.LeaderboardEntry{
			Rank:            int32(e.Rank),
			DonorName:       e.DisplayName,
			TotalAmount:     e.Total.String(),
			DonationCount:   int32(e.DonationCount),
			FirstDonationAt: e.FirstDonationAt,
		}
	}
	return out
}
