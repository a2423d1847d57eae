// Package api defines the request and response messages of the
// hivefund.ledger.v1 RPC services. Messages travel as JSON; monetary amounts
// are decimal strings such as "12.50".
package api

import "time"

type Campaign struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Category     string    `json:"category"`
	GoalAmount   string    `json:"goal_amount"`
	RaisedAmount string    `json:"raised_amount"`
	Deadline     time.Time `json:"deadline"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Donation is a committed donation. DonorID is empty for anonymous
// donations unless the caller is the donor. CampaignTitle is only set in
// the donor's own history.
type Donation struct {
	ID            string    `json:"id"`
	CampaignID    string    `json:"campaign_id"`
	CampaignTitle string    `json:"campaign_title,omitempty"`
	DonorID       string    `json:"donor_id,omitempty"`
	DonorName     string    `json:"donor_name"`
	Anonymous     bool      `json:"anonymous"`
	Amount        string    `json:"amount"`
	Message       string    `json:"message,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type MatchPool struct {
	ID              string    `json:"id"`
	CampaignID      string    `json:"campaign_id"`
	SponsorID       string    `json:"sponsor_id,omitempty"`
	TotalAmount     string    `json:"total_amount"`
	RemainingAmount string    `json:"remaining_amount"`
	MatchedAmount   string    `json:"matched_amount"`
	Deadline        time.Time `json:"deadline"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

type LeaderboardEntry struct {
	Rank            int32     `json:"rank"`
	DonorName       string    `json:"donor_name"`
	TotalAmount     string    `json:"total_amount"`
	DonationCount   int32     `json:"donation_count"`
	FirstDonationAt time.Time `json:"first_donation_at"`
}

// DonationService

type RecordDonationRequest struct {
	CampaignID     string `json:"campaign_id"`
	Amount         string `json:"amount"`
	Anonymous      bool   `json:"anonymous"`
	Message        string `json:"message,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

type RecordDonationResponse struct {
	Donation      *Donation `json:"donation"`
	MatchedAmount string    `json:"matched_amount"`
	RaisedAmount  string    `json:"raised_amount,omitempty"`
	Warning       string    `json:"warning,omitempty"`
	Replayed      bool      `json:"replayed,omitempty"`
}

type ListCampaignDonationsRequest struct {
	CampaignID string `json:"campaign_id"`
	Limit      int32  `json:"limit,omitempty"`
}

type ListCampaignDonationsResponse struct {
	Donations []*Donation `json:"donations"`
}

type ListMyDonationsRequest struct {
	Limit int32 `json:"limit,omitempty"`
}

type ListMyDonationsResponse struct {
	Donations []*Donation `json:"donations"`
}

// MatchService

type CreateMatchPoolRequest struct {
	CampaignID   string    `json:"campaign_id"`
	PledgeAmount string    `json:"pledge_amount"`
	Deadline     time.Time `json:"deadline"`
}

type CreateMatchPoolResponse struct {
	Pool *MatchPool `json:"pool"`
}

type GetMatchPoolRequest struct {
	CampaignID string `json:"campaign_id"`
}

type GetMatchPoolResponse struct {
	Pool *MatchPool `json:"pool"`
}

// LeaderboardService

type GetLeaderboardRequest struct {
	Timeframe string `json:"timeframe,omitempty"`
	Category  string `json:"category,omitempty"`
	Limit     int32  `json:"limit,omitempty"`
}

type GetLeaderboardResponse struct {
	Timeframe string              `json:"timeframe"`
	Entries   []*LeaderboardEntry `json:"entries"`
}

// CampaignService

type CreateCampaignRequest struct {
	Title      string    `json:"title"`
	Category   string    `json:"category"`
	GoalAmount string    `json:"goal_amount"`
	Deadline   time.Time `json:"deadline"`
}

type CreateCampaignResponse struct {
	Campaign *Campaign `json:"campaign"`
}

type GetCampaignRequest struct {
	CampaignID string `json:"campaign_id"`
}

type GetCampaignResponse struct {
	Campaign *Campaign `json:"campaign"`
}

// ListCampaignsRequest lists campaigns newest first. Status defaults to
// active; Category is optional.
type ListCampaignsRequest struct {
	Status   string `json:"status,omitempty"`
	Category string `json:"category,omitempty"`
	Limit    int32  `json:"limit,omitempty"`
}

type ListCampaignsResponse struct {
	Campaigns []*Campaign `json:"campaigns"`
}

type UpdateCampaignStatusRequest struct {
	CampaignID string `json:"campaign_id"`
	Status     string `json:"status"`
}

type UpdateCampaignStatusResponse struct {
	Campaign *Campaign `json:"campaign"`
}
