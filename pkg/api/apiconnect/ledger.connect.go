// Package apiconnect wires the hivefund.ledger.v1 services to Connect
// handlers and clients.
package apiconnect

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/hivefund/ledger/pkg/api"
)

const (
	DonationServiceName    = "hivefund.ledger.v1.DonationService"
	MatchServiceName       = "hivefund.ledger.v1.MatchService"
	LeaderboardServiceName = "hivefund.ledger.v1.LeaderboardService"
	CampaignServiceName    = "hivefund.ledger.v1.CampaignService"
)

// Fully-qualified procedure names, usable as HTTP paths.
const (
	DonationServiceRecordDonationProcedure        = "/hivefund.ledger.v1.DonationService/RecordDonation"
	DonationServiceListCampaignDonationsProcedure = "/hivefund.ledger.v1.DonationService/ListCampaignDonations"
	DonationServiceListMyDonationsProcedure       = "/hivefund.ledger.v1.DonationService/ListMyDonations"

	MatchServiceCreateMatchPoolProcedure = "/hivefund.ledger.v1.MatchService/CreateMatchPool"
	MatchServiceGetMatchPoolProcedure    = "/hivefund.ledger.v1.MatchService/GetMatchPool"

	LeaderboardServiceGetLeaderboardProcedure = "/hivefund.ledger.v1.LeaderboardService/GetLeaderboard"

	CampaignServiceCreateCampaignProcedure       = "/hivefund.ledger.v1.CampaignService/CreateCampaign"
	CampaignServiceGetCampaignProcedure          = "/hivefund.ledger.v1.CampaignService/GetCampaign"
	CampaignServiceListCampaignsProcedure        = "/hivefund.ledger.v1.CampaignService/ListCampaigns"
	CampaignServiceUpdateCampaignStatusProcedure = "/hivefund.ledger.v1.CampaignService/UpdateCampaignStatus"
)

func servicePath(name string) string { return "/" + name + "/" }

// routes dispatches a service's procedures by path.
func routes(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := handlers[r.URL.Path]; ok {
			h.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})
}

func unimplemented(procedure string) error {
	return connect.NewError(connect.CodeUnimplemented, errors.New(procedure+" is not implemented"))
}

// DonationService

type DonationServiceHandler interface {
	RecordDonation(context.Context, *connect.Request[api.RecordDonationRequest]) (*connect.Response[api.RecordDonationResponse], error)
	ListCampaignDonations(context.Context, *connect.Request[api.ListCampaignDonationsRequest]) (*connect.Response[api.ListCampaignDonationsResponse], error)
	ListMyDonations(context.Context, *connect.Request[api.ListMyDonationsRequest]) (*connect.Response[api.ListMyDonationsResponse], error)
}

// NewDonationServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler.
func NewDonationServiceHandler(svc DonationServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return servicePath(DonationServiceName), routes(map[string]http.Handler{
		DonationServiceRecordDonationProcedure: connect.NewUnaryHandler(
			DonationServiceRecordDonationProcedure, svc.RecordDonation, opts...),
		DonationServiceListCampaignDonationsProcedure: connect.NewUnaryHandler(
			DonationServiceListCampaignDonationsProcedure, svc.ListCampaignDonations, opts...),
		DonationServiceListMyDonationsProcedure: connect.NewUnaryHandler(
			DonationServiceListMyDonationsProcedure, svc.ListMyDonations, opts...),
	})
}

// UnimplementedDonationServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedDonationServiceHandler struct{}

func (UnimplementedDonationServiceHandler) RecordDonation(context.Context, *connect.Request[api.RecordDonationRequest]) (*connect.Response[api.RecordDonationResponse], error) {
	return nil, unimplemented(DonationServiceRecordDonationProcedure)
}

func (UnimplementedDonationServiceHandler) ListCampaignDonations(context.Context, *connect.Request[api.ListCampaignDonationsRequest]) (*connect.Response[api.ListCampaignDonationsResponse], error) {
	return nil, unimplemented(DonationServiceListCampaignDonationsProcedure)
}

func (UnimplementedDonationServiceHandler) ListMyDonations(context.Context, *connect.Request[api.ListMyDonationsRequest]) (*connect.Response[api.ListMyDonationsResponse], error) {
	return nil, unimplemented(DonationServiceListMyDonationsProcedure)
}

type DonationServiceClient interface {
	RecordDonation(context.Context, *connect.Request[api.RecordDonationRequest]) (*connect.Response[api.RecordDonationResponse], error)
	ListCampaignDonations(context.Context, *connect.Request[api.ListCampaignDonationsRequest]) (*connect.Response[api.ListCampaignDonationsResponse], error)
	ListMyDonations(context.Context, *connect.Request[api.ListMyDonationsRequest]) (*connect.Response[api.ListMyDonationsResponse], error)
}

// NewDonationServiceClient constructs a client for the DonationService.
// baseURL is the server's base URL, e.g. http://localhost:8080.
func NewDonationServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) DonationServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &donationServiceClient{
		recordDonation: connect.NewClient[api.RecordDonationRequest, api.RecordDonationResponse](
			httpClient, baseURL+DonationServiceRecordDonationProcedure, opts...),
		listCampaignDonations: connect.NewClient[api.ListCampaignDonationsRequest, api.ListCampaignDonationsResponse](
			httpClient, baseURL+DonationServiceListCampaignDonationsProcedure, opts...),
		listMyDonations: connect.NewClient[api.ListMyDonationsRequest, api.ListMyDonationsResponse](
			httpClient, baseURL+DonationServiceListMyDonationsProcedure, opts...),
	}
}

type donationServiceClient struct {
	recordDonation        *connect.Client[api.RecordDonationRequest, api.RecordDonationResponse]
	listCampaignDonations *connect.Client[api.ListCampaignDonationsRequest, api.ListCampaignDonationsResponse]
	listMyDonations       *connect.Client[api.ListMyDonationsRequest, api.ListMyDonationsResponse]
}

func (c *donationServiceClient) RecordDonation(ctx context.Context, req *connect.Request[api.RecordDonationRequest]) (*connect.Response[api.RecordDonationResponse], error) {
	return c.recordDonation.CallUnary(ctx, req)
}

func (c *donationServiceClient) ListCampaignDonations(ctx context.Context, req *connect.Request[api.ListCampaignDonationsRequest]) (*connect.Response[api.ListCampaignDonationsResponse], error) {
	return c.listCampaignDonations.CallUnary(ctx, req)
}

func (c *donationServiceClient) ListMyDonations(ctx context.Context, req *connect.Request[api.ListMyDonationsRequest]) (*connect.Response[api.ListMyDonationsResponse], error) {
	return c.listMyDonations.CallUnary(ctx, req)
}

// MatchService

type MatchServiceHandler interface {
	CreateMatchPool(context.Context, *connect.Request[api.CreateMatchPoolRequest]) (*connect.Response[api.CreateMatchPoolResponse], error)
	GetMatchPool(context.Context, *connect.Request[api.GetMatchPoolRequest]) (*connect.Response[api.GetMatchPoolResponse], error)
}

func NewMatchServiceHandler(svc MatchServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return servicePath(MatchServiceName), routes(map[string]http.Handler{
		MatchServiceCreateMatchPoolProcedure: connect.NewUnaryHandler(
			MatchServiceCreateMatchPoolProcedure, svc.CreateMatchPool, opts...),
		MatchServiceGetMatchPoolProcedure: connect.NewUnaryHandler(
			MatchServiceGetMatchPoolProcedure, svc.GetMatchPool, opts...),
	})
}

type UnimplementedMatchServiceHandler struct{}

func (UnimplementedMatchServiceHandler) CreateMatchPool(context.Context, *connect.Request[api.CreateMatchPoolRequest]) (*connect.Response[api.CreateMatchPoolResponse], error) {
	return nil, unimplemented(MatchServiceCreateMatchPoolProcedure)
}

func (UnimplementedMatchServiceHandler) GetMatchPool(context.Context, *connect.Request[api.GetMatchPoolRequest]) (*connect.Response[api.GetMatchPoolResponse], error) {
	return nil, unimplemented(MatchServiceGetMatchPoolProcedure)
}

type MatchServiceClient interface {
	CreateMatchPool(context.Context, *connect.Request[api.CreateMatchPoolRequest]) (*connect.Response[api.CreateMatchPoolResponse], error)
	GetMatchPool(context.Context, *connect.Request[api.GetMatchPoolRequest]) (*connect.Response[api.GetMatchPoolResponse], error)
}

func NewMatchServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) MatchServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &matchServiceClient{
		createMatchPool: connect.NewClient[api.CreateMatchPoolRequest, api.CreateMatchPoolResponse](
			httpClient, baseURL+MatchServiceCreateMatchPoolProcedure, opts...),
		getMatchPool: connect.NewClient[api.GetMatchPoolRequest, api.GetMatchPoolResponse](
			httpClient, baseURL+MatchServiceGetMatchPoolProcedure, opts...),
	}
}

type matchServiceClient struct {
	createMatchPool *connect.Client[api.CreateMatchPoolRequest, api.CreateMatchPoolResponse]
	getMatchPool    *connect.Client[api.GetMatchPoolRequest, api.GetMatchPoolResponse]
}

func (c *matchServiceClient) CreateMatchPool(ctx context.Context, req *connect.Request[api.CreateMatchPoolRequest]) (*connect.Response[api.CreateMatchPoolResponse], error) {
	return c.createMatchPool.CallUnary(ctx, req)
}

func (c *matchServiceClient) GetMatchPool(ctx context.Context, req *connect.Request[api.GetMatchPoolRequest]) (*connect.Response[api.GetMatchPoolResponse], error) {
	return c.getMatchPool.CallUnary(ctx, req)
}

// LeaderboardService

type LeaderboardServiceHandler interface {
	GetLeaderboard(context.Context, *connect.Request[api.GetLeaderboardRequest]) (*connect.Response[api.GetLeaderboardResponse], error)
}

func NewLeaderboardServiceHandler(svc LeaderboardServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return servicePath(LeaderboardServiceName), routes(map[string]http.Handler{
		LeaderboardServiceGetLeaderboardProcedure: connect.NewUnaryHandler(
			LeaderboardServiceGetLeaderboardProcedure, svc.GetLeaderboard, opts...),
	})
}

type UnimplementedLeaderboardServiceHandler struct{}

func (UnimplementedLeaderboardServiceHandler) GetLeaderboard(context.Context, *connect.Request[api.GetLeaderboardRequest]) (*connect.Response[api.GetLeaderboardResponse], error) {
	return nil, unimplemented(LeaderboardServiceGetLeaderboardProcedure)
}

type LeaderboardServiceClient interface {
	GetLeaderboard(context.Context, *connect.Request[api.GetLeaderboardRequest]) (*connect.Response[api.GetLeaderboardResponse], error)
}

func NewLeaderboardServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) LeaderboardServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	return &leaderboardServiceClient{
		getLeaderboard: connect.NewClient[api.GetLeaderboardRequest, api.GetLeaderboardResponse](
			httpClient, baseURL+LeaderboardServiceGetLeaderboardProcedure, clientOptions(opts)...),
	}
}

type leaderboardServiceClient struct {
	getLeaderboard *connect.Client[api.GetLeaderboardRequest, api.GetLeaderboardResponse]
}

func (c *leaderboardServiceClient) GetLeaderboard(ctx context.Context, req *connect.Request[api.GetLeaderboardRequest]) (*connect.Response[api.GetLeaderboardResponse], error) {
	return c.getLeaderboard.CallUnary(ctx, req)
}

// CampaignService

type CampaignServiceHandler interface {
	CreateCampaign(context.Context, *connect.Request[api.CreateCampaignRequest]) (*connect.Response[api.CreateCampaignResponse], error)
	GetCampaign(context.Context, *connect.Request[api.GetCampaignRequest]) (*connect.Response[api.GetCampaignResponse], error)
	ListCampaigns(context.Context, *connect.Request[api.ListCampaignsRequest]) (*connect.Response[api.ListCampaignsResponse], error)
	UpdateCampaignStatus(context.Context, *connect.Request[api.UpdateCampaignStatusRequest]) (*connect.Response[api.UpdateCampaignStatusResponse], error)
}

func NewCampaignServiceHandler(svc CampaignServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return servicePath(CampaignServiceName), routes(map[string]http.Handler{
		CampaignServiceCreateCampaignProcedure: connect.NewUnaryHandler(
			CampaignServiceCreateCampaignProcedure, svc.CreateCampaign, opts...),
		CampaignServiceGetCampaignProcedure: connect.NewUnaryHandler(
			CampaignServiceGetCampaignProcedure, svc.GetCampaign, opts...),
		CampaignServiceListCampaignsProcedure: connect.NewUnaryHandler(
			CampaignServiceListCampaignsProcedure, svc.ListCampaigns, opts...),
		CampaignServiceUpdateCampaignStatusProcedure: connect.NewUnaryHandler(
			CampaignServiceUpdateCampaignStatusProcedure, svc.UpdateCampaignStatus, opts...),
	})
}

type UnimplementedCampaignServiceHandler struct{}

func (UnimplementedCampaignServiceHandler) CreateCampaign(context.Context, *connect.Request[api.CreateCampaignRequest]) (*connect.Response[api.CreateCampaignResponse], error) {
	return nil, unimplemented(CampaignServiceCreateCampaignProcedure)
}

func (UnimplementedCampaignServiceHandler) GetCampaign(context.Context, *connect.Request[api.GetCampaignRequest]) (*connect.Response[api.GetCampaignResponse], error) {
	return nil, unimplemented(CampaignServiceGetCampaignProcedure)
}

func (UnimplementedCampaignServiceHandler) ListCampaigns(context.Context, *connect.Request[api.ListCampaignsRequest]) (*connect.Response[api.ListCampaignsResponse], error) {
	return nil, unimplemented(CampaignServiceListCampaignsProcedure)
}

func (UnimplementedCampaignServiceHandler) UpdateCampaignStatus(context.Context, *connect.Request[api.UpdateCampaignStatusRequest]) (*connect.Response[api.UpdateCampaignStatusResponse], error) {
	return nil, unimplemented(CampaignServiceUpdateCampaignStatusProcedure)
}

type CampaignServiceClient interface {
	CreateCampaign(context.Context, *connect.Request[api.CreateCampaignRequest]) (*connect.Response[api.CreateCampaignResponse], error)
	GetCampaign(context.Context, *connect.Request[api.GetCampaignRequest]) (*connect.Response[api.GetCampaignResponse], error)
	ListCampaigns(context.Context, *connect.Request[api.ListCampaignsRequest]) (*connect.Response[api.ListCampaignsResponse], error)
	UpdateCampaignStatus(context.Context, *connect.Request[api.UpdateCampaignStatusRequest]) (*connect.Response[api.UpdateCampaignStatusResponse], error)
}

func NewCampaignServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) CampaignServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &campaignServiceClient{
		createCampaign: connect.NewClient[api.CreateCampaignRequest, api.CreateCampaignResponse](
			httpClient, baseURL+CampaignServiceCreateCampaignProcedure, opts...),
		getCampaign: connect.NewClient[api.GetCampaignRequest, api.GetCampaignResponse](
			httpClient, baseURL+CampaignServiceGetCampaignProcedure, opts...),
		listCampaigns: connect.NewClient[api.ListCampaignsRequest, api.ListCampaignsResponse](
			httpClient, baseURL+CampaignServiceListCampaignsProcedure, opts...),
		updateCampaignStatus: connect.NewClient[api.UpdateCampaignStatusRequest, api.UpdateCampaignStatusResponse](
			httpClient, baseURL+CampaignServiceUpdateCampaignStatusProcedure, opts...),
	}
}

type campaignServiceClient struct {
	createCampaign       *connect.Client[api.CreateCampaignRequest, api.CreateCampaignResponse]
	getCampaign          *connect.Client[api.GetCampaignRequest, api.GetCampaignResponse]
	listCampaigns        *connect.Client[api.ListCampaignsRequest, api.ListCampaignsResponse]
	updateCampaignStatus *connect.Client[api.UpdateCampaignStatusRequest, api.UpdateCampaignStatusResponse]
}

func (c *campaignServiceClient) CreateCampaign(ctx context.Context, req *connect.Request[api.CreateCampaignRequest]) (*connect.Response[api.CreateCampaignResponse], error) {
	return c.createCampaign.CallUnary(ctx, req)
}

func (c *campaignServiceClient) GetCampaign(ctx context.Context, req *connect.Request[api.GetCampaignRequest]) (*connect.Response[api.GetCampaignResponse], error) {
	return c.getCampaign.CallUnary(ctx, req)
}

func (c *campaignServiceClient) ListCampaigns(ctx context.Context, req *connect.Request[api.ListCampaignsRequest]) (*connect.Response[api.ListCampaignsResponse], error) {
	return c.listCampaigns.CallUnary(ctx, req)
}

func (c *campaignServiceClient) UpdateCampaignStatus(ctx context.Context, req *connect.Request[api.UpdateCampaignStatusRequest]) (*connect.Response[api.UpdateCampaignStatusResponse], error) {
	return c.updateCampaignStatus.CallUnary(ctx, req)
}
