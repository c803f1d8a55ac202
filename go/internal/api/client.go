package api

import (
	"context"
	"strings"

	"connectrpc.com/connect"
)

// Client calls a remote engine service.
type Client struct {
	selectRound    *connect.Client[SelectRoundRequest, ViewResponse]
	buyCards       *connect.Client[BuyCardsRequest, BuyCardsResponse]
	cancelPurchase *connect.Client[Empty, ViewResponse]
	toggleAutoMark *connect.Client[Empty, ToggleResponse]
	toggleMark     *connect.Client[ToggleMarkRequest, ToggleResponse]
	skipToResults  *connect.Client[Empty, ViewResponse]
	reset          *connect.Client[Empty, ViewResponse]
	getView        *connect.Client[Empty, ViewResponse]
	listRooms      *connect.Client[Empty, ListRoomsResponse]
	getBalance     *connect.Client[Empty, BalanceResponse]
	history        *connect.Client[HistoryRequest, HistoryResponse]
}

func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &Client{
		selectRound:    connect.NewClient[SelectRoundRequest, ViewResponse](httpClient, baseURL+SelectRoundProcedure, opts...),
		buyCards:       connect.NewClient[BuyCardsRequest, BuyCardsResponse](httpClient, baseURL+BuyCardsProcedure, opts...),
		cancelPurchase: connect.NewClient[Empty, ViewResponse](httpClient, baseURL+CancelPurchaseProcedure, opts...),
		toggleAutoMark: connect.NewClient[Empty, ToggleResponse](httpClient, baseURL+ToggleAutoMarkProcedure, opts...),
		toggleMark:     connect.NewClient[ToggleMarkRequest, ToggleResponse](httpClient, baseURL+ToggleMarkProcedure, opts...),
		skipToResults:  connect.NewClient[Empty, ViewResponse](httpClient, baseURL+SkipToResultsProcedure, opts...),
		reset:          connect.NewClient[Empty, ViewResponse](httpClient, baseURL+ResetProcedure, opts...),
		getView:        connect.NewClient[Empty, ViewResponse](httpClient, baseURL+GetViewProcedure, opts...),
		listRooms:      connect.NewClient[Empty, ListRoomsResponse](httpClient, baseURL+ListRoomsProcedure, opts...),
		getBalance:     connect.NewClient[Empty, BalanceResponse](httpClient, baseURL+GetBalanceProcedure, opts...),
		history:        connect.NewClient[HistoryRequest, HistoryResponse](httpClient, baseURL+HistoryProcedure, opts...),
	}
}

func call[Req, Res any](ctx context.Context, c *connect.Client[Req, Res], req *Req) (*Res, error) {
	resp, err := c.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

func (c *Client) SelectRound(ctx context.Context, roundID int64) (*ViewResponse, error) {
	return call(ctx, c.selectRound, &SelectRoundRequest{RoundID: roundID})
}

func (c *Client) BuyCards(ctx context.Context, count int) (*BuyCardsResponse, error) {
	return call(ctx, c.buyCards, &BuyCardsRequest{Count: count})
}

func (c *Client) CancelPurchase(ctx context.Context) (*ViewResponse, error) {
	return call(ctx, c.cancelPurchase, &Empty{})
}

func (c *Client) ToggleAutoMark(ctx context.Context) (*ToggleResponse, error) {
	return call(ctx, c.toggleAutoMark, &Empty{})
}

func (c *Client) ToggleMark(ctx context.Context, number int) (*ToggleResponse, error) {
	return call(ctx, c.toggleMark, &ToggleMarkRequest{Number: number})
}

func (c *Client) SkipToResults(ctx context.Context) (*ViewResponse, error) {
	return call(ctx, c.skipToResults, &Empty{})
}

func (c *Client) Reset(ctx context.Context) (*ViewResponse, error) {
	return call(ctx, c.reset, &Empty{})
}

func (c *Client) GetView(ctx context.Context) (*ViewResponse, error) {
	return call(ctx, c.getView, &Empty{})
}

func (c *Client) ListRooms(ctx context.Context) (*ListRoomsResponse, error) {
	return call(ctx, c.listRooms, &Empty{})
}

func (c *Client) GetBalance(ctx context.Context) (*BalanceResponse, error) {
	return call(ctx, c.getBalance, &Empty{})
}

func (c *Client) History(ctx context.Context, limit int) (*HistoryResponse, error) {
	return call(ctx, c.history, &HistoryRequest{Limit: limit})
}
