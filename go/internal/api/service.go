// Package api exposes the engine's player actions as a connect service.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/mcdev12/bingosync/go/internal/bingo/purchase"
	"github.com/mcdev12/bingosync/go/internal/bingo/round"
	"github.com/mcdev12/bingosync/go/internal/models"
	"github.com/mcdev12/bingosync/go/internal/roundstore"
	"github.com/mcdev12/bingosync/go/internal/wallet"
)

const (
	EngineServiceName = "bingo.v1.EngineService"

	SelectRoundProcedure    = "/" + EngineServiceName + "/SelectRound"
	BuyCardsProcedure       = "/" + EngineServiceName + "/BuyCards"
	CancelPurchaseProcedure = "/" + EngineServiceName + "/CancelPurchase"
	ToggleAutoMarkProcedure = "/" + EngineServiceName + "/ToggleAutoMark"
	ToggleMarkProcedure     = "/" + EngineServiceName + "/ToggleMark"
	SkipToResultsProcedure  = "/" + EngineServiceName + "/SkipToResults"
	ResetProcedure          = "/" + EngineServiceName + "/Reset"
	GetViewProcedure        = "/" + EngineServiceName + "/GetView"
	ListRoomsProcedure      = "/" + EngineServiceName + "/ListRooms"
	GetBalanceProcedure     = "/" + EngineServiceName + "/GetBalance"
	HistoryProcedure        = "/" + EngineServiceName + "/History"
)

const defaultHistoryLimit = 20

// Engine is what the service needs from the round state machine.
type Engine interface {
	SelectRound(ctx context.Context, roundID int64) error
	BuyCards(ctx context.Context, count int) (*purchase.Result, error)
	CancelPurchase() error
	ToggleAutoMark() bool
	ToggleMark(number int) bool
	SkipToResults() error
	Reset()
	View() round.View
}

type Lobby interface {
	Rooms() []models.Room
	UpdatedAt() time.Time
}

type Balance interface {
	Snapshot() wallet.Snapshot
	RefreshAsync()
}

type History interface {
	Recent(ctx context.Context, limit int) ([]roundstore.ArchivedRound, error)
}

// Service implements the engine service handlers
type Service struct {
	engine  Engine
	lobby   Lobby
	balance Balance
	history History
}

// NewService creates the engine service. history may be nil when the
// archive is disabled.
func NewService(engine Engine, lobby Lobby, balance Balance, history History) *Service {
	return &Service{engine: engine, lobby: lobby, balance: balance, history: history}
}

// Handler returns the path prefix and handler to mount on a mux.
func (s *Service) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{
		connect.WithCodec(jsonCodec{}),
		connect.WithInterceptors(NewLoggingInterceptor()),
	}, opts...)

	mux := http.NewServeMux()
	mux.Handle(SelectRoundProcedure, connect.NewUnaryHandler(SelectRoundProcedure, s.SelectRound, opts...))
	mux.Handle(BuyCardsProcedure, connect.NewUnaryHandler(BuyCardsProcedure, s.BuyCards, opts...))
	mux.Handle(CancelPurchaseProcedure, connect.NewUnaryHandler(CancelPurchaseProcedure, s.CancelPurchase, opts...))
	mux.Handle(ToggleAutoMarkProcedure, connect.NewUnaryHandler(ToggleAutoMarkProcedure, s.ToggleAutoMark, opts...))
	mux.Handle(ToggleMarkProcedure, connect.NewUnaryHandler(ToggleMarkProcedure, s.ToggleMark, opts...))
	mux.Handle(SkipToResultsProcedure, connect.NewUnaryHandler(SkipToResultsProcedure, s.SkipToResults, opts...))
	mux.Handle(ResetProcedure, connect.NewUnaryHandler(ResetProcedure, s.Reset, opts...))
	mux.Handle(GetViewProcedure, connect.NewUnaryHandler(GetViewProcedure, s.GetView, opts...))
	mux.Handle(ListRoomsProcedure, connect.NewUnaryHandler(ListRoomsProcedure, s.ListRooms, opts...))
	mux.Handle(GetBalanceProcedure, connect.NewUnaryHandler(GetBalanceProcedure, s.GetBalance, opts...))
	mux.Handle(HistoryProcedure, connect.NewUnaryHandler(HistoryProcedure, s.History, opts...))
	return "/" + EngineServiceName + "/", mux
}

func (s *Service) viewResponse() *connect.Response[ViewResponse] {
	return connect.NewResponse(&ViewResponse{View: s.engine.View()})
}

// SelectRound loads a round and its owned cards.
func (s *Service) SelectRound(ctx context.Context, req *connect.Request[SelectRoundRequest]) (*connect.Response[ViewResponse], error) {
	if req.Msg.RoundID <= 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("invalid round id %d", req.Msg.RoundID))
	}
	if err := s.engine.SelectRound(ctx, req.Msg.RoundID); err != nil {
		return nil, toConnectError(err)
	}
	return s.viewResponse(), nil
}

// BuyCards blocks until the purchase completes, fails, or is cancelled.
func (s *Service) BuyCards(ctx context.Context, req *connect.Request[BuyCardsRequest]) (*connect.Response[BuyCardsResponse], error) {
	if req.Msg.Count <= 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, purchase.ErrInvalidCount)
	}
	res, err := s.engine.BuyCards(ctx, req.Msg.Count)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&BuyCardsResponse{Result: res, View: s.engine.View()}), nil
}

func (s *Service) CancelPurchase(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[ViewResponse], error) {
	if err := s.engine.CancelPurchase(); err != nil {
		return nil, toConnectError(err)
	}
	return s.viewResponse(), nil
}

func (s *Service) ToggleAutoMark(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[ToggleResponse], error) {
	enabled := s.engine.ToggleAutoMark()
	return connect.NewResponse(&ToggleResponse{Enabled: enabled, View: s.engine.View()}), nil
}

func (s *Service) ToggleMark(ctx context.Context, req *connect.Request[ToggleMarkRequest]) (*connect.Response[ToggleResponse], error) {
	if req.Msg.Number < 1 || req.Msg.Number > models.BallCount {
		return nil, connect.NewError(connect.CodeInvalidArgument,
			fmt.Errorf("ball number %d outside 1..%d", req.Msg.Number, models.BallCount))
	}
	marked := s.engine.ToggleMark(req.Msg.Number)
	return connect.NewResponse(&ToggleResponse{Enabled: marked, View: s.engine.View()}), nil
}

func (s *Service) SkipToResults(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[ViewResponse], error) {
	if err := s.engine.SkipToResults(); err != nil {
		return nil, toConnectError(err)
	}
	return s.viewResponse(), nil
}

func (s *Service) Reset(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[ViewResponse], error) {
	s.engine.Reset()
	return s.viewResponse(), nil
}

func (s *Service) GetView(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[ViewResponse], error) {
	return s.viewResponse(), nil
}

func (s *Service) ListRooms(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[ListRoomsResponse], error) {
	resp := &ListRoomsResponse{Rooms: []models.Room{}}
	if s.lobby != nil {
		resp.Rooms = s.lobby.Rooms()
		if at := s.lobby.UpdatedAt(); !at.IsZero() {
			resp.UpdatedAt = &at
		}
	}
	return connect.NewResponse(resp), nil
}

// GetBalance returns the current balance and schedules a refresh.
func (s *Service) GetBalance(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[BalanceResponse], error) {
	if s.balance == nil {
		return connect.NewResponse(&BalanceResponse{}), nil
	}
	snap := s.balance.Snapshot()
	s.balance.RefreshAsync()
	return connect.NewResponse(&BalanceResponse{Balance: snap}), nil
}

func (s *Service) History(ctx context.Context, req *connect.Request[HistoryRequest]) (*connect.Response[HistoryResponse], error) {
	if s.history == nil {
		return nil, toConnectError(errHistoryDisabled)
	}
	limit := req.Msg.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	rounds, err := s.history.Recent(ctx, limit)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&HistoryResponse{Rounds: rounds}), nil
}
