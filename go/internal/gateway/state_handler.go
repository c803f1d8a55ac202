package gateway

import (
	"net/http"
	"time"

	"github.com/mcdev12/bingosync/go/internal/models"
	"github.com/mcdev12/bingosync/go/internal/wallet"
)

// RoomsProvider exposes the lobby snapshot.
type RoomsProvider interface {
	Rooms() []models.Room
	UpdatedAt() time.Time
}

// BalanceProvider exposes the wallet balance.
type BalanceProvider interface {
	Snapshot() wallet.Snapshot
}

// RoomsResponse is the body of /api/rooms.
type RoomsResponse struct {
	Rooms     []models.Room `json:"rooms"`
	UpdatedAt *time.Time    `json:"updated_at,omitempty"`
}

// StateHandler serves read-only HTTP snapshots of the engine, lobby and wallet.
type StateHandler struct {
	views   ViewProvider
	rooms   RoomsProvider
	balance BalanceProvider
}

// NewStateHandler creates a state handler. rooms and balance may be nil.
func NewStateHandler(views ViewProvider, rooms RoomsProvider, balance BalanceProvider) *StateHandler {
	return &StateHandler{views: views, rooms: rooms, balance: balance}
}

func (h *StateHandler) HandleView(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, h.views.View())
}

func (h *StateHandler) HandleRooms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.rooms == nil {
		http.Error(w, "lobby not configured", http.StatusNotFound)
		return
	}
	resp := RoomsResponse{Rooms: h.rooms.Rooms()}
	if at := h.rooms.UpdatedAt(); !at.IsZero() {
		resp.UpdatedAt = &at
	}
	writeJSON(w, resp)
}

func (h *StateHandler) HandleBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.balance == nil {
		http.Error(w, "wallet not configured", http.StatusNotFound)
		return
	}
	writeJSON(w, h.balance.Snapshot())
}

func (h *StateHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (h *StateHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/view", h.HandleView)
	mux.HandleFunc("/api/rooms", h.HandleRooms)
	mux.HandleFunc("/api/balance", h.HandleBalance)
	mux.HandleFunc("/health", h.HandleHealth)
}
