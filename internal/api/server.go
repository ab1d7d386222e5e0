package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"festmarket/internal/auth"
	"festmarket/internal/config"
	"festmarket/internal/hub"
	"festmarket/internal/market"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Server struct {
	cfg    config.ServerConfig
	log    *slog.Logger
	gate   *auth.Gate
	market *market.Market
	hub    *hub.Hub
	mux    *chi.Mux
}

func New(cfg config.ServerConfig, logger *slog.Logger, gate *auth.Gate, m *market.Market, h *hub.Hub) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:    cfg,
		log:    logger,
		gate:   gate,
		market: m,
		hub:    h,
		mux:    chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Get("/stocks", s.handleStocksList)
		r.Get("/stocks/{ticker}", s.handleStockDetail)
		r.Get("/accounts/{nickname}", s.handleAccount)
		r.Post("/orders", s.handleOrder)
		r.Get("/ws", s.handleWS)

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.adminMiddleware)
			r.Post("/stocks", s.handleCreateStock)
			r.Post("/stocks/{ticker}/price", s.handleSetPrice)
			r.Post("/stocks/{ticker}/volatility", s.handleSetVolatility)
			r.Post("/stocks/{ticker}/pause", s.handleTogglePause)
			r.Post("/reset", s.handleResetAll)
			r.Post("/cash", s.handleGiveCash)
		})
	})
}

// adminMiddleware is the whole admin handshake: one shared key in a header.
// The market core trusts the resulting boolean fully.
func (s *Server) adminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.gate.Authorize(strings.TrimSpace(r.Header.Get("X-Admin-Key"))) {
			writeError(w, http.StatusUnauthorized, "invalid admin key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Nickname string `json:"nickname"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	account, err := s.market.Register(in.Nickname)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"account": account})
}

func (s *Server) handleStocksList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"stocks": s.market.StockTable()})
}

func (s *Server) handleStockDetail(w http.ResponseWriter, r *http.Request) {
	stock, ok := s.market.GetStock(chi.URLParam(r, "ticker"))
	if !ok {
		writeError(w, http.StatusNotFound, market.ErrUnknownTicker.Error())
		return
	}
	writeJSON(w, http.StatusOK, stock)
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	account, ok := s.market.Account(chi.URLParam(r, "nickname"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown account")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"account": account})
}

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Nickname string  `json:"nickname"`
		Ticker   string  `json:"ticker"`
		Side     string  `json:"side"`
		Quantity float64 `json:"quantity"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	side, err := market.ParseSide(in.Side)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	qty := 0
	if !math.IsNaN(in.Quantity) && !math.IsInf(in.Quantity, 0) {
		qty = int(math.Floor(in.Quantity))
	}
	result, err := s.market.Trade(side, in.Nickname, in.Ticker, qty)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleWS upgrades a viewer socket. A valid ?admin_key= marks the socket
// admin so it also receives the admin-only table refreshes.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	admin := s.gate.Authorize(r.URL.Query().Get("admin_key"))
	welcome := hub.NewStocksEvent(s.market.StockTable())
	if err := s.hub.ServeWS(w, r, admin, welcome); err != nil {
		s.log.Warn("websocket upgrade failed", "err", err)
	}
}

func (s *Server) handleCreateStock(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Ticker     string  `json:"ticker"`
		Name       string  `json:"name"`
		Price      float64 `json:"price"`
		Volatility float64 `json:"volatility"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !s.market.CreateStock(in.Ticker, in.Name, in.Price, in.Volatility) {
		writeError(w, http.StatusConflict, "ticker is invalid or already listed")
		return
	}
	stock, _ := s.market.GetStock(in.Ticker)
	writeJSON(w, http.StatusCreated, stock)
}

func (s *Server) handleSetPrice(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Price float64 `json:"price"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.market.SetPrice(chi.URLParam(r, "ticker"), in.Price)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleSetVolatility(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Volatility float64 `json:"volatility"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.market.SetVolatility(chi.URLParam(r, "ticker"), in.Volatility)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleTogglePause(w http.ResponseWriter, r *http.Request) {
	paused, ok := s.market.TogglePause(chi.URLParam(r, "ticker"))
	if !ok {
		writeError(w, http.StatusNotFound, market.ErrUnknownTicker.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "paused": paused})
}

func (s *Server) handleResetAll(w http.ResponseWriter, _ *http.Request) {
	s.market.ResetAll()
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleGiveCash(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Nickname string  `json:"nickname"`
		Amount   float64 `json:"amount"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	account, err := s.market.GiveCash(in.Nickname, in.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"account": account})
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, market.ErrUnknownTicker):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, market.ErrMarketPaused):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, market.ErrNicknameRequired),
		errors.Is(err, market.ErrBadQuantity),
		errors.Is(err, market.ErrBadSide),
		errors.Is(err, market.ErrBadAmount),
		errors.Is(err, market.ErrInsufficientBalance),
		errors.Is(err, market.ErrInsufficientHoldings):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}
