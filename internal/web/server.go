package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vitos/crypto_scale_engine/internal/domain"
	"github.com/vitos/crypto_scale_engine/internal/usecase"
)

// Server exposes the engine to the decision and notification layers:
// position snapshots and history out, stage/close commands and win-rate
// payloads in, plus the websocket event stream.
type Server struct {
	router  *http.ServeMux
	server  *http.Server
	service *usecase.PositionService
	scorer  *usecase.WinRateScorer
	archive domain.PositionArchive
	hub     *Hub
	logger  *zap.Logger
}

func NewServer(
	port int,
	service *usecase.PositionService,
	scorer *usecase.WinRateScorer,
	archive domain.PositionArchive,
	hub *Hub,
	logger *zap.Logger,
) *Server {
	s := &Server{
		router:  http.NewServeMux(),
		service: service,
		scorer:  scorer,
		archive: archive,
		hub:     hub,
		logger:  logger,
	}
	s.routes()
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.router,
	}
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("GET /status", s.handleStatus)

	// Positions
	s.router.HandleFunc("GET /positions", s.handlePositions)
	s.router.HandleFunc("POST /positions/{symbol}/stages", s.handleAddStage)
	s.router.HandleFunc("POST /positions/{symbol}/close", s.handleClose)

	// History
	s.router.HandleFunc("GET /history", s.handleHistory)

	// Win-rate scoring
	s.router.HandleFunc("POST /winrate", s.handleWinRate)

	// Event stream
	s.router.HandleFunc("GET /ws", s.hub.handleWS)
}

func (s *Server) Start() error {
	s.logger.Info("Starting web server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"positions": len(s.service.Positions()),
	})
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.service.Positions())
}

type addStageRequest struct {
	Side       domain.Side `json:"side"`
	Investment string      `json:"investment"`
	Leverage   string      `json:"leverage"`
	EntryPrice string      `json:"entry_price"`
}

func (s *Server) handleAddStage(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")

	var req addStageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	investment, err := decimal.NewFromString(req.Investment)
	if err != nil {
		http.Error(w, "invalid investment", http.StatusBadRequest)
		return
	}
	leverage, err := decimal.NewFromString(req.Leverage)
	if err != nil {
		http.Error(w, "invalid leverage", http.StatusBadRequest)
		return
	}
	entryPrice, err := decimal.NewFromString(req.EntryPrice)
	if err != nil {
		http.Error(w, "invalid entry_price", http.StatusBadRequest)
		return
	}

	if _, err := s.service.OpenStage(r.Context(), symbol, req.Side, investment, leverage, entryPrice); err != nil {
		s.logger.Warn("Stage rejected", zap.String("symbol", symbol), zap.Error(err))
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"status": "stage_added"})
}

type closeRequest struct {
	Price string `json:"price,omitempty"`
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")

	var req closeRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}

	price := decimal.Zero
	if req.Price != "" {
		var err error
		if price, err = decimal.NewFromString(req.Price); err != nil {
			http.Error(w, "invalid price", http.StatusBadRequest)
			return
		}
	}

	if err := s.service.ClosePosition(r.Context(), symbol, price); err != nil {
		s.logger.Warn("Close rejected", zap.String("symbol", symbol), zap.Error(err))
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "closed"})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		http.Error(w, "no archive configured", http.StatusNotFound)
		return
	}
	histories, err := s.archive.ListHistory(r.Context(), 100)
	if err != nil {
		s.logger.Error("Failed to list history", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(histories)
}

type winRateRequest struct {
	Symbol     string                `json:"symbol"`
	ShortTerm  *domain.TimeframeData `json:"short_term"`
	MediumTerm *domain.TimeframeData `json:"medium_term"`
	LongTerm   *domain.TimeframeData `json:"long_term"`
}

func (s *Server) handleWinRate(w http.ResponseWriter, r *http.Request) {
	var req winRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	analysis, err := s.scorer.MultiTimeframe(req.Symbol, req.ShortTerm, req.MediumTerm, req.LongTerm)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"analysis":       analysis,
		"recommendation": s.scorer.TradingRecommendations(analysis),
	})
}
