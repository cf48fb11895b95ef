// Package api implements the demo trading backend protected by
// wallet-signed request authentication.
package api

import (
	"encoding/json"
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/openkitx403/openkit403-go/pkg/store"
	"github.com/openkitx403/openkit403-go/pkg/walletauth"
)

// activityFeedLimit caps the number of entries returned by /api/activities.
const activityFeedLimit = 50

// Server is the HTTP API server for the trading demo.
type Server struct {
	store  *store.Store
	logger *slog.Logger
	prices *priceBook
}

// NewServer creates an API server backed by the given store.
func NewServer(s *store.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:  s,
		logger: logger,
		prices: newPriceBook(),
	}
}

// Handler builds the routed mux wrapped in the auth middleware.
// Excluded paths from cfg pass through without a token.
func (s *Server) Handler(cfg Config) (http.Handler, error) {
	authCfg, err := walletauth.NewConfig(cfg.AuthParams())
	if err != nil {
		return nil, err
	}

	opts := []walletauth.MiddlewareOption{
		walletauth.WithLogger(s.logger),
	}
	if cfg.Auth.ReplayProtection {
		opts = append(opts, walletauth.WithReplayCache(walletauth.NewMemoryReplayCache()))
	}
	if cfg.Auth.MaskResponses {
		opts = append(opts, walletauth.WithMaskedResponses(true))
	}

	mw := walletauth.NewMiddleware(authCfg, opts...)

	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return mw.Wrap(mux), nil
}

// RegisterRoutes registers all API routes.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// Bot routes
	mux.HandleFunc("GET /api/bot/register", s.handleRegisterBot)
	mux.HandleFunc("GET /api/bot/status", s.handleBotStatus)

	// Market routes
	mux.HandleFunc("GET /api/market/prices", s.handleMarketPrices)

	// Trade routes
	mux.HandleFunc("POST /api/trade/execute", s.handleExecuteTrade)
	mux.HandleFunc("GET /api/activities", s.handleActivities)
	mux.HandleFunc("GET /api/portfolio", s.handlePortfolio)

	// Health routes (no auth required - bypassed in middleware)
	mux.HandleFunc("GET /", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
}

// ----- Bot Types -----

type registerBotResponse struct {
	Success bool   `json:"success"`
	BotID   string `json:"bot_id"`
	Address string `json:"address"`
	Message string `json:"message"`
}

type botStatusResponse struct {
	BotID   string       `json:"bot_id"`
	Address string       `json:"address"`
	Status  string       `json:"status"`
	Stats   botStatsBody `json:"stats"`
}

type botStatsBody struct {
	TotalTrades int     `json:"total_trades"`
	TotalVolume float64 `json:"total_volume"`
	Uptime      string  `json:"uptime"`
	LastTrade   *string `json:"last_trade"`
}

func (s *Server) handleRegisterBot(w http.ResponseWriter, r *http.Request) {
	id := walletauth.MustIdentity(r.Context())

	bot, err := s.store.RegisterBot(id.Address)
	if err != nil {
		writeInternalError(w, r, s.logger, err, "Failed to register bot")
		return
	}

	s.logger.Info("bot registered", "bot_id", bot.ID, "address", id.Address)
	writeJSON(w, http.StatusOK, registerBotResponse{
		Success: true,
		BotID:   bot.ID,
		Address: bot.Address,
		Message: "Bot registered successfully",
	})
}

func (s *Server) handleBotStatus(w http.ResponseWriter, r *http.Request) {
	id := walletauth.MustIdentity(r.Context())
	botID := store.BotID(id.Address)

	stats, err := s.store.GetBotStats(botID)
	if err != nil {
		writeInternalError(w, r, s.logger, err, "Failed to compute bot stats")
		return
	}

	body := botStatsBody{
		TotalTrades: stats.TotalTrades,
		TotalVolume: stats.TotalVolume,
		Uptime:      "active",
	}
	if stats.LastTrade != nil {
		t := stats.LastTrade.UTC().Format(time.RFC3339)
		body.LastTrade = &t
	}

	writeJSON(w, http.StatusOK, botStatusResponse{
		BotID:   botID,
		Address: id.Address,
		Status:  "active",
		Stats:   body,
	})
}

// ----- Market Types -----

type marketPricesResponse struct {
	Timestamp string             `json:"timestamp"`
	Prices    map[string]float64 `json:"prices"`
	Bot       string             `json:"bot"`
}

func (s *Server) handleMarketPrices(w http.ResponseWriter, r *http.Request) {
	id := walletauth.MustIdentity(r.Context())

	writeJSON(w, http.StatusOK, marketPricesResponse{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Prices:    s.prices.snapshot(),
		Bot:       store.BotID(id.Address),
	})
}

// ----- Trade Types -----

type executeTradeRequest struct {
	Type   string  `json:"type"`
	Asset  string  `json:"asset"`
	Amount float64 `json:"amount"`
	Price  float64 `json:"price"`
}

type activityResponse struct {
	ID        string  `json:"id"`
	BotID     string  `json:"bot_id"`
	Type      string  `json:"type"`
	Asset     string  `json:"asset"`
	Amount    float64 `json:"amount"`
	Price     float64 `json:"price"`
	Status    string  `json:"status"`
	Timestamp string  `json:"timestamp"`
}

type executeTradeResponse struct {
	Success  bool             `json:"success"`
	TradeID  string           `json:"trade_id"`
	Activity activityResponse `json:"activity"`
}

func activityToResponse(a *store.Activity) activityResponse {
	return activityResponse{
		ID:        a.ID,
		BotID:     a.BotID,
		Type:      a.Type,
		Asset:     a.Asset,
		Amount:    a.Amount,
		Price:     a.Price,
		Status:    a.Status,
		Timestamp: a.Timestamp.UTC().Format(time.RFC3339),
	}
}

func (s *Server) handleExecuteTrade(w http.ResponseWriter, r *http.Request) {
	id := walletauth.MustIdentity(r.Context())

	var req executeTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, s.logger, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	if req.Type == "" {
		req.Type = "buy"
	}
	if req.Asset == "" {
		req.Asset = "SOL"
	}
	if req.Amount <= 0 {
		req.Amount = 1
	}
	if req.Price <= 0 {
		req.Price = 100
	}

	// Trades from bots that skipped /api/bot/register still need a row
	// to satisfy the activities foreign key.
	bot, err := s.store.RegisterBot(id.Address)
	if err != nil {
		writeInternalError(w, r, s.logger, err, "Failed to register bot")
		return
	}

	activity, err := s.store.RecordActivity(bot.ID, req.Type, req.Asset, req.Amount, req.Price)
	if err != nil {
		writeInternalError(w, r, s.logger, err, "Failed to record trade")
		return
	}

	s.logger.Info("trade executed",
		"bot_id", bot.ID,
		"type", activity.Type,
		"asset", activity.Asset,
		"amount", activity.Amount,
		"price", activity.Price,
	)
	writeJSON(w, http.StatusOK, executeTradeResponse{
		Success:  true,
		TradeID:  activity.ID,
		Activity: activityToResponse(activity),
	})
}

type activitiesResponse struct {
	Activities []activityResponse `json:"activities"`
	Count      int                `json:"count"`
}

func (s *Server) handleActivities(w http.ResponseWriter, r *http.Request) {
	activities, err := s.store.ListActivities(activityFeedLimit)
	if err != nil {
		writeInternalError(w, r, s.logger, err, "Failed to list activities")
		return
	}
	total, err := s.store.CountActivities()
	if err != nil {
		writeInternalError(w, r, s.logger, err, "Failed to count activities")
		return
	}

	result := make([]activityResponse, 0, len(activities))
	for _, a := range activities {
		result = append(result, activityToResponse(a))
	}
	writeJSON(w, http.StatusOK, activitiesResponse{
		Activities: result,
		Count:      total,
	})
}

// ----- Portfolio Types -----

type portfolioPosition struct {
	Asset  string  `json:"asset"`
	Amount float64 `json:"amount"`
	Value  float64 `json:"value"`
}

type portfolioResponse struct {
	BotID     string              `json:"bot_id"`
	Address   string              `json:"address"`
	Positions []portfolioPosition `json:"positions"`
	Total     float64             `json:"total"`
}

// handlePortfolio derives a mock portfolio from the caller's recent
// trades: buys add to a position, sells subtract, valued at current prices.
func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	id := walletauth.MustIdentity(r.Context())
	botID := store.BotID(id.Address)

	activities, err := s.store.ListActivities(activityFeedLimit)
	if err != nil {
		writeInternalError(w, r, s.logger, err, "Failed to list activities")
		return
	}

	holdings := map[string]float64{}
	for _, a := range activities {
		if a.BotID != botID {
			continue
		}
		switch a.Type {
		case "sell":
			holdings[a.Asset] -= a.Amount
		default:
			holdings[a.Asset] += a.Amount
		}
	}

	prices := s.prices.snapshot()
	positions := make([]portfolioPosition, 0, len(holdings))
	var total float64
	for asset, amount := range holdings {
		if amount == 0 {
			continue
		}
		value := amount * prices[asset]
		total += value
		positions = append(positions, portfolioPosition{
			Asset:  asset,
			Amount: amount,
			Value:  value,
		})
	}

	writeJSON(w, http.StatusOK, portfolioResponse{
		BotID:     botID,
		Address:   id.Address,
		Positions: positions,
		Total:     total,
	})
}

// ----- Health Types -----

type healthResponse struct {
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	ActiveBots  int    `json:"active_bots"`
	TotalTrades int    `json:"total_trades"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "trading-bot-api",
		"status":  "ok",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	bots, err := s.store.CountBots()
	if err != nil {
		writeInternalError(w, r, s.logger, err, "Failed to count bots")
		return
	}
	trades, err := s.store.CountActivities()
	if err != nil {
		writeInternalError(w, r, s.logger, err, "Failed to count trades")
		return
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status:      "healthy",
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		ActiveBots:  bots,
		TotalTrades: trades,
	})
}

// ----- Helpers -----

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Default().Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, message string) {
	logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", message)
	writeJSON(w, status, map[string]string{"error": message})
}

// writeInternalError logs the detailed error internally and returns a generic
// message to the client.
func writeInternalError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, genericMsg string) {
	logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": genericMsg})
}

// ----- Price Book -----

// priceBook serves mock market prices as a bounded random walk around
// each asset's base price.
type priceBook struct {
	mu    sync.Mutex
	rng   *rand.Rand
	base  map[string]float64
	drift map[string]float64
}

func newPriceBook() *priceBook {
	return &priceBook{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		base: map[string]float64{
			"SOL":  100,
			"BTC":  42500,
			"ETH":  2250,
			"USDC": 1,
		},
		drift: map[string]float64{},
	}
}

func (p *priceBook) snapshot() map[string]float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make(map[string]float64, len(p.base))
	for asset, base := range p.base {
		if asset == "USDC" {
			out[asset] = 1.00
			continue
		}
		// Step the walk, clamped to +/-5% of base.
		step := (p.rng.Float64()*2 - 1) * base * 0.005
		d := p.drift[asset] + step
		limit := base * 0.05
		if d > limit {
			d = limit
		} else if d < -limit {
			d = -limit
		}
		p.drift[asset] = d
		out[asset] = float64(int((base+d)*100)) / 100
	}
	return out
}
