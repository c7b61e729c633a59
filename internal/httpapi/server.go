// Package httpapi serves the finthrust HTTP API: user login, portfolio
// positions, strategy parameters, and backtest runs.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"finthrust/internal/backtest"
	"finthrust/internal/domain"
	"finthrust/internal/params"
	"finthrust/internal/portfolio"
	"finthrust/internal/store"
	"finthrust/internal/strategy"
	"finthrust/pkg/finthrust"
)

// dateLayouts are tried in order when parsing request dates.
var dateLayouts = []string{"2006-01-02", time.RFC3339}

// Server serves the finthrust HTTP API.
type Server struct {
	txs      store.TransactionStore
	runner   *backtest.Runner
	valuer   *portfolio.Valuer
	registry *strategy.Registry
	params   *params.Store
	market   string
	log      *slog.Logger
}

// NewServer creates a new API server. market is the default bar market for
// backtest requests that name none.
func NewServer(
	txs store.TransactionStore,
	runner *backtest.Runner,
	valuer *portfolio.Valuer,
	registry *strategy.Registry,
	paramStore *params.Store,
	market string,
	log *slog.Logger,
) *Server {
	return &Server{
		txs:      txs,
		runner:   runner,
		valuer:   valuer,
		registry: registry,
		params:   paramStore,
		market:   market,
		log:      log,
	}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("GET /api/users/{username}/positions", s.handleGetPositions)
	mux.HandleFunc("POST /api/users/{username}/positions", s.handleAddPosition)
	mux.HandleFunc("GET /api/users/{username}/portfolio", s.handleGetPortfolio)
	mux.HandleFunc("GET /api/strategies", s.handleListStrategies)
	mux.HandleFunc("GET /api/strategies/{name}/params", s.handleGetParams)
	mux.HandleFunc("PUT /api/strategies/{name}/params", s.handlePutParams)
	mux.HandleFunc("POST /api/backtest", s.handleBacktest)
}

// Handler returns an http.Handler with CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", raw)
}

// requireUser resolves the {username} path value and checks registration.
// It writes the error response itself and returns "" when the user is
// missing or unknown.
func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) string {
	username := r.PathValue("username")
	if username == "" {
		writeError(w, http.StatusBadRequest, "username required")
		return ""
	}
	exists, err := s.txs.UserExists(r.Context(), username)
	if err != nil {
		s.log.Error("checking user", "username", username, "error", err)
		writeError(w, http.StatusInternalServerError, "storage error")
		return ""
	}
	if !exists {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown user %q", username))
		return ""
	}
	return username
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req finthrust.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
		writeError(w, http.StatusBadRequest, "username required")
		return
	}
	if err := s.txs.CreateUser(r.Context(), req.Username); err != nil {
		s.log.Error("creating user", "username", req.Username, "error", err)
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}
	writeJSON(w, finthrust.LoginResponse{Username: req.Username})
}

func (s *Server) handleGetPositions(w http.ResponseWriter, r *http.Request) {
	username := s.requireUser(w, r)
	if username == "" {
		return
	}

	txs, err := s.txs.ListTransactions(r.Context(), username)
	if err != nil {
		s.log.Error("listing transactions", "username", username, "error", err)
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}

	out := make([]finthrust.TransactionJSON, 0, len(txs))
	for _, tx := range txs {
		out = append(out, finthrust.TransactionJSON{
			Ticker:   tx.Ticker,
			Side:     string(tx.Side),
			Quantity: tx.Quantity,
			Price:    tx.Price,
			Date:     tx.Timestamp.Format(time.RFC3339),
		})
	}
	writeJSON(w, finthrust.PositionsResponse{Username: username, Transactions: out})
}

func (s *Server) handleAddPosition(w http.ResponseWriter, r *http.Request) {
	username := s.requireUser(w, r)
	if username == "" {
		return
	}

	var req finthrust.PositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	side := domain.Side(req.Side)
	if side != domain.SideBuy && side != domain.SideSell {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("side must be %q or %q", domain.SideBuy, domain.SideSell))
		return
	}
	if req.Ticker == "" || req.Quantity <= 0 || req.Price <= 0 {
		writeError(w, http.StatusBadRequest, "ticker, positive quantity and positive price required")
		return
	}

	ts := time.Now().UTC()
	if req.Date != "" {
		parsed, err := parseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		ts = parsed
	}

	tx := domain.Transaction{
		Ticker:    req.Ticker,
		Side:      side,
		Quantity:  req.Quantity,
		Price:     req.Price,
		Timestamp: ts,
	}
	if err := s.txs.SaveTransaction(r.Context(), username, tx); err != nil {
		s.log.Error("saving transaction", "username", username, "error", err)
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(finthrust.TransactionJSON{
		Ticker:   tx.Ticker,
		Side:     string(tx.Side),
		Quantity: tx.Quantity,
		Price:    tx.Price,
		Date:     tx.Timestamp.Format(time.RFC3339),
	})
}

func (s *Server) handleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	username := s.requireUser(w, r)
	if username == "" {
		return
	}

	txs, err := s.txs.ListTransactions(r.Context(), username)
	if err != nil {
		s.log.Error("listing transactions", "username", username, "error", err)
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}

	holdings, warnings := portfolio.Aggregate(txs)
	valued, summary, err := s.valuer.Value(r.Context(), holdings)
	if err != nil {
		s.log.Error("valuing portfolio", "username", username, "error", err)
		writeError(w, http.StatusBadGateway, "price lookup failed")
		return
	}

	resp := finthrust.PortfolioResponse{
		Username:   username,
		Holdings:   make([]finthrust.HoldingJSON, 0, len(valued)),
		TotalValue: summary.TotalValue,
		TotalCost:  summary.TotalCost,
		TotalPnL:   summary.TotalPnL,
	}
	for _, vh := range valued {
		resp.Holdings = append(resp.Holdings, finthrust.HoldingJSON{
			Ticker:      vh.Ticker,
			Quantity:    vh.Quantity,
			TotalCost:   vh.TotalCost,
			AvgCost:     vh.AvgCost(),
			Price:       vh.Price,
			MarketValue: vh.MarketValue,
			PnL:         vh.PnL,
			Priced:      vh.Priced,
		})
	}
	for _, warning := range warnings {
		resp.Warnings = append(resp.Warnings, warning.String())
	}
	writeJSON(w, resp)
}

func (s *Server) handleListStrategies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, finthrust.StrategiesResponse{Strategies: s.registry.List()})
}

func (s *Server) handleGetParams(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if !s.registry.Has(name) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown strategy %q", name))
		return
	}
	writeJSON(w, finthrust.ParamsResponse{Strategy: name, Params: s.params.Get(name)})
}

func (s *Server) handlePutParams(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if !s.registry.Has(name) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown strategy %q", name))
		return
	}

	var values map[string]float64
	if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.params.Replace(name, values)
	writeJSON(w, finthrust.ParamsResponse{Strategy: name, Params: s.params.Get(name)})
}

func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	var req finthrust.BacktestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Strategy == "" || req.Symbol == "" {
		writeError(w, http.StatusBadRequest, "strategy and symbol required")
		return
	}
	start, err := parseDate(req.Start)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start: "+err.Error())
		return
	}
	end, err := parseDate(req.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, "end: "+err.Error())
		return
	}
	market := req.Market
	if market == "" {
		market = s.market
	}

	// Stored overrides fill in parameters the request leaves out.
	runParams := strategy.Params(s.params.Get(req.Strategy))
	for k, v := range req.Params {
		runParams[k] = v
	}

	result, err := s.runner.Run(r.Context(), backtest.Request{
		Strategy: req.Strategy,
		Params:   runParams,
		Symbol:   req.Symbol,
		Market:   market,
		Start:    start,
		End:      end,
		Options: backtest.Options{
			InitialCapital: req.InitialCapital,
			UnitSize:       req.UnitSize,
		},
	})
	if err != nil {
		switch {
		case errors.Is(err, strategy.ErrUnknownStrategy):
			writeError(w, http.StatusNotFound, fmt.Sprintf("unknown strategy %q", req.Strategy))
		case errors.Is(err, backtest.ErrNoBars):
			writeError(w, http.StatusNotFound, fmt.Sprintf("no bars for %s in range", req.Symbol))
		default:
			s.log.Error("running backtest", "strategy", req.Strategy, "symbol", req.Symbol, "error", err)
			writeError(w, http.StatusInternalServerError, "backtest failed")
		}
		return
	}

	writeJSON(w, convertResult(result))
}

func convertResult(result *backtest.Result) finthrust.BacktestResponse {
	resp := finthrust.BacktestResponse{
		Symbol:   result.Symbol,
		Strategy: result.Strategy,
		Metrics:  result.Metrics.Map(),
		Ledger:   make([]finthrust.LedgerRowJSON, 0, len(result.Ledger)),
		Trades:   make([]finthrust.TradeJSON, 0, len(result.Trades)),
	}
	for _, row := range result.Ledger {
		out := finthrust.LedgerRowJSON{
			Date:     row.Timestamp.Format("2006-01-02"),
			Cash:     row.Cash,
			Holdings: row.Holdings,
			Total:    row.Total,
		}
		if !math.IsNaN(row.Return) {
			ret := row.Return
			out.Return = &ret
		}
		resp.Ledger = append(resp.Ledger, out)
	}
	for _, trade := range result.Trades {
		resp.Trades = append(resp.Trades, finthrust.TradeJSON{
			Date:     trade.Timestamp.Format("2006-01-02"),
			Side:     string(trade.Side),
			Price:    trade.Price,
			Quantity: trade.Quantity,
		})
	}
	return resp
}
