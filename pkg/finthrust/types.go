package finthrust

// LoginRequest identifies a user by name. Users are created on first login;
// there is no password.
type LoginRequest struct {
	Username string `json:"username"`
}

// LoginResponse echoes the logged-in username.
type LoginResponse struct {
	Username string `json:"username"`
}

// PositionRequest is one buy/sell to append to a user's transaction log.
type PositionRequest struct {
	Ticker   string  `json:"ticker"`
	Side     string  `json:"side"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
	Date     string  `json:"date,omitempty"` // YYYY-MM-DD or RFC3339, defaults to now
}

// TransactionJSON is one transaction in a positions listing.
type TransactionJSON struct {
	Ticker   string  `json:"ticker"`
	Side     string  `json:"side"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
	Date     string  `json:"date"`
}

// PositionsResponse lists a user's raw transaction log.
type PositionsResponse struct {
	Username     string            `json:"username"`
	Transactions []TransactionJSON `json:"transactions"`
}

// HoldingJSON is one aggregated, market-valued holding.
type HoldingJSON struct {
	Ticker      string  `json:"ticker"`
	Quantity    float64 `json:"quantity"`
	TotalCost   float64 `json:"total_cost"`
	AvgCost     float64 `json:"avg_cost"`
	Price       float64 `json:"price,omitempty"`
	MarketValue float64 `json:"market_value,omitempty"`
	PnL         float64 `json:"pnl,omitempty"`
	Priced      bool    `json:"priced"`
}

// PortfolioResponse is a user's aggregated holdings marked to market.
type PortfolioResponse struct {
	Username   string        `json:"username"`
	Holdings   []HoldingJSON `json:"holdings"`
	TotalValue float64       `json:"total_value"`
	TotalCost  float64       `json:"total_cost"`
	TotalPnL   float64       `json:"total_pnl"`
	Warnings   []string      `json:"warnings,omitempty"`
}

// StrategiesResponse lists the registered strategy names.
type StrategiesResponse struct {
	Strategies []string `json:"strategies"`
}

// ParamsResponse is a strategy's stored parameter overrides.
type ParamsResponse struct {
	Strategy string             `json:"strategy"`
	Params   map[string]float64 `json:"params"`
}

// BacktestRequest describes one backtest run over stored bars.
type BacktestRequest struct {
	Strategy       string             `json:"strategy"`
	Params         map[string]float64 `json:"params,omitempty"`
	Symbol         string             `json:"symbol"`
	Market         string             `json:"market,omitempty"`
	Start          string             `json:"start"`
	End            string             `json:"end"`
	InitialCapital float64            `json:"initial_capital,omitempty"`
	UnitSize       float64            `json:"unit_size,omitempty"`
}

// LedgerRowJSON is one row of a backtest equity curve.
type LedgerRowJSON struct {
	Date     string   `json:"date"`
	Cash     float64  `json:"cash"`
	Holdings float64  `json:"holdings"`
	Total    float64  `json:"total"`
	Return   *float64 `json:"return"` // null on the first row
}

// TradeJSON is one executed trade of a backtest run.
type TradeJSON struct {
	Date     string  `json:"date"`
	Side     string  `json:"side"`
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
}

// BacktestResponse is a completed backtest: metrics plus the full curve.
type BacktestResponse struct {
	Symbol   string             `json:"symbol"`
	Strategy string             `json:"strategy"`
	Metrics  map[string]float64 `json:"metrics"`
	Ledger   []LedgerRowJSON    `json:"ledger"`
	Trades   []TradeJSON        `json:"trades"`
}
