package models

type PlaceOrderRequest struct {
	Side      string `json:"side"`
	Type      string `json:"type"`
	Price     int64  `json:"price"` // integer price in [0,100]
	Quantity  int64  `json:"quantity"`
	AccountID string `json:"account_id"`
}

type PlaceOrderResponse struct {
	OrderID           int64       `json:"order_id"`
	Status            string      `json:"status"`
	FilledQuantity    int64       `json:"filled_quantity"`
	RemainingQuantity int64       `json:"remaining_quantity"`
	Trades            []TradeInfo `json:"trades"`
	Message           string      `json:"message"`
}

type TradeInfo struct {
	TradeID      int64  `json:"trade_id"`
	MakerOrderID int64  `json:"maker_order_id"`
	TakerOrderID int64  `json:"taker_order_id"`
	Price        int64  `json:"price"`
	Quantity     int64  `json:"quantity"`
	Side         string `json:"side"`      // taker's original side
	Timestamp    int64  `json:"timestamp"` // unix timestamp in milliseconds
}

type BookEntryInfo struct {
	OrderID   int64  `json:"order_id"`
	Price     int64  `json:"price"` // original price as submitted
	Quantity  int64  `json:"quantity"`
	AccountID string `json:"account_id"`
}

type OrderBookResponse struct {
	Timestamp int64           `json:"timestamp"` // unix timestamp in milliseconds
	YesBids   []BookEntryInfo `json:"yes_bids"`
	YesAsks   []BookEntryInfo `json:"yes_asks"`
	NoBids    []BookEntryInfo `json:"no_bids"`
	NoAsks    []BookEntryInfo `json:"no_asks"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type ResetResponse struct {
	Message string `json:"message"`
}

type HealthResponse struct {
	Status         string `json:"status"`
	UptimeSeconds  int64  `json:"uptime_seconds"`
	OrdersResting  int64  `json:"orders_resting"`
	TradesExecuted int64  `json:"trades_executed"`
}

type MetricsResponse struct {
	OrdersReceived         int64   `json:"orders_received"`
	OrdersMatched          int64   `json:"orders_matched"`
	OrdersResting          int64   `json:"orders_resting"`
	TradesExecuted         int64   `json:"trades_executed"`
	ThroughputOrdersPerSec float64 `json:"throughput_orders_per_sec"`
}
