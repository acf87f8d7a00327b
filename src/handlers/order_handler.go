package handlers

import (
	"fmt"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"prediction-exchange/src/engine"
	"prediction-exchange/src/models"
)

const defaultTradeLimit = 20

type OrderHandler struct {
	Book      *engine.OrderBook
	StartTime time.Time

	OrdersReceived int64
	OrdersMatched  int64
	TradesExecuted int64

	bookDepth int
}

func NewOrderHandler(book *engine.OrderBook) *OrderHandler {
	bookDepth := 10
	if envDepth := os.Getenv("ORDERBOOK_DEPTH"); envDepth != "" {
		if parsed, err := strconv.Atoi(envDepth); err == nil && parsed > 0 {
			bookDepth = parsed
		}
	}

	return &OrderHandler{
		Book:      book,
		StartTime: time.Now(),
		bookDepth: bookDepth,
	}
}

func (h *OrderHandler) PlaceOrder(c *fiber.Ctx) error {
	var req models.PlaceOrderRequest

	if err := c.BodyParser(&req); err != nil {
		log.Warn().
			Err(err).
			Str("ip", c.IP()).
			Str("path", c.Path()).
			Msg("Invalid request: malformed JSON")
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error: "Invalid request: malformed JSON",
		})
	}

	if err := validatePlaceOrderRequest(&req); err != nil {
		log.Warn().
			Err(err).
			Str("side", req.Side).
			Str("type", req.Type).
			Int64("price", req.Price).
			Str("ip", c.IP()).
			Msg("Invalid order request")
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error: err.Error(),
		})
	}

	atomic.AddInt64(&h.OrdersReceived, 1)

	result := h.Book.Place(engine.OrderRequest{
		Side:      engine.Side(req.Side),
		Type:      engine.OrderType(req.Type),
		Price:     req.Price,
		Quantity:  req.Quantity,
		AccountID: req.AccountID,
	})

	if len(result.Trades) > 0 {
		atomic.AddInt64(&h.OrdersMatched, 1)
		atomic.AddInt64(&h.TradesExecuted, int64(len(result.Trades)))
	}

	trades := make([]models.TradeInfo, 0, len(result.Trades))
	for _, trade := range result.Trades {
		trades = append(trades, tradeInfo(trade))
	}

	response := models.PlaceOrderResponse{
		OrderID:           result.OrderID,
		Status:            string(result.Status),
		FilledQuantity:    result.FilledQuantity,
		RemainingQuantity: result.RemainingQuantity,
		Trades:            trades,
		Message: fmt.Sprintf("Order %d: %s. Filled %d/%d shares in %d trade(s).",
			result.OrderID, result.Status, result.FilledQuantity, req.Quantity, len(trades)),
	}

	log.Info().
		Int64("order_id", result.OrderID).
		Str("account_id", req.AccountID).
		Str("side", req.Side).
		Str("type", req.Type).
		Int64("price", req.Price).
		Str("status", string(result.Status)).
		Int64("filled_quantity", result.FilledQuantity).
		Int64("remaining_quantity", result.RemainingQuantity).
		Int("trades_count", len(trades)).
		Msg("Order processed")

	switch result.Status {
	case engine.StatusOpen:
		return c.Status(fiber.StatusCreated).JSON(response)
	case engine.StatusPartiallyFilled:
		return c.Status(fiber.StatusAccepted).JSON(response)
	default:
		return c.Status(fiber.StatusOK).JSON(response)
	}
}

func (h *OrderHandler) GetOrderBook(c *fiber.Ctx) error {
	snapshot := h.Book.Snapshot(h.bookDepth)

	return c.Status(fiber.StatusOK).JSON(models.OrderBookResponse{
		Timestamp: time.Now().UnixMilli(),
		YesBids:   bookEntries(snapshot.YesBids),
		YesAsks:   bookEntries(snapshot.YesAsks),
		NoBids:    bookEntries(snapshot.NoBids),
		NoAsks:    bookEntries(snapshot.NoAsks),
	})
}

func (h *OrderHandler) GetTrades(c *fiber.Ctx) error {
	// limit=0 is honored and yields an empty tape; malformed or negative
	// values fall back to the default.
	limit := defaultTradeLimit
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed >= 0 {
			limit = parsed
		}
	}

	recent := h.Book.RecentTrades(limit)
	trades := make([]models.TradeInfo, 0, len(recent))
	for _, trade := range recent {
		trades = append(trades, tradeInfo(trade))
	}

	return c.Status(fiber.StatusOK).JSON(trades)
}

func (h *OrderHandler) Reset(c *fiber.Ctx) error {
	h.Book.Reset()
	atomic.StoreInt64(&h.OrdersReceived, 0)
	atomic.StoreInt64(&h.OrdersMatched, 0)
	atomic.StoreInt64(&h.TradesExecuted, 0)

	log.Info().Str("ip", c.IP()).Msg("Order book reset")

	return c.Status(fiber.StatusOK).JSON(models.ResetResponse{
		Message: "Order book reset successfully",
	})
}

func (h *OrderHandler) HealthCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(models.HealthResponse{
		Status:         "healthy",
		UptimeSeconds:  int64(time.Since(h.StartTime).Seconds()),
		OrdersResting:  int64(h.Book.RestingOrders()),
		TradesExecuted: h.Book.TradeCount(),
	})
}

func (h *OrderHandler) Metrics(c *fiber.Ctx) error {
	uptime := time.Since(h.StartTime).Seconds()
	received := atomic.LoadInt64(&h.OrdersReceived)

	throughput := 0.0
	if uptime > 0 {
		throughput = float64(received) / uptime
	}

	return c.Status(fiber.StatusOK).JSON(models.MetricsResponse{
		OrdersReceived:         received,
		OrdersMatched:          atomic.LoadInt64(&h.OrdersMatched),
		OrdersResting:          int64(h.Book.RestingOrders()),
		TradesExecuted:         atomic.LoadInt64(&h.TradesExecuted),
		ThroughputOrdersPerSec: throughput,
	})
}

func tradeInfo(trade *engine.Trade) models.TradeInfo {
	return models.TradeInfo{
		TradeID:      trade.ID,
		MakerOrderID: trade.MakerOrderID,
		TakerOrderID: trade.TakerOrderID,
		Price:        trade.Price,
		Quantity:     trade.Quantity,
		Side:         string(trade.Side),
		Timestamp:    trade.Timestamp,
	}
}

// validatePlaceOrderRequest rejects malformed requests before the engine sees
// them. A single price range check covers both order types; per-type price
// bounds would be redundant with it.
func validatePlaceOrderRequest(req *models.PlaceOrderRequest) error {
	if req.Side != string(engine.SideYes) && req.Side != string(engine.SideNo) {
		return &ValidationError{Message: "Invalid order: side must be YES or NO"}
	}

	if req.Type != string(engine.TypeBuy) && req.Type != string(engine.TypeSell) {
		return &ValidationError{Message: "Invalid order: type must be BUY or SELL"}
	}

	if req.Price < 0 || req.Price > 100 {
		return &ValidationError{Message: "Invalid order: price must be between 0 and 100"}
	}

	if req.Quantity < 1 {
		return &ValidationError{Message: "Invalid order: quantity must be at least 1"}
	}

	if req.AccountID == "" {
		return &ValidationError{Message: "Invalid order: account_id is required"}
	}

	return nil
}

type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func bookEntries(entries []engine.BookEntry) []models.BookEntryInfo {
	infos := make([]models.BookEntryInfo, 0, len(entries))
	for _, entry := range entries {
		infos = append(infos, models.BookEntryInfo{
			OrderID:   entry.OrderID,
			Price:     entry.Price,
			Quantity:  entry.Quantity,
			AccountID: entry.AccountID,
		})
	}
	return infos
}
