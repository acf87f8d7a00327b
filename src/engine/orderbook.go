package engine

import (
	"sync"
	"time"
)

// OrderBook is the matching engine for a single binary market. Every order is
// stored as a canonical BUY on either the YES or the NO contract, so only two
// queues exist; asks are derived views over the same queues. One mutex guards
// all mutable state, held for the full duration of every public operation.
type OrderBook struct {
	mu sync.Mutex

	yesBook *book
	noBook  *book

	ordersByID map[int64]*Order
	trades     []*Trade

	nextOrderID int64
	nextTradeID int64
}

func NewOrderBook() *OrderBook {
	return &OrderBook{
		yesBook:     newBook(),
		noBook:      newBook(),
		ordersByID:  make(map[int64]*Order),
		nextOrderID: 1,
		nextTradeID: 1,
	}
}

type OrderRequest struct {
	Side      Side
	Type      OrderType
	Price     int64
	Quantity  int64
	AccountID string
}

type PlaceResult struct {
	OrderID           int64
	Status            OrderStatus
	FilledQuantity    int64
	RemainingQuantity int64
	Trades            []*Trade
}

// Place normalizes the request, matches it against the book, and rests any
// unfilled remainder. Input is assumed valid (price in [0,100], quantity >= 1);
// the boundary layer rejects everything else, so there is no failure path here.
func (ob *OrderBook) Place(req OrderRequest) *PlaceResult {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	orderID := ob.nextOrderID
	ob.nextOrderID++

	canonicalSide, canonicalPrice := normalize(req.Side, req.Type, req.Price)
	isMarket := isMarketOrder(req.Type, req.Price)

	order := &Order{
		ID:             orderID,
		AccountID:      req.AccountID,
		Side:           req.Side,
		Type:           req.Type,
		CanonicalPrice: canonicalPrice,
		OriginalPrice:  req.Price,
		Quantity:       req.Quantity,
		Timestamp:      time.Now().UnixNano(),
	}

	// Both sides of a trade are canonical BUYs on complementary contracts, so
	// the incoming order matches against the book of its own canonical side.
	matching := ob.bookFor(canonicalSide)

	trades := make([]*Trade, 0)
	remaining := req.Quantity
	var skipped []*Order

	for remaining > 0 && matching.len() > 0 {
		maker := matching.peek()

		// Self-trade prevention: hold the order aside and keep scanning so the
		// next-best price becomes visible. It is restored after the loop with
		// its queue position intact.
		if maker.AccountID == order.AccountID {
			skipped = append(skipped, matching.pop())
			continue
		}

		if !isMarket && canonicalPrice < maker.CanonicalPrice {
			// Best non-self price does not cross; no further match is possible.
			break
		}

		matching.pop()

		tradeQty := min(remaining, maker.Quantity)
		trades = append(trades, ob.executeTrade(order, maker, tradeQty))

		remaining -= tradeQty
		maker.Quantity -= tradeQty

		if maker.Quantity > 0 {
			matching.push(maker)
		} else {
			delete(ob.ordersByID, maker.ID)
		}
	}

	for _, heldAside := range skipped {
		matching.restore(heldAside)
	}

	status := StatusFilled
	if remaining > 0 {
		order.Quantity = remaining
		matching.push(order)
		ob.ordersByID[order.ID] = order
		if len(trades) > 0 {
			status = StatusPartiallyFilled
		} else {
			status = StatusOpen
		}
	}

	return &PlaceResult{
		OrderID:           orderID,
		Status:            status,
		FilledQuantity:    req.Quantity - remaining,
		RemainingQuantity: remaining,
		Trades:            trades,
	}
}

func (ob *OrderBook) bookFor(canonicalSide Side) *book {
	if canonicalSide == SideYes {
		return ob.yesBook
	}
	return ob.noBook
}

func (ob *OrderBook) executeTrade(taker, maker *Order, quantity int64) *Trade {
	trade := &Trade{
		ID:           ob.nextTradeID,
		MakerOrderID: maker.ID,
		TakerOrderID: taker.ID,
		Price:        maker.OriginalPrice,
		Quantity:     quantity,
		Side:         taker.Side,
		Timestamp:    time.Now().UnixMilli(),
	}
	ob.nextTradeID++
	ob.trades = append(ob.trades, trade)
	return trade
}

// BookEntry is a read-only projection of a resting order, recomputed on each
// snapshot. Price is the order's original price, not its canonical price.
type BookEntry struct {
	OrderID   int64
	Price     int64
	Quantity  int64
	AccountID string
}

type BookSnapshot struct {
	YesBids []BookEntry
	YesAsks []BookEntry
	NoBids  []BookEntry
	NoAsks  []BookEntry
}

// Snapshot reconstructs the four conventional quote sides from the two
// canonical queues. A converted SELL rests in the complementary book as a bid
// there, and is simultaneously the ask of the contract it originally sold:
// a SELL NO resting in the YES book shows as a YES bid and as the NO ask.
func (ob *OrderBook) Snapshot(depth int) *BookSnapshot {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	snapshot := &BookSnapshot{
		YesBids: make([]BookEntry, 0, depth),
		YesAsks: make([]BookEntry, 0, depth),
		NoBids:  make([]BookEntry, 0, depth),
		NoAsks:  make([]BookEntry, 0, depth),
	}

	ob.yesBook.scan(depth, func(order *Order) {
		entry := bookEntry(order)
		switch {
		case order.Type == TypeBuy && order.Side == SideYes:
			snapshot.YesBids = append(snapshot.YesBids, entry)
		case order.Type == TypeSell && order.Side == SideNo:
			snapshot.YesBids = append(snapshot.YesBids, entry)
			snapshot.NoAsks = append(snapshot.NoAsks, entry)
		}
	})

	ob.noBook.scan(depth, func(order *Order) {
		entry := bookEntry(order)
		switch {
		case order.Type == TypeBuy && order.Side == SideNo:
			snapshot.NoBids = append(snapshot.NoBids, entry)
		case order.Type == TypeSell && order.Side == SideYes:
			snapshot.NoBids = append(snapshot.NoBids, entry)
			snapshot.YesAsks = append(snapshot.YesAsks, entry)
		}
	})

	return snapshot
}

func bookEntry(order *Order) BookEntry {
	return BookEntry{
		OrderID:   order.ID,
		Price:     order.OriginalPrice,
		Quantity:  order.Quantity,
		AccountID: order.AccountID,
	}
}

// RecentTrades returns up to limit trades, most recent first.
func (ob *OrderBook) RecentTrades(limit int) []*Trade {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	if limit > len(ob.trades) {
		limit = len(ob.trades)
	}
	if limit < 0 {
		limit = 0
	}

	recent := make([]*Trade, 0, limit)
	for i := len(ob.trades) - 1; i >= 0 && len(recent) < limit; i-- {
		recent = append(recent, ob.trades[i])
	}
	return recent
}

// RestingOrders reports the number of orders currently resting in both books.
func (ob *OrderBook) RestingOrders() int {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	return ob.yesBook.len() + ob.noBook.len()
}

// TradeCount reports the total number of trades executed since the last reset.
func (ob *OrderBook) TradeCount() int64 {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	return int64(len(ob.trades))
}

// GetOrder looks up a resting order by id. Fully consumed orders are removed
// from the index and will not be found.
func (ob *OrderBook) GetOrder(orderID int64) (*Order, bool) {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	order, ok := ob.ordersByID[orderID]
	return order, ok
}

// Reset discards all state and reinitializes an empty engine. Testing aid.
func (ob *OrderBook) Reset() {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	ob.yesBook = newBook()
	ob.noBook = newBook()
	ob.ordersByID = make(map[int64]*Order)
	ob.trades = nil
	ob.nextOrderID = 1
	ob.nextTradeID = 1
}
