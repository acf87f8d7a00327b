package engine_test

import (
	"fmt"
	"sync"
	"testing"

	"prediction-exchange/src/engine"
)

func place(ob *engine.OrderBook, side engine.Side, orderType engine.OrderType, price, quantity int64, account string) *engine.PlaceResult {
	return ob.Place(engine.OrderRequest{
		Side:      side,
		Type:      orderType,
		Price:     price,
		Quantity:  quantity,
		AccountID: account,
	})
}

// A SELL YES rests as a canonical BUY NO, so it must not match a resting
// BUY YES: they live in different canonical books.
func TestCanonicalSeparation(t *testing.T) {
	ob := engine.NewOrderBook()

	resting := place(ob, engine.SideYes, engine.TypeBuy, 60, 10, "alice")
	if resting.Status != engine.StatusOpen {
		t.Fatalf("expected OPEN, got %s", resting.Status)
	}
	if resting.RemainingQuantity != 10 {
		t.Fatalf("expected remaining 10, got %d", resting.RemainingQuantity)
	}

	incoming := place(ob, engine.SideYes, engine.TypeSell, 50, 4, "bob")
	if incoming.Status != engine.StatusOpen {
		t.Errorf("expected OPEN, got %s", incoming.Status)
	}
	if len(incoming.Trades) != 0 {
		t.Errorf("expected no trades, got %d", len(incoming.Trades))
	}

	snapshot := ob.Snapshot(10)
	if len(snapshot.YesBids) != 1 || snapshot.YesBids[0].AccountID != "alice" {
		t.Errorf("expected alice's order in yes_bids, got %+v", snapshot.YesBids)
	}
	// bob's SELL YES rests in the NO book: a NO bid and simultaneously the YES ask.
	if len(snapshot.NoBids) != 1 || snapshot.NoBids[0].AccountID != "bob" {
		t.Errorf("expected bob's order in no_bids, got %+v", snapshot.NoBids)
	}
	if len(snapshot.YesAsks) != 1 || snapshot.YesAsks[0].Price != 50 {
		t.Errorf("expected bob's SELL YES@50 as the yes_ask, got %+v", snapshot.YesAsks)
	}
	if len(snapshot.NoAsks) != 0 {
		t.Errorf("expected no no_asks, got %+v", snapshot.NoAsks)
	}
}

// A SELL NO@35 normalizes to BUY YES@65 and crosses a resting BUY YES@60.
// The trade executes at the maker's quoted price.
func TestSellNoCrossesRestingYesBid(t *testing.T) {
	ob := engine.NewOrderBook()

	resting := place(ob, engine.SideYes, engine.TypeBuy, 60, 10, "alice")
	result := place(ob, engine.SideNo, engine.TypeSell, 35, 5, "bob")

	if result.Status != engine.StatusFilled {
		t.Fatalf("expected FILLED, got %s", result.Status)
	}
	if result.FilledQuantity != 5 || result.RemainingQuantity != 0 {
		t.Fatalf("expected filled 5 remaining 0, got %d/%d", result.FilledQuantity, result.RemainingQuantity)
	}
	if len(result.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(result.Trades))
	}

	trade := result.Trades[0]
	if trade.Price != 60 {
		t.Errorf("expected execution at maker's price 60, got %d", trade.Price)
	}
	if trade.Quantity != 5 {
		t.Errorf("expected trade quantity 5, got %d", trade.Quantity)
	}
	if trade.Side != engine.SideNo {
		t.Errorf("expected trade tagged with taker's side NO, got %s", trade.Side)
	}
	if trade.MakerOrderID != resting.OrderID || trade.TakerOrderID != result.OrderID {
		t.Errorf("expected maker %d taker %d, got maker %d taker %d",
			resting.OrderID, result.OrderID, trade.MakerOrderID, trade.TakerOrderID)
	}

	snapshot := ob.Snapshot(10)
	if len(snapshot.YesBids) != 1 {
		t.Fatalf("expected 1 yes_bid, got %d", len(snapshot.YesBids))
	}
	if snapshot.YesBids[0].Price != 60 || snapshot.YesBids[0].Quantity != 5 {
		t.Errorf("expected alice resting at 60 with 5 left, got %+v", snapshot.YesBids[0])
	}
	// bob filled completely, so nothing of his may appear anywhere.
	if len(snapshot.NoAsks) != 0 || len(snapshot.YesAsks) != 0 || len(snapshot.NoBids) != 0 {
		t.Errorf("fully filled taker leaked into the snapshot: %+v", snapshot)
	}
}

func TestPriceTimePriority(t *testing.T) {
	ob := engine.NewOrderBook()

	// The 65 rests first; the 60s are not aggressive enough to cross it, so
	// all three rest. Placing the 65 after a resting 60 would instead trade
	// on entry, since 65 >= 60 crosses.
	at65 := place(ob, engine.SideYes, engine.TypeBuy, 65, 5, "m2")
	first60 := place(ob, engine.SideYes, engine.TypeBuy, 60, 5, "m1")
	second60 := place(ob, engine.SideYes, engine.TypeBuy, 60, 5, "m3")

	if got := ob.RestingOrders(); got != 3 {
		t.Fatalf("expected 3 resting makers, got %d", got)
	}

	// SELL NO@30 -> canonical BUY YES@70, aggressive enough to sweep all three.
	result := place(ob, engine.SideNo, engine.TypeSell, 30, 15, "taker")

	if result.Status != engine.StatusFilled {
		t.Fatalf("expected FILLED, got %s", result.Status)
	}
	if len(result.Trades) != 3 {
		t.Fatalf("expected 3 trades, got %d", len(result.Trades))
	}

	wantMakers := []int64{at65.OrderID, first60.OrderID, second60.OrderID}
	wantPrices := []int64{65, 60, 60}
	for i, trade := range result.Trades {
		if trade.MakerOrderID != wantMakers[i] {
			t.Errorf("trade %d: expected maker %d, got %d", i, wantMakers[i], trade.MakerOrderID)
		}
		if trade.Price != wantPrices[i] {
			t.Errorf("trade %d: expected price %d, got %d", i, wantPrices[i], trade.Price)
		}
	}
}

func TestNonCrossingTakerRests(t *testing.T) {
	ob := engine.NewOrderBook()

	place(ob, engine.SideYes, engine.TypeBuy, 70, 5, "maker")

	// Canonical BUY YES@60 against best maker at 70: not aggressive enough.
	result := place(ob, engine.SideNo, engine.TypeSell, 40, 5, "taker")
	if result.Status != engine.StatusOpen {
		t.Fatalf("expected OPEN, got %s", result.Status)
	}
	if len(result.Trades) != 0 {
		t.Errorf("expected no trades, got %d", len(result.Trades))
	}
	if got := ob.RestingOrders(); got != 2 {
		t.Errorf("expected 2 resting orders, got %d", got)
	}
}

func TestSelfTradePrevention(t *testing.T) {
	ob := engine.NewOrderBook()

	self := place(ob, engine.SideYes, engine.TypeBuy, 60, 10, "alice")
	behind := place(ob, engine.SideYes, engine.TypeBuy, 55, 5, "bob")

	// alice's SELL NO@40 is canonical BUY YES@60: crosses her own best order,
	// which must be skipped, then bob's 55 behind it.
	result := place(ob, engine.SideNo, engine.TypeSell, 40, 5, "alice")

	if result.Status != engine.StatusFilled {
		t.Fatalf("expected FILLED, got %s", result.Status)
	}
	if len(result.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(result.Trades))
	}
	if result.Trades[0].MakerOrderID != behind.OrderID {
		t.Errorf("expected match with bob's order %d, got %d", behind.OrderID, result.Trades[0].MakerOrderID)
	}
	if result.Trades[0].Price != 55 {
		t.Errorf("expected execution at 55, got %d", result.Trades[0].Price)
	}

	// alice's resting order must be untouched and still at the top of the book.
	restored, ok := ob.GetOrder(self.OrderID)
	if !ok {
		t.Fatal("alice's resting order vanished")
	}
	if restored.Quantity != 10 {
		t.Errorf("expected alice's quantity unchanged at 10, got %d", restored.Quantity)
	}

	snapshot := ob.Snapshot(10)
	if len(snapshot.YesBids) != 1 || snapshot.YesBids[0].OrderID != self.OrderID {
		t.Errorf("expected alice's order back at the top of yes_bids, got %+v", snapshot.YesBids)
	}
}

func TestSelfTradeOnlyOrderRests(t *testing.T) {
	ob := engine.NewOrderBook()

	place(ob, engine.SideYes, engine.TypeBuy, 60, 10, "alice")

	// Only alice's own order is on the other side: nothing to match.
	result := place(ob, engine.SideNo, engine.TypeSell, 30, 5, "alice")
	if result.Status != engine.StatusOpen {
		t.Fatalf("expected OPEN, got %s", result.Status)
	}
	if got := ob.RestingOrders(); got != 2 {
		t.Errorf("expected both of alice's orders resting, got %d", got)
	}
}

// A SELL at 0 is a market order: it must sweep every eligible resting order
// regardless of price, and any remainder rests at its extreme canonical price.
func TestMarketOrderSweepsBook(t *testing.T) {
	ob := engine.NewOrderBook()

	place(ob, engine.SideYes, engine.TypeBuy, 10, 3, "bob")
	place(ob, engine.SideYes, engine.TypeBuy, 5, 3, "carol")

	result := place(ob, engine.SideNo, engine.TypeSell, 0, 10, "alice")

	if result.Status != engine.StatusPartiallyFilled {
		t.Fatalf("expected PARTIALLY_FILLED, got %s", result.Status)
	}
	if result.FilledQuantity != 6 || result.RemainingQuantity != 4 {
		t.Fatalf("expected filled 6 remaining 4, got %d/%d", result.FilledQuantity, result.RemainingQuantity)
	}
	if len(result.Trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(result.Trades))
	}
	if result.Trades[0].Price != 10 || result.Trades[1].Price != 5 {
		t.Errorf("expected executions at 10 then 5, got %d then %d",
			result.Trades[0].Price, result.Trades[1].Price)
	}

	// The remainder rests as canonical BUY YES@100: a SELL NO@0 original, so it
	// shows as a yes_bid at its original price and as the no_ask.
	snapshot := ob.Snapshot(10)
	if len(snapshot.YesBids) != 1 || snapshot.YesBids[0].Quantity != 4 {
		t.Fatalf("expected alice's remainder in yes_bids with 4 left, got %+v", snapshot.YesBids)
	}
	if snapshot.YesBids[0].Price != 0 {
		t.Errorf("expected original price 0 exposed, got %d", snapshot.YesBids[0].Price)
	}
	if len(snapshot.NoAsks) != 1 || snapshot.NoAsks[0].OrderID != result.OrderID {
		t.Errorf("expected alice's remainder as the no_ask, got %+v", snapshot.NoAsks)
	}
}

func TestBuyAt100IsMarketOrder(t *testing.T) {
	ob := engine.NewOrderBook()

	maker := place(ob, engine.SideYes, engine.TypeSell, 90, 2, "bob") // canonical BUY NO@10

	result := place(ob, engine.SideNo, engine.TypeBuy, 100, 2, "alice")
	if result.Status != engine.StatusFilled {
		t.Fatalf("expected FILLED, got %s", result.Status)
	}
	if len(result.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(result.Trades))
	}
	if result.Trades[0].Price != 90 {
		t.Errorf("expected execution at maker's quoted 90, got %d", result.Trades[0].Price)
	}
	if result.Trades[0].MakerOrderID != maker.OrderID {
		t.Errorf("expected maker %d, got %d", maker.OrderID, result.Trades[0].MakerOrderID)
	}
}

func TestConservation(t *testing.T) {
	ob := engine.NewOrderBook()

	submissions := []struct {
		side      engine.Side
		orderType engine.OrderType
		price     int64
		quantity  int64
		account   string
	}{
		{engine.SideYes, engine.TypeBuy, 60, 10, "a"},
		{engine.SideNo, engine.TypeSell, 35, 5, "b"},
		{engine.SideNo, engine.TypeBuy, 45, 8, "c"},
		{engine.SideYes, engine.TypeSell, 50, 12, "d"},
		{engine.SideNo, engine.TypeSell, 0, 7, "e"},
	}

	var totalSubmitted, totalRemaining, totalFilled int64
	for _, s := range submissions {
		result := place(ob, s.side, s.orderType, s.price, s.quantity, s.account)

		if result.FilledQuantity+result.RemainingQuantity != s.quantity {
			t.Errorf("order %d: filled %d + remaining %d != submitted %d",
				result.OrderID, result.FilledQuantity, result.RemainingQuantity, s.quantity)
		}

		var tradeSum int64
		for _, trade := range result.Trades {
			tradeSum += trade.Quantity
		}
		if tradeSum != result.FilledQuantity {
			t.Errorf("order %d: trades sum to %d, filled reports %d",
				result.OrderID, tradeSum, result.FilledQuantity)
		}

		totalSubmitted += s.quantity
		totalRemaining += result.RemainingQuantity
		totalFilled += result.FilledQuantity
	}

	// Every fill consumes equal quantity from taker and maker, so resting
	// quantity plus twice the traded quantity equals everything submitted.
	var ledgerSum int64
	for _, trade := range ob.RecentTrades(1000) {
		ledgerSum += trade.Quantity
	}
	if ledgerSum != totalFilled {
		t.Errorf("ledger records %d traded, takers report %d filled", ledgerSum, totalFilled)
	}

	var restingSum int64
	snapshot := ob.Snapshot(1000)
	seen := make(map[int64]bool)
	for _, side := range [][]engine.BookEntry{snapshot.YesBids, snapshot.YesAsks, snapshot.NoBids, snapshot.NoAsks} {
		for _, entry := range side {
			if !seen[entry.OrderID] {
				seen[entry.OrderID] = true
				restingSum += entry.Quantity
			}
		}
	}
	if restingSum+2*ledgerSum != totalSubmitted {
		t.Errorf("resting %d + 2*traded %d != submitted %d", restingSum, ledgerSum, totalSubmitted)
	}
}

func TestRecentTradesOrder(t *testing.T) {
	ob := engine.NewOrderBook()

	for i := 0; i < 3; i++ {
		place(ob, engine.SideYes, engine.TypeBuy, 60, 1, "maker")
		place(ob, engine.SideNo, engine.TypeSell, 40, 1, "taker")
	}

	trades := ob.RecentTrades(2)
	if len(trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(trades))
	}
	if trades[0].ID != 3 || trades[1].ID != 2 {
		t.Errorf("expected most-recent-first ids [3 2], got [%d %d]", trades[0].ID, trades[1].ID)
	}

	if got := len(ob.RecentTrades(100)); got != 3 {
		t.Errorf("expected all 3 trades, got %d", got)
	}
}

func TestReset(t *testing.T) {
	ob := engine.NewOrderBook()

	place(ob, engine.SideYes, engine.TypeBuy, 60, 10, "alice")
	place(ob, engine.SideNo, engine.TypeSell, 40, 5, "bob")

	ob.Reset()

	if got := ob.RestingOrders(); got != 0 {
		t.Errorf("expected empty books after reset, got %d", got)
	}
	if got := ob.TradeCount(); got != 0 {
		t.Errorf("expected empty ledger after reset, got %d", got)
	}

	// Ids start over from 1.
	result := place(ob, engine.SideYes, engine.TypeBuy, 60, 1, "alice")
	if result.OrderID != 1 {
		t.Errorf("expected order id 1 after reset, got %d", result.OrderID)
	}
}

func TestConcurrentPlacement(t *testing.T) {
	ob := engine.NewOrderBook()

	numGoroutines := 20
	ordersPerGoroutine := 25

	var wg sync.WaitGroup
	results := make(chan *engine.PlaceResult, numGoroutines*ordersPerGoroutine)

	for g := 0; g < numGoroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < ordersPerGoroutine; i++ {
				side := engine.SideYes
				if (g+i)%2 == 0 {
					side = engine.SideNo
				}
				orderType := engine.TypeBuy
				if i%3 == 0 {
					orderType = engine.TypeSell
				}
				results <- ob.Place(engine.OrderRequest{
					Side:      side,
					Type:      orderType,
					Price:     int64(30 + (g+i)%40),
					Quantity:  int64(1 + i%5),
					AccountID: fmt.Sprintf("account-%d", g),
				})
			}
		}(g)
	}

	wg.Wait()
	close(results)

	seenOrderIDs := make(map[int64]bool)
	var totalFilled int64
	for result := range results {
		if seenOrderIDs[result.OrderID] {
			t.Errorf("duplicate order id %d", result.OrderID)
		}
		seenOrderIDs[result.OrderID] = true

		if result.FilledQuantity < 0 || result.RemainingQuantity < 0 {
			t.Errorf("order %d: negative quantities %d/%d",
				result.OrderID, result.FilledQuantity, result.RemainingQuantity)
		}

		var tradeSum int64
		for _, trade := range result.Trades {
			tradeSum += trade.Quantity
			if trade.Quantity <= 0 {
				t.Errorf("trade %d has non-positive quantity %d", trade.ID, trade.Quantity)
			}
		}
		if tradeSum != result.FilledQuantity {
			t.Errorf("order %d: trades sum %d != filled %d", result.OrderID, tradeSum, result.FilledQuantity)
		}
		totalFilled += result.FilledQuantity
	}

	if len(seenOrderIDs) != numGoroutines*ordersPerGoroutine {
		t.Errorf("expected %d results, got %d", numGoroutines*ordersPerGoroutine, len(seenOrderIDs))
	}

	// Trade ids must be gapless and the ledger consistent with taker fills.
	trades := ob.RecentTrades(numGoroutines * ordersPerGoroutine * 5)
	var ledgerSum int64
	for i, trade := range trades {
		ledgerSum += trade.Quantity
		if i > 0 && trades[i-1].ID != trade.ID+1 {
			t.Errorf("trade ids not consecutive most-recent-first: %d then %d", trades[i-1].ID, trade.ID)
		}
	}
	if ledgerSum != totalFilled {
		t.Errorf("ledger sum %d != total filled %d", ledgerSum, totalFilled)
	}
}
