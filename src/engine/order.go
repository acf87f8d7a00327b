package engine

type Side string

const (
	SideYes Side = "YES"
	SideNo  Side = "NO"
)

type OrderType string

const (
	TypeBuy  OrderType = "BUY"
	TypeSell OrderType = "SELL"
)

type OrderStatus string

const (
	StatusOpen            OrderStatus = "OPEN"
	StatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	StatusFilled          OrderStatus = "FILLED"
)

// Order is a resting canonical BUY. The original side/type/price are kept so the
// four-sided book view can be reconstructed and trades execute at the quoted price.
// CanonicalPrice, Timestamp and ID form the priority key and never change while
// resting; Quantity is decremented on partial fills and does not affect ordering.
type Order struct {
	ID             int64
	AccountID      string
	Side           Side      // side as submitted
	Type           OrderType // type as submitted
	CanonicalPrice int64     // equivalent-BUY price used for matching
	OriginalPrice  int64     // price as submitted, the execution price when resting
	Quantity       int64     // remaining, > 0 while resting
	Timestamp      int64     // creation time in unix nanos, priority tie-break
}

// Trade is immutable once recorded. Price is always the maker's quoted
// (original) price; Side is the taker's original side.
type Trade struct {
	ID           int64
	MakerOrderID int64
	TakerOrderID int64
	Price        int64
	Quantity     int64
	Side         Side
	Timestamp    int64 // unix milliseconds
}

// normalize rewrites an order as an equivalent BUY on one of the two contracts.
// Selling YES at P is buying the complementary NO at 100-P, and vice versa.
func normalize(side Side, orderType OrderType, price int64) (Side, int64) {
	if orderType == TypeSell {
		if side == SideYes {
			return SideNo, 100 - price
		}
		return SideYes, 100 - price
	}
	return side, price
}

// isMarketOrder reports whether the request is priced at the extreme of the
// legal range in the direction that guarantees crossing. Market orders skip
// the price-crossing check but normalize like any other order.
func isMarketOrder(orderType OrderType, price int64) bool {
	return (orderType == TypeBuy && price == 100) || (orderType == TypeSell && price == 0)
}
