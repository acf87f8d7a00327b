package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"

	"prediction-exchange/src/models"
)

var (
	serverURL = flag.String("server_url", "", "Exchange base URL. Defaults to EXCHANGE_URL or http://localhost:8080.")
	endpoint  = flag.String("endpoint", "book", "One of: order, book, trades.")
	body      = flag.String("body", "", "Order request body in JSON, e.g. '{\"side\":\"YES\",\"type\":\"BUY\",\"price\":60,\"quantity\":10,\"account_id\":\"alice\"}'.")
	limit     = flag.Int("limit", 20, "Number of trades to fetch.")
)

// Submits orders and renders the four-sided book and the trade tape. Example:
// ./client --endpoint order --body '{"side":"YES","type":"BUY","price":60,"quantity":10,"account_id":"alice"}'
func main() {
	_ = godotenv.Load()
	flag.Parse()

	base := *serverURL
	if base == "" {
		base = os.Getenv("EXCHANGE_URL")
	}
	if base == "" {
		base = "http://localhost:8080"
	}
	base = strings.TrimRight(base, "/")

	switch strings.ToLower(*endpoint) {
	case "order":
		placeOrder(base, *body)
	case "book":
		printOrderBook(base)
	case "trades":
		printTrades(base, *limit)
	default:
		log.Fatalf("Unrecognized endpoint: [%s]", *endpoint)
	}
}

func placeOrder(base, body string) {
	if body == "" {
		log.Fatal("--body is required for --endpoint order")
	}

	resp, err := http.Post(base+"/api/v1/orders", "application/json", bytes.NewReader([]byte(body)))
	if err != nil {
		log.Fatalf("PlaceOrder error: [%v]", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest {
		var errResp models.ErrorResponse
		decode(resp.Body, &errResp)
		log.Fatalf("Order rejected: %s", errResp.Error)
	}

	var order models.PlaceOrderResponse
	decode(resp.Body, &order)
	fmt.Println(order.Message)

	if len(order.Trades) > 0 {
		renderTrades(order.Trades)
	}
}

func printOrderBook(base string) {
	resp, err := http.Get(base + "/api/v1/orderbook")
	if err != nil {
		log.Fatalf("GetOrderBook error: [%v]", err)
	}
	defer resp.Body.Close()

	var book models.OrderBookResponse
	decode(resp.Body, &book)

	renderSide("YES BIDS", book.YesBids)
	renderSide("YES ASKS", book.YesAsks)
	renderSide("NO BIDS", book.NoBids)
	renderSide("NO ASKS", book.NoAsks)
}

func printTrades(base string, limit int) {
	resp, err := http.Get(base + "/api/v1/trades?limit=" + strconv.Itoa(limit))
	if err != nil {
		log.Fatalf("GetTrades error: [%v]", err)
	}
	defer resp.Body.Close()

	var trades []models.TradeInfo
	decode(resp.Body, &trades)

	if len(trades) == 0 {
		fmt.Println("no trades yet")
		return
	}
	renderTrades(trades)
}

func renderSide(title string, entries []models.BookEntryInfo) {
	fmt.Println(title)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Order ID", "Price", "Quantity", "Account"})
	for _, entry := range entries {
		table.Append([]string{
			strconv.FormatInt(entry.OrderID, 10),
			strconv.FormatInt(entry.Price, 10),
			strconv.FormatInt(entry.Quantity, 10),
			entry.AccountID,
		})
	}
	table.Render()
}

func renderTrades(trades []models.TradeInfo) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Trade ID", "Price", "Quantity", "Side", "Maker", "Taker"})
	for _, trade := range trades {
		table.Append([]string{
			strconv.FormatInt(trade.TradeID, 10),
			strconv.FormatInt(trade.Price, 10),
			strconv.FormatInt(trade.Quantity, 10),
			trade.Side,
			strconv.FormatInt(trade.MakerOrderID, 10),
			strconv.FormatInt(trade.TakerOrderID, 10),
		})
	}
	table.Render()
}

func decode(r io.Reader, v interface{}) {
	data, err := io.ReadAll(r)
	if err != nil {
		log.Fatalf("Failed to read response: [%v]", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		log.Fatalf("Failed to decode response: [%v]\n%s", err, data)
	}
}
