package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

func main() {
	// 1. CLI Parameter Parsing
	serverAddr := flag.String("server", "127.0.0.1:8000", "Address of the simulator server")
	action := flag.String("action", "watch", "Action to perform: ['watch', 'place']")

	// Order Parameters
	sideStr := flag.String("side", "buy", "Order side: 'buy' or 'sell'")
	price := flag.Float64("price", 45000.0, "Limit price")
	qtyStr := flag.String("qty", "1", "Quantity or comma-separated list (e.g. 1,0.5,2)")

	flag.Parse()

	switch strings.ToLower(*action) {
	case "place":
		for _, q := range parseQuantities(*qtyStr) {
			if err := placeOrder(*serverAddr, *sideStr, *price, q); err != nil {
				log.Printf("Failed to place order (Qty: %g): %v", q, err)
			} else {
				fmt.Printf("-> Sent %s Order: %g @ %.2f\n", strings.ToUpper(*sideStr), q, *price)
			}
			time.Sleep(5 * time.Millisecond)
		}
	case "watch":
		// Fall through to the feed below.
	default:
		log.Fatalf("Unknown action: %s", *action)
	}

	// Attach to the market data feed and print everything it sends.
	url := fmt.Sprintf("ws://%s/ws/market-data", *serverAddr)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		log.Fatalf("Failed to connect to feed at %s: %v", url, err)
	}
	defer conn.Close()
	fmt.Printf("Connected to %s\n", url)
	fmt.Println("Listening for market data... (Press Ctrl+C to exit)")

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			log.Fatalf("Feed closed: %v", err)
		}
		printFrame(frame)
	}
}

func placeOrder(addr, side string, price, qty float64) error {
	body, err := json.Marshal(map[string]any{
		"side":     side,
		"price":    price,
		"quantity": qty,
	})
	if err != nil {
		return err
	}
	resp, err := http.Post(
		fmt.Sprintf("http://%s/api/orders", addr),
		"application/json",
		bytes.NewReader(body),
	)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var result struct {
		OrderID string `json:"order_id"`
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return err
	}
	if result.Status == "rejected" {
		return fmt.Errorf("rejected: %s", result.Message)
	}
	fmt.Printf("   Order ID: %s\n", result.OrderID)
	return nil
}

// printFrame renders one feed message compactly, one line per frame.
func printFrame(frame []byte) {
	var probe struct {
		Type  string  `json:"type"`
		Price float64 `json:"price"`
		SMA   float64 `json:"sma"`
	}
	if err := json.Unmarshal(frame, &probe); err != nil {
		fmt.Printf("?? %s\n", frame)
		return
	}
	switch probe.Type {
	case "trade", "order", "snapshot", "pong":
		fmt.Printf("[%s] %s\n", probe.Type, frame)
	default:
		fmt.Printf("[tick] price=%.2f sma=%.2f\n", probe.Price, probe.SMA)
	}
}

// parseQuantities splits a comma-separated string into a slice of float64
func parseQuantities(input string) []float64 {
	parts := strings.Split(input, ",")
	var result []float64
	for _, p := range parts {
		q, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || q <= 0 {
			fmt.Printf("Skipping invalid quantity: %s\n", p)
			continue
		}
		result = append(result, q)
	}
	if len(result) == 0 {
		fmt.Println("Error: no valid quantities provided")
		os.Exit(1)
	}
	return result
}
