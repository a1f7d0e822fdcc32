package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"skoll/internal/common"
	skollNet "skoll/internal/net"
)

func main() {
	// CLI Parameter Parsing
	serverAddr := flag.String("server", "127.0.0.1:9001", "Address of the gateway")
	action := flag.String("action", "place", "Action to perform: ['place', 'snapshot', 'top']")

	// Order Parameters
	sideStr := flag.String("side", "buy", "Order side: 'buy' or 'sell'")
	typeStr := flag.String("type", "limit", "Order type: 'limit' or 'market'")
	price := flag.Float64("price", 100.0, "Limit price")
	qtyStr := flag.String("qty", "10", "Quantity or comma-separated list (e.g. 10,20,50)")

	// Snapshot Parameters
	depth := flag.Uint("depth", 5, "Snapshot depth")

	flag.Parse()

	// Connect to the gateway.
	conn, err := net.Dial("tcp", *serverAddr)
	if err != nil {
		log.Fatalf("Failed to connect to gateway at %s: %v", *serverAddr, err)
	}
	defer conn.Close()
	fmt.Printf("Connected to %s\n", *serverAddr)

	// Start listening for reports (async).
	go readReports(conn)

	side := common.Buy
	if strings.ToLower(*sideStr) == "sell" {
		side = common.Sell
	}

	orderType := common.LimitOrder
	if strings.ToLower(*typeStr) == "market" {
		orderType = common.MarketOrder
	}

	switch strings.ToLower(*action) {
	case "place":
		for _, q := range parseQuantities(*qtyStr) {
			buf := skollNet.EncodeNewOrder(orderType, side, *price, q)
			if _, err := conn.Write(buf); err != nil {
				log.Printf("Failed to place order (Qty: %d): %v", q, err)
				continue
			}
			fmt.Printf("-> Sent %s %s: %d @ %.2f\n", strings.ToUpper(*sideStr), *typeStr, q, *price)
			// Small sleep so the gateway sees distinct frames.
			time.Sleep(5 * time.Millisecond)
		}

	case "snapshot":
		if _, err := conn.Write(skollNet.EncodeSnapshotRequest(uint16(*depth))); err != nil {
			log.Printf("Failed to request snapshot: %v", err)
		} else {
			fmt.Printf("-> Sent Snapshot Request (depth %d)\n", *depth)
		}

	case "top":
		if _, err := conn.Write(skollNet.EncodeTopOfBookRequest()); err != nil {
			log.Printf("Failed to request top of book: %v", err)
		} else {
			fmt.Println("-> Sent Top-of-Book Request")
		}

	default:
		log.Fatalf("Unknown action: %s", *action)
	}

	// Keep the client alive to receive reports.
	fmt.Println("\nListening for reports... (Press Ctrl+C to exit)")
	select {}
}

// parseQuantities splits a comma-separated string into a slice of uint64
func parseQuantities(input string) []uint64 {
	parts := strings.Split(input, ",")
	var result []uint64
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if val, err := strconv.ParseUint(p, 10, 64); err == nil {
			result = append(result, val)
		} else {
			log.Printf("Warning: Invalid quantity '%s', skipping.", p)
		}
	}
	return result
}

// readReports continuously reads and prints report frames.
func readReports(conn net.Conn) {
	buf := make([]byte, 4*1024)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			log.Printf("Connection lost: %v", err)
			os.Exit(0)
		}

		report, err := skollNet.ParseReport(buf[:n])
		if err != nil {
			log.Printf("Error parsing report: %v", err)
			continue
		}

		switch report.TypeOf {
		case skollNet.OrderAck:
			fmt.Printf("\n[ACK] Order accepted: %s\n", report.OrderID)

		case skollNet.ErrorReport:
			fmt.Printf("\n[SERVER ERROR] %s\n", report.Err)

		case skollNet.TopOfBookReport:
			bid, ask := "-", "-"
			if report.HasBid {
				bid = fmt.Sprintf("%.2f", report.BestBid)
			}
			if report.HasAsk {
				ask = fmt.Sprintf("%.2f", report.BestAsk)
			}
			fmt.Printf("\n[TOP] Bid: %s | Ask: %s\n", bid, ask)

		case skollNet.SnapshotReport:
			fmt.Println("\n[BOOK]")
			for _, lvl := range report.Snapshot.Asks {
				fmt.Printf("  ASK %.2f x %d\n", lvl.Price, lvl.Quantity)
			}
			for _, lvl := range report.Snapshot.Bids {
				fmt.Printf("  BID %.2f x %d\n", lvl.Price, lvl.Quantity)
			}
		}
	}
}
