// Command client is a small manual test harness for the ticklob TCP
// gateway, adapted from the teacher's cmd/client/client.go.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"ticklob/internal/common"
	wire "ticklob/internal/net"
)

func main() {
	serverAddr := flag.String("server", "127.0.0.1:9001", "Address of the matching server")
	symbol := flag.String("symbol", "TICK", "Instrument symbol")
	action := flag.String("action", "place", "Action to perform: ['place', 'cancel', 'log']")

	sideStr := flag.String("side", "buy", "Order side: 'buy' or 'sell'")
	typeStr := flag.String("type", "limit", "Order type: 'limit' or 'market'")
	price := flag.Uint64("price", 100, "Limit price (ticks)")
	qtyStr := flag.String("qty", "10", "Quantity or comma-separated list (e.g. 10,20,50)")
	uid := flag.Uint64("uid", 1, "Order uid (must be unique among resting orders)")

	flag.Parse()

	conn, err := net.Dial("tcp", *serverAddr)
	if err != nil {
		log.Fatalf("failed to connect to server at %s: %v", *serverAddr, err)
	}
	defer conn.Close()
	fmt.Printf("connected to %s\n", *serverAddr)

	go readReports(conn)

	side := common.Bid
	if strings.ToLower(*sideStr) == "sell" {
		side = common.Ask
	}

	orderType := common.LimitOrder
	if strings.ToLower(*typeStr) == "market" {
		orderType = common.MarketOrder
	}

	switch strings.ToLower(*action) {
	case "place":
		quantities := parseQuantities(*qtyStr)
		nextUID := *uid
		for _, q := range quantities {
			err := sendNewOrder(conn, *symbol, orderType, side, nextUID, q, *price)
			if err != nil {
				log.Printf("failed to place order (qty: %d): %v", q, err)
			} else {
				fmt.Printf("-> sent %s %s order: uid=%d qty=%d price=%d\n", strings.ToUpper(*sideStr), strings.ToUpper(*typeStr), nextUID, q, *price)
			}
			nextUID++
			time.Sleep(5 * time.Millisecond)
		}

	case "cancel":
		if err := sendCancelOrder(conn, *symbol, *uid); err != nil {
			log.Printf("failed to send cancel request: %v", err)
		} else {
			fmt.Printf("-> sent cancel request for uid: %d\n", *uid)
		}

	case "log":
		if err := sendLogBook(conn, *symbol); err != nil {
			log.Printf("failed to send log request: %v", err)
		} else {
			fmt.Println("-> sent log request")
		}

	default:
		log.Fatalf("unknown action: %s", *action)
	}

	fmt.Println("\nlistening for reports... (press ctrl+c to exit)")
	select {}
}

func parseQuantities(input string) []uint32 {
	parts := strings.Split(input, ",")
	result := make([]uint32, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if val, err := strconv.ParseUint(p, 10, 32); err == nil {
			result = append(result, uint32(val))
		} else {
			log.Printf("warning: invalid quantity %q, skipping", p)
		}
	}
	return result
}

func sendNewOrder(conn net.Conn, symbol string, orderType common.OrderType, side common.Side, uid uint64, qty uint32, price uint64) error {
	symbolBytes := []byte(symbol)
	total := wire.BaseMessageHeaderLen + wire.NewOrderMessageHeaderLen + len(symbolBytes)
	buf := make([]byte, total)

	binary.BigEndian.PutUint16(buf[0:2], uint16(wire.NewOrder))
	buf[2] = byte(orderType)
	if side {
		buf[3] = 1
	}
	binary.BigEndian.PutUint64(buf[4:12], uid)
	binary.BigEndian.PutUint32(buf[12:16], qty)
	binary.BigEndian.PutUint64(buf[16:24], price)
	buf[24] = byte(len(symbolBytes))
	copy(buf[25:], symbolBytes)

	_, err := conn.Write(buf)
	return err
}

func sendCancelOrder(conn net.Conn, symbol string, uid uint64) error {
	symbolBytes := []byte(symbol)
	total := wire.BaseMessageHeaderLen + wire.CancelOrderMessageHeaderLen + len(symbolBytes)
	buf := make([]byte, total)

	binary.BigEndian.PutUint16(buf[0:2], uint16(wire.CancelOrder))
	binary.BigEndian.PutUint64(buf[2:10], uid)
	buf[10] = byte(len(symbolBytes))
	copy(buf[11:], symbolBytes)

	_, err := conn.Write(buf)
	return err
}

func sendLogBook(conn net.Conn, symbol string) error {
	symbolBytes := []byte(symbol)
	total := wire.BaseMessageHeaderLen + wire.LogBookMessageHeaderLen + len(symbolBytes)
	buf := make([]byte, total)

	binary.BigEndian.PutUint16(buf[0:2], uint16(wire.LogBook))
	buf[2] = byte(len(symbolBytes))
	copy(buf[3:], symbolBytes)

	_, err := conn.Write(buf)
	return err
}

func readReports(conn net.Conn) {
	const headerLen = 1 + 16 + 1 + 4 + 8 + 2
	for {
		headerBuf := make([]byte, headerLen)
		if _, err := io.ReadFull(conn, headerBuf); err != nil {
			if err != io.EOF {
				log.Printf("connection lost: %v", err)
			}
			os.Exit(0)
		}

		msgType := wire.ReportMessageType(headerBuf[0])
		side := headerBuf[17] != 0
		qty := binary.BigEndian.Uint32(headerBuf[18:22])
		price := binary.BigEndian.Uint64(headerBuf[22:30])
		errLen := binary.BigEndian.Uint16(headerBuf[30:32])

		errBuf := make([]byte, errLen)
		if errLen > 0 {
			if _, err := io.ReadFull(conn, errBuf); err != nil {
				log.Printf("error reading report body: %v", err)
				return
			}
		}

		if msgType == wire.ErrorReport {
			fmt.Printf("\n[SERVER ERROR] %s\n", string(errBuf))
			continue
		}

		sideStr := "SELL"
		if side {
			sideStr = "BUY"
		}
		fmt.Printf("\n[EXECUTION] %s qty=%d price=%d\n", sideStr, qty, price)
	}
}
