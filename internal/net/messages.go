// Package net implements a small binary TCP protocol that drives an
// engine.Book from a remote client — the wire-gateway embedding layer
// described in SPEC_FULL.md §2 component F. It carries no matching logic
// of its own; it only marshals requests into engine.Book calls and
// marshals results back onto the wire, adapted from the teacher's
// internal/net/messages.go.
package net

import (
	"encoding/binary"
	"errors"
	"fmt"

	"ticklob/internal/common"

	"github.com/google/uuid"
)

var (
	ErrInvalidMessageType = errors.New("invalid message type")
	ErrMessageTooShort    = errors.New("message too short for declared length")
)

type MessageType uint16

const (
	Heartbeat MessageType = iota
	NewOrder
	CancelOrder
	LogBook
)

type ReportMessageType uint8

const (
	ExecutionReport ReportMessageType = iota
	ErrorReport
)

type Message interface {
	GetType() MessageType
}

// Message format constants, mirroring the teacher's fixed-header-length
// convention (internal/net/messages.go).
const (
	BaseMessageHeaderLen = 2 // MessageType

	// OrderType(1) + Side(1) + UID(8) + Quantity(4) + Price(8) + SymbolLen(1)
	NewOrderMessageHeaderLen = 1 + 1 + 8 + 4 + 8 + 1
	// UID(8) + SymbolLen(1)
	CancelOrderMessageHeaderLen = 8 + 1
	// SymbolLen(1)
	LogBookMessageHeaderLen = 1
)

type BaseMessage struct {
	TypeOf MessageType
}

func (m BaseMessage) GetType() MessageType { return m.TypeOf }

func ParseMessage(msg []byte) (Message, error) {
	if len(msg) < BaseMessageHeaderLen {
		return BaseMessage{}, ErrMessageTooShort
	}

	typeOf := MessageType(binary.BigEndian.Uint16(msg[0:2]))
	body := msg[2:]
	switch typeOf {
	case NewOrder:
		return parseNewOrder(body)
	case CancelOrder:
		return parseCancelOrder(body)
	case LogBook:
		return parseLogBook(body)
	default:
		return BaseMessage{}, ErrInvalidMessageType
	}
}

// NewOrderMessage carries either a limit or a market submission for one
// symbol's book.
type NewOrderMessage struct {
	BaseMessage
	OrderType common.OrderType
	Side      common.Side
	UID       common.UID
	Quantity  common.Quantity
	Price     common.Price // ignored for market orders
	Symbol    string
}

func parseNewOrder(msg []byte) (NewOrderMessage, error) {
	if len(msg) < NewOrderMessageHeaderLen {
		return NewOrderMessage{}, ErrMessageTooShort
	}

	m := NewOrderMessage{BaseMessage: BaseMessage{TypeOf: NewOrder}}
	m.OrderType = common.OrderType(msg[0])
	m.Side = common.Side(msg[1] != 0)
	m.UID = binary.BigEndian.Uint64(msg[2:10])
	m.Quantity = binary.BigEndian.Uint32(msg[10:14])
	m.Price = binary.BigEndian.Uint64(msg[14:22])
	symbolLen := int(msg[22])

	if len(msg) < NewOrderMessageHeaderLen+symbolLen {
		return NewOrderMessage{}, ErrMessageTooShort
	}
	m.Symbol = string(msg[NewOrderMessageHeaderLen : NewOrderMessageHeaderLen+symbolLen])
	return m, nil
}

// CancelOrderMessage carries a cancel request for one symbol's book.
type CancelOrderMessage struct {
	BaseMessage
	UID    common.UID
	Symbol string
}

func parseCancelOrder(msg []byte) (CancelOrderMessage, error) {
	if len(msg) < CancelOrderMessageHeaderLen {
		return CancelOrderMessage{}, ErrMessageTooShort
	}

	m := CancelOrderMessage{BaseMessage: BaseMessage{TypeOf: CancelOrder}}
	m.UID = binary.BigEndian.Uint64(msg[0:8])
	symbolLen := int(msg[8])

	if len(msg) < CancelOrderMessageHeaderLen+symbolLen {
		return CancelOrderMessage{}, ErrMessageTooShort
	}
	m.Symbol = string(msg[CancelOrderMessageHeaderLen : CancelOrderMessageHeaderLen+symbolLen])
	return m, nil
}

// LogBookMessage asks the gateway to log a diagnostic summary (the number
// of price levels on each side) of one symbol's book (adapted from the teacher's referenced-but-undefined
// LogBook request, see SPEC_FULL.md §10.6).
type LogBookMessage struct {
	BaseMessage
	Symbol string
}

func parseLogBook(msg []byte) (LogBookMessage, error) {
	if len(msg) < LogBookMessageHeaderLen {
		return LogBookMessage{}, ErrMessageTooShort
	}
	symbolLen := int(msg[0])
	if len(msg) < LogBookMessageHeaderLen+symbolLen {
		return LogBookMessage{}, ErrMessageTooShort
	}
	return LogBookMessage{
		BaseMessage: BaseMessage{TypeOf: LogBook},
		Symbol:      string(msg[LogBookMessageHeaderLen : LogBookMessageHeaderLen+symbolLen]),
	}, nil
}

// Report is the wire form of an execution or error report sent back to a
// client. ReportID correlates reports to a single inbound request — it is
// a uuid, distinct from the caller-supplied order uid (SPEC_FULL.md
// §10.5).
type Report struct {
	MessageType ReportMessageType
	ReportID    string
	Side        common.Side
	Quantity    common.Quantity
	Price       common.Price
	ErrStr      string
}

const reportFixedHeaderLen = 1 + 16 + 1 + 4 + 8 + 2 // type + uuid(16) + side + qty + price + errlen

// Serialize converts the report to its wire form.
func (r *Report) Serialize() []byte {
	buf := make([]byte, reportFixedHeaderLen+len(r.ErrStr))
	buf[0] = byte(r.MessageType)

	if id, err := uuid.Parse(r.ReportID); err == nil {
		copy(buf[1:17], id[:])
	}

	side := byte(0)
	if r.Side {
		side = 1
	}
	buf[17] = side
	binary.BigEndian.PutUint32(buf[18:22], r.Quantity)
	binary.BigEndian.PutUint64(buf[22:30], r.Price)
	binary.BigEndian.PutUint16(buf[30:32], uint16(len(r.ErrStr)))
	copy(buf[32:], r.ErrStr)
	return buf
}

// NewExecutionReport builds a fill report for one side of a match.
func NewExecutionReport(side common.Side, qty common.Quantity, price common.Price) Report {
	return Report{
		MessageType: ExecutionReport,
		ReportID:    uuid.New().String(),
		Side:        side,
		Quantity:    qty,
		Price:       price,
	}
}

// NewErrorReport builds an error report for a rejected request.
func NewErrorReport(err error) Report {
	return Report{
		MessageType: ErrorReport,
		ReportID:    uuid.New().String(),
		ErrStr:      fmt.Sprintf("%v", err),
	}
}
