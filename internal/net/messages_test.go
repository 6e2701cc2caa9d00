package net

import (
	"encoding/binary"
	"testing"

	"ticklob/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeNewOrder(orderType common.OrderType, side common.Side, uid common.UID, qty common.Quantity, price common.Price, symbol string) []byte {
	symbolBytes := []byte(symbol)
	buf := make([]byte, BaseMessageHeaderLen+NewOrderMessageHeaderLen+len(symbolBytes))
	binary.BigEndian.PutUint16(buf[0:2], uint16(NewOrder))
	buf[2] = byte(orderType)
	if side {
		buf[3] = 1
	}
	binary.BigEndian.PutUint64(buf[4:12], uid)
	binary.BigEndian.PutUint32(buf[12:16], qty)
	binary.BigEndian.PutUint64(buf[16:24], price)
	buf[24] = byte(len(symbolBytes))
	copy(buf[25:], symbolBytes)
	return buf
}

func TestParseMessage_NewOrder(t *testing.T) {
	wire := encodeNewOrder(common.LimitOrder, common.Bid, 42, 100, 250, "TICK")

	msg, err := ParseMessage(wire)
	require.NoError(t, err)

	order, ok := msg.(NewOrderMessage)
	require.True(t, ok)
	assert.Equal(t, NewOrder, order.GetType())
	assert.Equal(t, common.LimitOrder, order.OrderType)
	assert.Equal(t, common.Bid, order.Side)
	assert.Equal(t, common.UID(42), order.UID)
	assert.Equal(t, common.Quantity(100), order.Quantity)
	assert.Equal(t, common.Price(250), order.Price)
	assert.Equal(t, "TICK", order.Symbol)
}

func TestParseMessage_NewOrder_TooShort(t *testing.T) {
	wire := encodeNewOrder(common.LimitOrder, common.Bid, 42, 100, 250, "TICK")
	_, err := ParseMessage(wire[:BaseMessageHeaderLen+5])
	assert.ErrorIs(t, err, ErrMessageTooShort)
}

func TestParseMessage_CancelOrder(t *testing.T) {
	symbol := []byte("TICK")
	buf := make([]byte, BaseMessageHeaderLen+CancelOrderMessageHeaderLen+len(symbol))
	binary.BigEndian.PutUint16(buf[0:2], uint16(CancelOrder))
	binary.BigEndian.PutUint64(buf[2:10], 7)
	buf[10] = byte(len(symbol))
	copy(buf[11:], symbol)

	msg, err := ParseMessage(buf)
	require.NoError(t, err)

	cancel, ok := msg.(CancelOrderMessage)
	require.True(t, ok)
	assert.Equal(t, common.UID(7), cancel.UID)
	assert.Equal(t, "TICK", cancel.Symbol)
}

func TestParseMessage_LogBook(t *testing.T) {
	symbol := []byte("TICK")
	buf := make([]byte, BaseMessageHeaderLen+LogBookMessageHeaderLen+len(symbol))
	binary.BigEndian.PutUint16(buf[0:2], uint16(LogBook))
	buf[2] = byte(len(symbol))
	copy(buf[3:], symbol)

	msg, err := ParseMessage(buf)
	require.NoError(t, err)

	logReq, ok := msg.(LogBookMessage)
	require.True(t, ok)
	assert.Equal(t, "TICK", logReq.Symbol)
}

func TestParseMessage_UnknownType(t *testing.T) {
	buf := make([]byte, BaseMessageHeaderLen)
	binary.BigEndian.PutUint16(buf[0:2], 0xFFFF)
	_, err := ParseMessage(buf)
	assert.ErrorIs(t, err, ErrInvalidMessageType)
}

func TestReport_Serialize_Execution(t *testing.T) {
	report := NewExecutionReport(common.Bid, 50, 999)
	wire := report.Serialize()

	require.Len(t, wire, reportFixedHeaderLen)
	assert.Equal(t, byte(ExecutionReport), wire[0])
	assert.Equal(t, byte(1), wire[17])
	assert.Equal(t, common.Quantity(50), binary.BigEndian.Uint32(wire[18:22]))
	assert.Equal(t, common.Price(999), binary.BigEndian.Uint64(wire[22:30]))
	assert.Equal(t, uint16(0), binary.BigEndian.Uint16(wire[30:32]))
}

func TestReport_Serialize_Error(t *testing.T) {
	report := NewErrorReport(common.ErrUnknownOrder)
	wire := report.Serialize()

	assert.Equal(t, byte(ErrorReport), wire[0])
	errLen := binary.BigEndian.Uint16(wire[30:32])
	assert.Equal(t, common.ErrUnknownOrder.Error(), string(wire[32:32+errLen]))
}
