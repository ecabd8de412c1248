package codec

import (
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/models"
)

// Top-level ServerMessage fields
const (
	fieldAck       = 1
	fieldEvent     = 2
	fieldError     = 3
	fieldHeartbeat = 4
)

// DecodeFrame decodes one frame payload into a ServerMessage. Errors wrap
// ErrMalformedFrame and affect only this payload.
func DecodeFrame(payload []byte) (*models.ServerMessage, error) {
	c := NewCursor(payload)
	msg := &models.ServerMessage{}
	err := c.fields(func(num protowire.Number, typ protowire.Type) error {
		switch num {
		case fieldAck:
			return c.message(num, typ, func(c *Cursor) error {
				ack, err := decodeAck(c)
				*msg = models.ServerMessage{Ack: ack}
				return err
			})
		case fieldEvent:
			return c.message(num, typ, func(c *Cursor) error {
				ev, err := decodeDexEvent(c)
				*msg = models.ServerMessage{Event: ev}
				return err
			})
		case fieldError:
			return c.message(num, typ, func(c *Cursor) error {
				se, err := decodeServerError(c)
				*msg = models.ServerMessage{Error: se}
				return err
			})
		case fieldHeartbeat:
			return c.message(num, typ, func(c *Cursor) error {
				hb, err := decodeHeartbeat(c)
				*msg = models.ServerMessage{Heartbeat: hb}
				return err
			})
		}
		return c.Skip(num, typ)
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func decodeAck(c *Cursor) (*models.ServerAck, error) {
	ack := &models.ServerAck{}
	return ack, c.fields(func(num protowire.Number, typ protowire.Type) error {
		switch num {
		case 1:
			return c.stringField(num, typ, &ack.MessageID)
		case 2:
			return c.boolField(num, typ, &ack.Success)
		case 3:
			return c.stringField(num, typ, &ack.Message)
		}
		return c.Skip(num, typ)
	})
}

func decodeServerError(c *Cursor) (*models.ServerError, error) {
	se := &models.ServerError{}
	return se, c.fields(func(num protowire.Number, typ protowire.Type) error {
		switch num {
		case 1:
			return c.stringField(num, typ, &se.ErrorCode)
		case 2:
			return c.stringField(num, typ, &se.ErrorMessage)
		case 3:
			return c.stringField(num, typ, &se.RequestID)
		}
		return c.Skip(num, typ)
	})
}

func decodeHeartbeat(c *Cursor) (*models.ServerHeartbeat, error) {
	hb := &models.ServerHeartbeat{}
	return hb, c.fields(func(num protowire.Number, typ protowire.Type) error {
		switch num {
		case 1:
			return c.uint64Field(num, typ, &hb.Timestamp)
		case 2:
			return c.uint32Field(num, typ, &hb.ConnectedClients)
		}
		return c.Skip(num, typ)
	})
}

func decodeMetadata(c *Cursor) (*models.EventMetadata, error) {
	m := &models.EventMetadata{}
	return m, c.fields(func(num protowire.Number, typ protowire.Type) error {
		switch num {
		case 1:
			return c.stringField(num, typ, &m.Signature)
		case 2:
			return c.uint64Field(num, typ, &m.Slot)
		case 3:
			return c.uint64Field(num, typ, &m.TxIndex)
		case 4:
			return c.int64Field(num, typ, &m.BlockTimeUs)
		case 5:
			return c.int64Field(num, typ, &m.GrpcRecvUs)
		}
		return c.Skip(num, typ)
	})
}

// metadataField decodes field 1 of every event message
func metadataField(c *Cursor, num protowire.Number, typ protowire.Type, dst **models.EventMetadata) error {
	return c.message(num, typ, func(c *Cursor) error {
		m, err := decodeMetadata(c)
		*dst = m
		return err
	})
}
