package codec

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// ErrMalformedFrame is returned when a payload cannot be decoded
var ErrMalformedFrame = errors.New("malformed frame")

// Cursor walks a protobuf payload. Nested messages narrow limit with
// PushLimit and restore it with PopLimit.
type Cursor struct {
	buf    []byte
	offset int
	limit  int
}

// NewCursor returns a cursor over the whole of b
func NewCursor(b []byte) *Cursor {
	return &Cursor{buf: b, limit: len(b)}
}

// AtEnd reports whether the current limit has been reached
func (c *Cursor) AtEnd() bool {
	return c.offset >= c.limit
}

// Offset returns the absolute read position
func (c *Cursor) Offset() int {
	return c.offset
}

func (c *Cursor) window() []byte {
	return c.buf[c.offset:c.limit]
}

func (c *Cursor) fail(n int, what string) error {
	return fmt.Errorf("%w: %s at offset %d: %v", ErrMalformedFrame, what, c.offset, protowire.ParseError(n))
}

// ReadTag reads the next field number and wire type
func (c *Cursor) ReadTag() (protowire.Number, protowire.Type, error) {
	num, typ, n := protowire.ConsumeTag(c.window())
	if n < 0 {
		return 0, 0, c.fail(n, "tag")
	}
	c.offset += n
	return num, typ, nil
}

// ReadVarint reads a base-128 varint as a full 64-bit value
func (c *Cursor) ReadVarint() (uint64, error) {
	v, n := protowire.ConsumeVarint(c.window())
	if n < 0 {
		return 0, c.fail(n, "varint")
	}
	c.offset += n
	return v, nil
}

// ReadBytes reads a length-delimited value. The result aliases the buffer.
func (c *Cursor) ReadBytes() ([]byte, error) {
	v, n := protowire.ConsumeBytes(c.window())
	if n < 0 {
		return nil, c.fail(n, "bytes")
	}
	c.offset += n
	return v, nil
}

// Skip discards a field value using its wire type's length rule
func (c *Cursor) Skip(num protowire.Number, typ protowire.Type) error {
	n := protowire.ConsumeFieldValue(num, typ, c.window())
	if n < 0 {
		return c.fail(n, fmt.Sprintf("field %d", num))
	}
	c.offset += n
	return nil
}

// PushLimit reads a length prefix and narrows the cursor to it. The
// returned value must be handed to PopLimit.
func (c *Cursor) PushLimit() (int, error) {
	size, n := protowire.ConsumeVarint(c.window())
	if n < 0 {
		return 0, c.fail(n, "length")
	}
	if size > uint64(c.limit-c.offset-n) {
		return 0, fmt.Errorf("%w: nested length %d exceeds remaining %d", ErrMalformedFrame, size, c.limit-c.offset-n)
	}
	c.offset += n
	saved := c.limit
	c.limit = c.offset + int(size)
	return saved, nil
}

// PopLimit moves past the nested message and restores the outer limit
func (c *Cursor) PopLimit(saved int) {
	c.offset = c.limit
	c.limit = saved
}

// Typed readers. A known field on an unexpected wire type is skipped.

func (c *Cursor) uint64Field(num protowire.Number, typ protowire.Type, dst *uint64) error {
	if typ != protowire.VarintType {
		return c.Skip(num, typ)
	}
	v, err := c.ReadVarint()
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func (c *Cursor) int64Field(num protowire.Number, typ protowire.Type, dst *int64) error {
	var v uint64
	if err := c.uint64Field(num, typ, &v); err != nil {
		return err
	}
	if typ == protowire.VarintType {
		*dst = int64(v)
	}
	return nil
}

func (c *Cursor) uint32Field(num protowire.Number, typ protowire.Type, dst *uint32) error {
	var v uint64
	if err := c.uint64Field(num, typ, &v); err != nil {
		return err
	}
	if typ == protowire.VarintType {
		*dst = uint32(v)
	}
	return nil
}

// int32 negatives arrive sign-extended to ten bytes
func (c *Cursor) int32Field(num protowire.Number, typ protowire.Type, dst *int32) error {
	var v uint64
	if err := c.uint64Field(num, typ, &v); err != nil {
		return err
	}
	if typ == protowire.VarintType {
		*dst = int32(int64(v))
	}
	return nil
}

func (c *Cursor) boolField(num protowire.Number, typ protowire.Type, dst *bool) error {
	var v uint64
	if err := c.uint64Field(num, typ, &v); err != nil {
		return err
	}
	if typ == protowire.VarintType {
		*dst = v != 0
	}
	return nil
}

func (c *Cursor) stringField(num protowire.Number, typ protowire.Type, dst *string) error {
	if typ != protowire.BytesType {
		return c.Skip(num, typ)
	}
	b, err := c.ReadBytes()
	if err != nil {
		return err
	}
	*dst = string(b)
	return nil
}

// message decodes a nested message with fn under a pushed limit
func (c *Cursor) message(num protowire.Number, typ protowire.Type, fn func(*Cursor) error) error {
	if typ != protowire.BytesType {
		return c.Skip(num, typ)
	}
	saved, err := c.PushLimit()
	if err != nil {
		return err
	}
	if err := fn(c); err != nil {
		return err
	}
	c.PopLimit(saved)
	return nil
}

// fields loops over the tags up to the current limit
func (c *Cursor) fields(fn func(num protowire.Number, typ protowire.Type) error) error {
	for !c.AtEnd() {
		num, typ, err := c.ReadTag()
		if err != nil {
			return err
		}
		if err := fn(num, typ); err != nil {
			return err
		}
	}
	return nil
}
