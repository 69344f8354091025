package storage

import (
	"encoding/binary"
	"hash/crc32"

	"deskctl-go/calibration"
	"deskctl-go/errcode"
	"deskctl-go/types"
)

// Magic marks a record written by this firmware. A change of layout must
// change it.
var Magic = [4]byte{123, 52, 61, 53}

// SavedPosition is an optional stored height.
type SavedPosition struct {
	Height types.Millimeters
	Set    bool
}

func Position(mm types.Millimeters) SavedPosition { return SavedPosition{Height: mm, Set: true} }

func (p SavedPosition) Get() (types.Millimeters, bool) { return p.Height, p.Set }

// InnerConfiguration is everything the operator can change.
type InnerConfiguration struct {
	Position1   SavedPosition
	Position2   SavedPosition
	Calibration calibration.Table
}

// Slot returns a pointer to stored position 1 or 2.
func (c *InnerConfiguration) Slot(n int) *SavedPosition {
	if n == 2 {
		return &c.Position2
	}
	return &c.Position1
}

// Record layout:
//
//	[4] magic
//	[2] payload length, little endian
//	[n] payload
//	[4] CRC-32 (IEEE) of length and payload, little endian
//
// Payload: two positions (tag byte, uvarint if tag is 1), then a uvarint
// point count followed by uvarint (raw, mm) pairs.
const (
	headerSize  = len(Magic) + 2
	trailerSize = 4
	maxPosition = 1 + binary.MaxVarintLen16
	maxPayload  = 2*maxPosition + 1 + calibration.Capacity*2*binary.MaxVarintLen16

	// RecordSize is the largest encoded record.
	RecordSize = headerSize + maxPayload + trailerSize
)

func appendPosition(b []byte, p SavedPosition) []byte {
	if !p.Set {
		return append(b, 0)
	}
	b = append(b, 1)
	return binary.AppendUvarint(b, uint64(p.Height))
}

// Encode serialises c into a complete record.
func Encode(c InnerConfiguration) []byte {
	b := make([]byte, headerSize, RecordSize)
	copy(b, Magic[:])

	b = appendPosition(b, c.Position1)
	b = appendPosition(b, c.Position2)
	b = binary.AppendUvarint(b, uint64(c.Calibration.Len()))
	for i := 0; i < c.Calibration.Len(); i++ {
		p := c.Calibration.At(i)
		b = binary.AppendUvarint(b, uint64(p.Raw))
		b = binary.AppendUvarint(b, uint64(p.Length))
	}

	binary.LittleEndian.PutUint16(b[len(Magic):], uint16(len(b)-headerSize))
	return binary.LittleEndian.AppendUint32(b, crc32.ChecksumIEEE(b[len(Magic):]))
}

type decoder struct {
	b   []byte
	err error
}

func (d *decoder) uvarint16() uint16 {
	if d.err != nil {
		return 0
	}
	v, n := binary.Uvarint(d.b)
	if n <= 0 || v > 0xFFFF {
		d.err = errcode.Decode
		return 0
	}
	d.b = d.b[n:]
	return uint16(v)
}

func (d *decoder) position() SavedPosition {
	if d.err != nil {
		return SavedPosition{}
	}
	if len(d.b) == 0 {
		d.err = errcode.Decode
		return SavedPosition{}
	}
	tag := d.b[0]
	d.b = d.b[1:]
	switch tag {
	case 0:
		return SavedPosition{}
	case 1:
		return Position(types.Millimeters(d.uvarint16()))
	default:
		d.err = errcode.Decode
		return SavedPosition{}
	}
}

// Decode parses a record. It fails with errcode.BadMagic when the marker
// is missing, errcode.BadChecksum when the frame is damaged and
// errcode.Decode when the payload is malformed.
func Decode(b []byte) (InnerConfiguration, error) {
	var c InnerConfiguration
	if len(b) < headerSize+trailerSize || [4]byte(b[:4]) != Magic {
		return c, errcode.BadMagic
	}
	n := int(binary.LittleEndian.Uint16(b[len(Magic):]))
	end := headerSize + n
	if n > maxPayload || len(b) < end+trailerSize {
		return c, errcode.BadChecksum
	}
	if crc32.ChecksumIEEE(b[len(Magic):end]) != binary.LittleEndian.Uint32(b[end:]) {
		return c, errcode.BadChecksum
	}

	d := decoder{b: b[headerSize:end]}
	c.Position1 = d.position()
	c.Position2 = d.position()
	count := d.uvarint16()
	if d.err == nil && int(count) > calibration.Capacity {
		return InnerConfiguration{}, errcode.Decode
	}
	for i := 0; i < int(count) && d.err == nil; i++ {
		raw := d.uvarint16()
		mm := d.uvarint16()
		if d.err != nil {
			break
		}
		// Insert keeps the table sorted even if the stored order is not.
		if err := c.Calibration.Insert(raw, types.Millimeters(mm)); err != nil {
			d.err = err
		}
	}
	if d.err == nil && len(d.b) != 0 {
		d.err = errcode.Decode
	}
	if d.err != nil {
		return InnerConfiguration{}, d.err
	}
	return c, nil
}
