// Package wire frames register images for storage in a byte provider.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
)

const (
	version    byte = 1
	kindSingle byte = 1
	kindBulk   byte = 2
	kindValue  byte = 3

	singleHdr = 4 + 1 + 1 + 8 + 4
	bulkHdr   = 4 + 1 + 1 + 4
	valueHdr  = 4 + 1 + 1 + 8
)

var (
	ErrCorrupt   = errors.New("regcodec: corrupt register image")
	ErrKeyLength = errors.New("regcodec: bulk key length out of range")
	magic4       = [...]byte{'R', 'G', 'I', 'M'}
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

func putWords(dst []byte, regs []uint16) {
	for i, r := range regs {
		binary.BigEndian.PutUint16(dst[2*i:], r)
	}
}

func readWords(b []byte, n int) []uint16 {
	regs := make([]uint16, n)
	for i := range regs {
		regs[i] = binary.BigEndian.Uint16(b[2*i:])
	}
	return regs
}

// Single: magic(4) | ver(1) | kind(1=single) | gen(u64 be) | count(u32 be) | words(count*u16 be)
func EncodeSingle(gen uint64, regs []uint16) []byte {
	b := make([]byte, singleHdr+2*len(regs))
	copy(b, magic4[:])
	b[4] = version
	b[5] = kindSingle
	binary.BigEndian.PutUint64(b[6:], gen)
	binary.BigEndian.PutUint32(b[14:], uint32(len(regs)))
	putWords(b[singleHdr:], regs)
	return b
}

// DecodeSingle rejects anything but an exactly sized single frame.
func DecodeSingle(b []byte) (gen uint64, regs []uint16, err error) {
	if len(b) < singleHdr || !hasMagic(b) || b[4] != version || b[5] != kindSingle {
		return 0, nil, ErrCorrupt
	}
	gen = binary.BigEndian.Uint64(b[6:14])
	n := int(binary.BigEndian.Uint32(b[14:18]))
	if n < 0 || n > (len(b)-singleHdr)/2 || singleHdr+2*n != len(b) {
		return 0, nil, ErrCorrupt
	}
	return gen, readWords(b[singleHdr:], n), nil
}

// Value: magic(4) | ver(1) | kind(3=value) | gen(u64 be) | payload
//
// The payload is a serialized decoded value; its format belongs to the caller.
func EncodeValue(gen uint64, payload []byte) []byte {
	b := make([]byte, valueHdr, valueHdr+len(payload))
	copy(b, magic4[:])
	b[4] = version
	b[5] = kindValue
	binary.BigEndian.PutUint64(b[6:], gen)
	return append(b, payload...)
}

// DecodeValue returns a copy of the payload.
func DecodeValue(b []byte) (gen uint64, payload []byte, err error) {
	if len(b) < valueHdr || !hasMagic(b) || b[4] != version || b[5] != kindValue {
		return 0, nil, ErrCorrupt
	}
	return binary.BigEndian.Uint64(b[6:valueHdr]), bytes.Clone(b[valueHdr:]), nil
}

// Bulk:
//
//	magic(4) | ver(1) | kind(1=bulk) | n(u32 be)
//	keyLen(u16 be) | key(keyLen) | gen(u64 be) | count(u32 be) | words(count*u16 be) * n
type BulkItem struct {
	Key  string
	Gen  uint64
	Regs []uint16
}

func EncodeBulk(items []BulkItem) ([]byte, error) {
	total := bulkHdr
	for _, it := range items {
		if l := len(it.Key); l == 0 || l > math.MaxUint16 {
			return nil, ErrKeyLength
		}
		total += 2 + len(it.Key) + 8 + 4 + 2*len(it.Regs)
	}

	var buf bytes.Buffer
	buf.Grow(total)

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(kindBulk)

	var u8 [8]byte
	var u4 [4]byte
	var u2 [2]byte

	binary.BigEndian.PutUint32(u4[:], uint32(len(items)))
	buf.Write(u4[:])

	for _, it := range items {
		binary.BigEndian.PutUint16(u2[:], uint16(len(it.Key)))
		buf.Write(u2[:])
		buf.WriteString(it.Key)

		binary.BigEndian.PutUint64(u8[:], it.Gen)
		buf.Write(u8[:])

		binary.BigEndian.PutUint32(u4[:], uint32(len(it.Regs)))
		buf.Write(u4[:])
		for _, r := range it.Regs {
			binary.BigEndian.PutUint16(u2[:], r)
			buf.Write(u2[:])
		}
	}
	return buf.Bytes(), nil
}

func DecodeBulk(b []byte) ([]BulkItem, error) {
	if len(b) < bulkHdr || !hasMagic(b) || b[4] != version || b[5] != kindBulk {
		return nil, ErrCorrupt
	}
	off := 6

	n := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	// each item takes at least 2+1+8+4 bytes
	if n < 0 || n > (len(b)-off)/15 {
		return nil, ErrCorrupt
	}

	items := make([]BulkItem, 0, n)
	for i := 0; i < n; i++ {
		if off+2 > len(b) {
			return nil, ErrCorrupt
		}
		klen := int(binary.BigEndian.Uint16(b[off : off+2]))
		off += 2
		if klen <= 0 || klen > len(b)-off {
			return nil, ErrCorrupt
		}
		key := string(b[off : off+klen])
		off += klen

		if off+12 > len(b) {
			return nil, ErrCorrupt
		}
		gen := binary.BigEndian.Uint64(b[off : off+8])
		off += 8
		cnt := int(binary.BigEndian.Uint32(b[off : off+4]))
		off += 4
		if cnt < 0 || cnt > (len(b)-off)/2 {
			return nil, ErrCorrupt
		}

		items = append(items, BulkItem{Key: key, Gen: gen, Regs: readWords(b[off:], cnt)})
		off += 2 * cnt
	}
	if off != len(b) {
		return nil, ErrCorrupt
	}
	return items, nil
}
