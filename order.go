package regcodec

import (
	"encoding/binary"
	"fmt"
)

// ByteOrder converts a byte sequence between the order a device transmits and
// the codec's canonical big-endian working order. Transform is its own
// inverse and never modifies its input.
type ByteOrder interface {
	Transform(b []byte) []byte
	String() string
}

type bigEndian struct{}
type littleEndian struct{}

var (
	// BigEndian declares the source already in network order.
	BigEndian ByteOrder = bigEndian{}
	// LittleEndian declares the source least significant byte first.
	LittleEndian ByteOrder = littleEndian{}
)

func (bigEndian) Transform(b []byte) []byte { return append([]byte{}, b...) }
func (bigEndian) String() string            { return "big" }

func (littleEndian) Transform(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		out[len(b)-1-i] = c
	}
	return out
}

func (littleEndian) String() string { return "little" }

func ParseByteOrder(s string) (ByteOrder, error) {
	switch s {
	case "big", "":
		return BigEndian, nil
	case "little":
		return LittleEndian, nil
	}
	return nil, fmt.Errorf("regcodec: unknown byte order %q", s)
}

// Layout is the register arrangement of a data source: a byte order plus an
// optional reversal of the word array.
type Layout struct {
	WordSwap bool
	Order    ByteOrder
}

func (l Layout) order() ByteOrder {
	if l.Order == nil {
		return BigEndian
	}
	return l.Order
}

// Registers converts a canonical buffer of even length into register order.
func (l Layout) Registers(buf []byte) []uint16 {
	src := l.order().Transform(buf)
	words := make([]uint16, len(src)/2)
	for i := range words {
		words[i] = binary.BigEndian.Uint16(src[2*i:])
	}
	if l.WordSwap {
		reverseWords(words)
	}
	return words
}

// Bytes converts registers back into a canonical buffer. regs is not modified.
func (l Layout) Bytes(regs []uint16) []byte {
	words := regs
	if l.WordSwap {
		words = append([]uint16{}, regs...)
		reverseWords(words)
	}
	src := make([]byte, 2*len(words))
	for i, w := range words {
		binary.BigEndian.PutUint16(src[2*i:], w)
	}
	return l.order().Transform(src)
}

func (l Layout) String() string {
	if l.WordSwap {
		return "mid-" + l.order().String()
	}
	return l.order().String()
}

func reverseWords(w []uint16) {
	for i, j := 0, len(w)-1; i < j; i, j = i+1, j-1 {
		w[i], w[j] = w[j], w[i]
	}
}

// WordOrder names the four register arrangements found in the field.
type WordOrder uint8

const (
	BigEndianWords WordOrder = iota
	LittleEndianWords
	// MidBigEndianWords is big-endian words transmitted in reverse word order.
	MidBigEndianWords
	// MidLittleEndianWords is little-endian words transmitted in reverse word order.
	MidLittleEndianWords
)

var wordOrderNames = [...]string{
	BigEndianWords:       "big",
	LittleEndianWords:    "little",
	MidBigEndianWords:    "mid-big",
	MidLittleEndianWords: "mid-little",
}

func (w WordOrder) String() string {
	if int(w) >= len(wordOrderNames) {
		return fmt.Sprintf("WordOrder(%d)", uint8(w))
	}
	return wordOrderNames[w]
}

// Layout projects w onto a word swap flag and a byte order.
func (w WordOrder) Layout() Layout {
	switch w {
	case LittleEndianWords:
		return Layout{Order: LittleEndian}
	case MidBigEndianWords:
		return Layout{WordSwap: true, Order: BigEndian}
	case MidLittleEndianWords:
		return Layout{WordSwap: true, Order: LittleEndian}
	}
	return Layout{Order: BigEndian}
}

func ParseWordOrder(s string) (WordOrder, error) {
	for i, n := range wordOrderNames {
		if n == s {
			return WordOrder(i), nil
		}
	}
	return 0, fmt.Errorf("regcodec: unknown word order %q", s)
}

func (w WordOrder) MarshalText() ([]byte, error) {
	if int(w) >= len(wordOrderNames) {
		return nil, fmt.Errorf("regcodec: unknown word order %d", uint8(w))
	}
	return []byte(wordOrderNames[w]), nil
}

func (w *WordOrder) UnmarshalText(b []byte) error {
	v, err := ParseWordOrder(string(b))
	if err != nil {
		return err
	}
	*w = v
	return nil
}
