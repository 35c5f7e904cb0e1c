package regcodec

import "fmt"

// Encoding names how the bytes of a register block map to a logical value.
type Encoding uint8

const (
	// Int is a plain two's complement or unsigned integer of 2, 4, 8 or 16 bytes.
	Int Encoding = iota
	// IntAndScaleFactor is an integer of 2, 4 or 8 bytes multiplied by a scale factor.
	IntAndScaleFactor
	// IEEE754 is a single (4 bytes) or double (8 bytes) precision float.
	IEEE754
	UTF8
	// UTF16 is little-endian UTF-16 without a byte order mark.
	UTF16
	// IPAddress is an IPv4 (4 bytes) or IPv6 (16 bytes) address in network order.
	IPAddress
	RawBytes
)

var encodingNames = [...]string{
	Int:               "int",
	IntAndScaleFactor: "int+sf",
	IEEE754:           "ieee754",
	UTF8:              "utf8",
	UTF16:             "utf16",
	IPAddress:         "ip",
	RawBytes:          "raw",
}

// Valid reports whether e is one of the known encodings.
func (e Encoding) Valid() bool { return int(e) < len(encodingNames) }

func (e Encoding) String() string {
	if !e.Valid() {
		return fmt.Sprintf("Encoding(%d)", uint8(e))
	}
	return encodingNames[e]
}

// widths returns the byte lengths the integer encodings accept.
func (e Encoding) widths() []int {
	switch e {
	case Int:
		return []int{2, 4, 8, 16}
	case IntAndScaleFactor:
		return []int{2, 4, 8}
	case IEEE754:
		return []int{4, 8}
	case IPAddress:
		return []int{4, 16}
	}
	return nil
}

// scaled reports whether the encoding requires a scale factor.
func (e Encoding) scaled() bool { return e == IntAndScaleFactor }

// ParseEncoding returns the Encoding for its text form.
func ParseEncoding(s string) (Encoding, error) {
	for i, n := range encodingNames {
		if n == s {
			return Encoding(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, s)
}

func (e Encoding) MarshalText() ([]byte, error) {
	if !e.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedEncoding, uint8(e))
	}
	return []byte(encodingNames[e]), nil
}

func (e *Encoding) UnmarshalText(b []byte) error {
	v, err := ParseEncoding(string(b))
	if err != nil {
		return err
	}
	*e = v
	return nil
}
