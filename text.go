package regcodec

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	utf8Text  encoding.Encoding = unicode.UTF8
	utf16Text encoding.Encoding = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
)

// padding is stripped from the end of decoded strings.
const padding = "\x00 "

func textEncoding(enc Encoding) encoding.Encoding {
	if enc == UTF16 {
		return utf16Text
	}
	return utf8Text
}

// encodeText rejects ill-formed UTF-8 instead of letting the encoder
// substitute U+FFFD.
func encodeText(enc Encoding, s string) ([]byte, *fault) {
	t := transform.Chain(encoding.UTF8Validator, textEncoding(enc).NewEncoder())
	b, _, err := transform.Bytes(t, []byte(s))
	if err != nil {
		return nil, failf(ErrUnsupportedType, "%s text: %v", enc, err)
	}
	return b, nil
}

// decodeText decodes b, replacing invalid sequences with U+FFFD, and trims
// trailing NUL and space padding.
func decodeText(enc Encoding, b []byte) (string, *fault) {
	out, err := textEncoding(enc).NewDecoder().Bytes(b)
	if err != nil {
		return "", failf(ErrUnsupportedType, "%s text: %v", enc, err)
	}
	return strings.TrimRight(string(out), padding), nil
}
