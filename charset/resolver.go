package charset

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

// Encoding pairs a named text encoding with its byte-order mark, if the
// encoding has one.
type Encoding struct {
	name string
	enc  encoding.Encoding
	bom  []byte
}

// Name returns the canonical lower-case encoding name.
func (e Encoding) Name() string { return e.name }

// String implements fmt.Stringer.
func (e Encoding) String() string { return e.name }

// The Unicode encodings are resolved directly rather than through the
// IANA index so their byte-order marks are known and UTF-32 is always
// available.
var (
	UTF8    = Encoding{"utf-8", unicode.UTF8, []byte{0xEF, 0xBB, 0xBF}}
	UTF16LE = Encoding{"utf-16le", unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), []byte{0xFF, 0xFE}}
	UTF16BE = Encoding{"utf-16be", unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), []byte{0xFE, 0xFF}}
	UTF32LE = Encoding{"utf-32le", utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM), []byte{0xFF, 0xFE, 0x00, 0x00}}
	UTF32BE = Encoding{"utf-32be", utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM), []byte{0x00, 0x00, 0xFE, 0xFF}}
)

// unicodeNames maps declared charset names to the Unicode encodings.
// "utf-16" and "utf-32" without a suffix mean little-endian, matching
// the common interpretation of the bare names.
var unicodeNames = map[string]Encoding{
	"utf-8":    UTF8,
	"utf8":     UTF8,
	"utf-16":   UTF16LE,
	"utf-16le": UTF16LE,
	"utf-16be": UTF16BE,
	"utf-32":   UTF32LE,
	"utf-32le": UTF32LE,
	"utf-32be": UTF32BE,
}

// UnknownCharsetError reports a declared charset name that could not be
// resolved to an encoding.
type UnknownCharsetError struct {
	// Name is the declared charset, after quote stripping.
	Name string
}

// Error implements the error interface.
func (e *UnknownCharsetError) Error() string {
	return fmt.Sprintf("charset: unknown charset %q", e.Name)
}

// DecodeError reports bytes that are not valid for the resolved encoding.
type DecodeError struct {
	// Encoding is the encoding the bytes failed to decode as.
	Encoding string
	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("charset: invalid %s data: %v", e.Encoding, e.Err)
	}
	return fmt.Sprintf("charset: invalid %s data", e.Encoding)
}

// Unwrap returns the underlying cause.
func (e *DecodeError) Unwrap() error { return e.Err }

// Resolve determines the encoding of data and the length of the
// byte-order mark to skip before decoding.
//
// A declared charset always wins: its name (with at most one matching
// pair of surrounding quotes stripped) is resolved, and an unrecognized
// name is *UnknownCharsetError, never a fall-through to sniffing. With
// no declared charset, the leading bytes are sniffed for a mark, and
// UTF-8 with no mark is the default.
func Resolve(data []byte, declared string) (Encoding, int, error) {
	if declared != "" {
		enc, err := lookup(declared)
		if err != nil {
			return Encoding{}, 0, err
		}
		return enc, bomLength(data, enc), nil
	}
	enc, bomLen := sniff(data)
	return enc, bomLen, nil
}

// Decode resolves the encoding of data and decodes everything after the
// byte-order mark. Invalid bytes for the resolved encoding are
// *DecodeError, distinct from an unresolvable charset name.
func Decode(data []byte, declared string) (string, error) {
	enc, bomLen, err := Resolve(data, declared)
	if err != nil {
		return "", err
	}
	payload := data[bomLen:]
	if len(payload) == 0 {
		return "", nil
	}
	if err := validate(payload, enc); err != nil {
		return "", err
	}
	if enc.enc == nil || enc.name == "utf-8" {
		return string(payload), nil
	}
	decoded, err := enc.enc.NewDecoder().Bytes(payload)
	if err != nil {
		return "", &DecodeError{Encoding: enc.name, Err: err}
	}
	return string(decoded), nil
}

// lookup resolves a declared charset name to an encoding.
func lookup(declared string) (Encoding, error) {
	name := stripQuotes(strings.TrimSpace(declared))
	lower := strings.ToLower(name)
	if enc, ok := unicodeNames[lower]; ok {
		return enc, nil
	}
	if enc, err := ianaindex.IANA.Encoding(name); err == nil && enc != nil {
		return Encoding{name: lower, enc: enc}, nil
	}
	// The IANA index is strict about registered names; the HTML index
	// tolerates case variants and the common aliases (latin1, ...).
	if enc, err := htmlindex.Get(lower); err == nil && enc != nil {
		return Encoding{name: lower, enc: enc}, nil
	}
	return Encoding{}, &UnknownCharsetError{Name: name}
}

// stripQuotes removes at most one matching pair of surrounding quote
// characters. Mismatched or single quotes are left alone and will fail
// resolution as part of the name.
func stripQuotes(name string) string {
	if len(name) >= 2 {
		first, last := name[0], name[len(name)-1]
		if first == last && (first == '"' || first == '\'') {
			return name[1 : len(name)-1]
		}
	}
	return name
}

// sniff inspects the leading bytes for a byte-order mark. The UTF-16LE
// mark is a prefix of the UTF-32LE mark, so the 3rd and 4th bytes
// disambiguate. No match defaults to UTF-8 with a zero-length mark, so
// no genuine content byte is ever mis-skipped.
func sniff(data []byte) (Encoding, int) {
	if len(data) >= 2 {
		switch {
		case data[0] == 0xFE && data[1] == 0xFF:
			return UTF16BE, 2
		case data[0] == 0xFF && data[1] == 0xFE:
			if len(data) >= 4 && data[2] == 0x00 && data[3] == 0x00 {
				return UTF32LE, 4
			}
			return UTF16LE, 2
		case len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF:
			return UTF8, 3
		}
	}
	return UTF8, 0
}

// bomLength returns the length of enc's byte-order mark if data starts
// with it, 0 otherwise.
func bomLength(data []byte, enc Encoding) int {
	if len(enc.bom) > 0 && bytes.HasPrefix(data, enc.bom) {
		return len(enc.bom)
	}
	return 0
}

// validate rejects byte sequences that cannot be valid in the resolved
// encoding: malformed UTF-8, odd-length or unpaired-surrogate UTF-16,
// and out-of-range UTF-32 code units. Legacy single-byte encodings from
// the IANA index have no invalid sequences to check.
func validate(payload []byte, enc Encoding) error {
	switch enc.name {
	case "utf-8":
		if !utf8.Valid(payload) {
			return &DecodeError{Encoding: enc.name}
		}
	case "utf-16le", "utf-16be":
		if err := validateUTF16(payload, enc.name == "utf-16be"); err != nil {
			return err
		}
	case "utf-32le", "utf-32be":
		if err := validateUTF32(payload, enc.name == "utf-32be"); err != nil {
			return err
		}
	}
	return nil
}

func validateUTF16(payload []byte, bigEndian bool) error {
	name := "utf-16le"
	if bigEndian {
		name = "utf-16be"
	}
	if len(payload)%2 != 0 {
		return &DecodeError{Encoding: name}
	}
	for i := 0; i < len(payload); i += 2 {
		u := unit16(payload, i, bigEndian)
		switch {
		case u >= 0xD800 && u <= 0xDBFF:
			// High surrogate must be followed by a low surrogate.
			if i+3 >= len(payload) {
				return &DecodeError{Encoding: name}
			}
			next := unit16(payload, i+2, bigEndian)
			if next < 0xDC00 || next > 0xDFFF {
				return &DecodeError{Encoding: name}
			}
			i += 2
		case u >= 0xDC00 && u <= 0xDFFF:
			// Unpaired low surrogate.
			return &DecodeError{Encoding: name}
		}
	}
	return nil
}

func validateUTF32(payload []byte, bigEndian bool) error {
	name := "utf-32le"
	if bigEndian {
		name = "utf-32be"
	}
	if len(payload)%4 != 0 {
		return &DecodeError{Encoding: name}
	}
	for i := 0; i < len(payload); i += 4 {
		var u uint32
		if bigEndian {
			u = uint32(payload[i])<<24 | uint32(payload[i+1])<<16 | uint32(payload[i+2])<<8 | uint32(payload[i+3])
		} else {
			u = uint32(payload[i]) | uint32(payload[i+1])<<8 | uint32(payload[i+2])<<16 | uint32(payload[i+3])<<24
		}
		if u > 0x10FFFF || (u >= 0xD800 && u <= 0xDFFF) {
			return &DecodeError{Encoding: name}
		}
	}
	return nil
}

func unit16(payload []byte, i int, bigEndian bool) uint16 {
	if bigEndian {
		return uint16(payload[i])<<8 | uint16(payload[i+1])
	}
	return uint16(payload[i]) | uint16(payload[i+1])<<8
}
