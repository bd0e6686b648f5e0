package kifu

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrUndecodable is returned for input that is neither UTF-8 nor Shift-JIS.
var ErrUndecodable = errors.New("kifu: input is neither UTF-8 nor Shift-JIS")

// Decode converts KIF bytes to text. A byte order mark selects UTF-8 or
// UTF-16 and is dropped. Without one, valid UTF-8 is kept as is and anything
// else is read as Shift-JIS, the usual encoding of .kif files.
func Decode(data []byte) (string, error) {
	sjis := !utf8.Valid(data)
	fallback := encoding.Nop.NewDecoder()
	if sjis {
		fallback = japanese.ShiftJIS.NewDecoder()
	}
	out, _, err := transform.Bytes(unicode.BOMOverride(fallback), data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	text := string(out)
	// Shift-JIS has no code for U+FFFD, so the decoder only emits it for
	// byte sequences it could not map.
	if sjis && strings.ContainsRune(text, utf8.RuneError) {
		return "", ErrUndecodable
	}
	return text, nil
}
