// Package encoding normalizes raw child-process output bytes into text for
// the session buffer.
//
// A normalizer is a pure, total function from bytes to a string: it never
// fails, undecodable input becomes U+FFFD. Decoder wraps one per output
// stream and holds back a UTF-8 sequence split across two reads.
package encoding

import (
	"runtime"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	xencoding "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

// Func maps raw bytes to canonical text.
type Func func([]byte) string

// Encoding names accepted by ByName and NewDecoder.
const (
	NamePlatform = "platform"
	NameUTF8     = "utf-8"
	NameCP437    = "cp437"
	NameAuto     = "auto"
)

// UTF8 decodes UTF-8, replacing ill-formed sequences with U+FFFD.
func UTF8(b []byte) string {
	return decodeWith(unicode.UTF8, b)
}

// CP437 decodes IBM code page 437, the console code page cmd.exe writes.
func CP437(b []byte) string {
	return decodeWith(charmap.CodePage437, b)
}

// Platform returns the normalizer matching the native console encoding:
// CP437 on Windows, UTF-8 elsewhere.
func Platform() Func {
	if runtime.GOOS == "windows" {
		return CP437
	}
	return UTF8
}

// Detect guesses the encoding of sample. Valid UTF-8 short-circuits the
// detector; anything chardet cannot map to a decoder falls back to UTF-8.
// The returned name is the IANA charset used.
func Detect(sample []byte) (Func, string) {
	if utf8.Valid(sample) {
		return UTF8, NameUTF8
	}

	result, err := chardet.NewTextDetector().DetectBest(sample)
	if err != nil || result == nil {
		return UTF8, NameUTF8
	}

	enc, err := ianaindex.IANA.Encoding(result.Charset)
	if err != nil || enc == nil {
		return UTF8, NameUTF8
	}
	if enc == unicode.UTF8 {
		return UTF8, NameUTF8
	}

	name := strings.ToLower(result.Charset)
	return func(b []byte) string { return decodeWith(enc, b) }, name
}

// ByName resolves a fixed normalizer. NameAuto has no fixed normalizer and
// reports false; use NewDecoder for it.
func ByName(name string) (Func, bool) {
	switch normalize(name) {
	case NamePlatform:
		return Platform(), true
	case NameUTF8:
		return UTF8, true
	case NameCP437:
		return CP437, true
	default:
		return nil, false
	}
}

// Valid reports whether name is an accepted encoding name.
func Valid(name string) bool {
	switch normalize(name) {
	case NamePlatform, NameUTF8, NameCP437, NameAuto:
		return true
	default:
		return false
	}
}

func normalize(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "", NamePlatform:
		return NamePlatform
	case "utf8", NameUTF8:
		return NameUTF8
	case "ibm437", "437", NameCP437:
		return NameCP437
	default:
		return n
	}
}

func decodeWith(enc xencoding.Encoding, b []byte) string {
	if len(b) == 0 {
		return ""
	}
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "�")
	}
	return string(out)
}
