package encoding

import (
	"fmt"
	"runtime"
	"unicode/utf8"
)

// Decoder normalizes one output stream chunk by chunk.
//
// In UTF-8 mode a multi-byte sequence cut off at the end of a chunk is kept
// back and prepended to the next one. In auto mode the normalizer is chosen
// from the first chunk holding a complete character and kept for the life
// of the stream.
type Decoder struct {
	norm  Func
	name  string
	auto  bool
	carry []byte
}

// NewDecoder returns a stream decoder for the named encoding.
func NewDecoder(name string) (*Decoder, error) {
	if !Valid(name) {
		return nil, fmt.Errorf("unknown encoding %q", name)
	}

	n := normalize(name)
	if n == NameAuto {
		return &Decoder{auto: true, name: NameAuto}, nil
	}

	norm, _ := ByName(n)
	if n == NamePlatform {
		n = platformName()
	}
	return &Decoder{norm: norm, name: n}, nil
}

// NewFuncDecoder wraps an arbitrary normalizer. No bytes are held back.
func NewFuncDecoder(norm Func) *Decoder {
	return &Decoder{norm: norm, name: "custom"}
}

// Name returns the encoding in use; "auto" until the first chunk is seen.
func (d *Decoder) Name() string {
	return d.name
}

// Decode normalizes p, prefixed by any bytes held back from the previous call.
func (d *Decoder) Decode(p []byte) string {
	if len(p) == 0 && len(d.carry) == 0 {
		return ""
	}

	buf := p
	if len(d.carry) > 0 {
		buf = append(d.carry, p...)
		d.carry = nil
	}

	if d.auto && d.norm == nil {
		// detect on whole runes only; a cut-off sequence is not valid UTF-8
		complete, _ := splitIncomplete(buf)
		if len(complete) == 0 {
			d.carry = append([]byte(nil), buf...)
			return ""
		}
		d.norm, d.name = Detect(complete)
	}

	if d.name == NameUTF8 {
		var tail []byte
		buf, tail = splitIncomplete(buf)
		if len(tail) > 0 {
			d.carry = append([]byte(nil), tail...)
		}
	}

	return d.norm(buf)
}

// Flush returns whatever is still held back, decoded as-is. Call it once
// the stream has ended.
func (d *Decoder) Flush() string {
	if len(d.carry) == 0 {
		return ""
	}
	norm := d.norm
	if norm == nil {
		norm = UTF8
	}
	out := norm(d.carry)
	d.carry = nil
	return out
}

// splitIncomplete separates a trailing, not yet complete UTF-8 sequence.
func splitIncomplete(b []byte) (complete, tail []byte) {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(b[i]) {
			continue
		}
		if !utf8.FullRune(b[i:]) {
			return b[:i], b[i:]
		}
		break
	}
	return b, nil
}

func platformName() string {
	if runtime.GOOS == "windows" {
		return NameCP437
	}
	return NameUTF8
}
