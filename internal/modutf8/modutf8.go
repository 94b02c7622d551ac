// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package modutf8

import (
	"errors"
	"io"
	"strings"
)

// ErrMalformed reports a continuation byte that failed the 10xxxxxx
// check, or a leading byte outside the three recognized pattern
// classes (0xxxxxxx, 110xxxxx, 1110xxxx).
var ErrMalformed = errors.New("modutf8: malformed continuation byte")

// Decode reads exactly n bytes from r and decodes them as modified
// UTF-8. On a malformed sequence it still consumes all n bytes before
// returning ErrMalformed, so the caller's cursor lands deterministically
// at start+n regardless of where the bad byte was. A genuine read
// failure from r (EOF, a transport error, ...) is returned immediately
// and unwrapped, since in that case there is nothing left to drain.
func Decode(r io.ByteReader, n int) (string, error) {
	var sb strings.Builder
	sb.Grow(n)

	i := 0
	var malformed error
	for i < n {
		b0, err := r.ReadByte()
		if err != nil {
			return sb.String(), err
		}
		i++

		if malformed != nil {
			// Already failed earlier in this string; keep draining so the
			// cursor ends up at start+n.
			continue
		}

		switch {
		case b0&0x80 == 0x00: // 0xxxxxxx
			sb.WriteByte(b0)
		case b0&0xE0 == 0xC0: // 110xxxxx, one continuation byte
			if i >= n {
				malformed = ErrMalformed
				continue
			}
			b1, err := r.ReadByte()
			if err != nil {
				return sb.String(), err
			}
			i++
			if b1&0xC0 != 0x80 {
				malformed = ErrMalformed
				continue
			}
			sb.WriteRune(rune(b0&0x1F)<<6 | rune(b1&0x3F))
		case b0&0xF0 == 0xE0: // 1110xxxx, two continuation bytes
			if i+2 > n {
				malformed = ErrMalformed
				continue
			}
			b1, err := r.ReadByte()
			if err != nil {
				return sb.String(), err
			}
			i++
			b2, err := r.ReadByte()
			if err != nil {
				return sb.String(), err
			}
			i++
			if b1&0xC0 != 0x80 || b2&0xC0 != 0x80 {
				malformed = ErrMalformed
				continue
			}
			sb.WriteRune(rune(b0&0x0F)<<12 | rune(b1&0x3F)<<6 | rune(b2&0x3F))
		default:
			malformed = ErrMalformed
		}
	}
	return sb.String(), malformed
}
