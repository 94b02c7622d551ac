// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package serialscan

import (
	"io"
	"runtime"
	"time"
)

// Source is a peekable byte source: one-byte lookahead plus fully
// buffered exact-length reads. It is component A of the grammar walker
// (spec §4.A).
//
// Contract: PeekByte is idempotent and returns the same byte a
// subsequent ReadByte returns. EOF during ReadExact fails with io.EOF
// (if nothing at all was read) or io.ErrUnexpectedEOF (if a partial
// read occurred).
type Source struct {
	rd io.Reader

	retryDelay time.Duration

	have bool // lookahead cell is populated
	la   byte // lookahead byte

	scratch [8]byte

	consumed int64 // total bytes handed to callers (for diagnostics)
}

// NewSource wraps r with one-byte lookahead and an ErrWouldBlock retry
// policy. r is typically blocking (*os.File, *bytes.Reader) but may be
// a non-blocking transport; see Options.RetryDelay.
func NewSource(r io.Reader, opts Options) *Source {
	return &Source{rd: r, retryDelay: opts.RetryDelay}
}

// waitOnceOnWouldBlock mirrors the teacher framer's retry loop: on a
// negative delay the caller gets ErrWouldBlock back immediately; zero
// cooperatively yields; positive sleeps. Returns whether to retry.
func (s *Source) waitOnceOnWouldBlock() bool {
	if s.retryDelay < 0 {
		return false
	}
	if s.retryDelay == 0 {
		runtime.Gosched()
		return true
	}
	time.Sleep(s.retryDelay)
	return true
}

// fill reads into p until it is full, EOF, or a non-retryable error.
// Partial progress on EOF is reported via io.ErrUnexpectedEOF only by
// the caller (fill itself just returns how far it got).
func (s *Source) fill(p []byte) (n int, err error) {
	for n < len(p) {
		rn, re := s.rd.Read(p[n:])
		if rn > 0 {
			n += rn
			s.consumed += int64(rn)
		}
		if re != nil {
			if re == ErrWouldBlock || re == ErrMore {
				if rn > 0 {
					// Progress happened; let the caller decide whether a
					// partial fill is acceptable before retrying.
					return n, re
				}
				if s.waitOnceOnWouldBlock() {
					continue
				}
				return n, re
			}
			return n, re
		}
		if rn == 0 {
			// A reader returning (0, nil) on a non-empty buffer would spin
			// forever; guard the same way the teacher's readOnce does.
			return n, io.ErrNoProgress
		}
	}
	return n, nil
}

// ReadByte returns the next byte, consuming the lookahead cell first
// if populated.
func (s *Source) ReadByte() (byte, error) {
	if s.have {
		s.have = false
		return s.la, nil
	}
	b := s.scratch[:1]
	n, err := s.fill(b)
	if n == 1 {
		return b[0], nil
	}
	return 0, err
}

// PeekByte returns the next byte without consuming it. Calling
// PeekByte twice in a row returns the same byte both times.
func (s *Source) PeekByte() (byte, error) {
	if s.have {
		return s.la, nil
	}
	b := s.scratch[:1]
	n, err := s.fill(b)
	if n != 1 {
		return 0, err
	}
	s.la = b[0]
	s.have = true
	return s.la, nil
}

// ReadExact reads exactly n bytes, returning a fresh copy. EOF with
// zero bytes read yields io.EOF; any partial read yields
// io.ErrUnexpectedEOF.
func (s *Source) ReadExact(n int) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	out := make([]byte, n)
	off := 0
	if s.have {
		out[0] = s.la
		s.have = false
		off = 1
	}
	if off == n {
		return out, nil
	}
	got, err := s.fill(out[off:])
	total := off + got
	if err != nil {
		if err == ErrWouldBlock || err == ErrMore {
			return out[:total], err
		}
		if err == io.EOF {
			if total == 0 {
				return nil, io.EOF
			}
			return out[:total], io.ErrUnexpectedEOF
		}
		return out[:total], err
	}
	return out, nil
}

// ReadFull fills p completely from the underlying reader, reusing the
// lookahead cell first if populated. EOF with p partially filled
// yields io.ErrUnexpectedEOF.
func (s *Source) ReadFull(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	off := 0
	if s.have {
		p[0] = s.la
		s.have = false
		off = 1
		if off == len(p) {
			return nil
		}
	}
	got, err := s.fill(p[off:])
	if err != nil {
		if err == ErrWouldBlock || err == ErrMore {
			return err
		}
		if err == io.EOF && off+got > 0 {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	return nil
}

// Skip discards n bytes, equivalent to ReadExact(n) without the copy.
func (s *Source) Skip(n int) error {
	if n <= 0 {
		return nil
	}
	remaining := n
	if s.have {
		s.have = false
		remaining--
	}
	for remaining > 0 {
		chunk := remaining
		if chunk > len(s.scratch) {
			chunk = len(s.scratch)
		}
		got, err := s.fill(s.scratch[:chunk])
		remaining -= got
		if err != nil {
			if err == ErrWouldBlock || err == ErrMore {
				return err
			}
			if err == io.EOF && remaining > 0 {
				return io.ErrUnexpectedEOF
			}
			return err
		}
	}
	return nil
}

// AvailableHint returns a best-effort lower bound on bytes available
// without blocking. Zero does not mean EOF. The lookahead cell, if
// populated, always counts.
func (s *Source) AvailableHint() int {
	if s.have {
		return 1
	}
	return 0
}

// Close releases the underlying reader if it implements io.Closer.
func (s *Source) Close() error {
	if c, ok := s.rd.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
