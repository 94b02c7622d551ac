// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package serialscan

import (
	"encoding/binary"
	"io"
	"math"

	"code.hybscloud.com/serialscan/internal/modutf8"
)

// MaxBlockSize is the internal buffer's capacity: the largest slice of
// a single block-data frame that is loaded into memory at once. A
// frame whose declared length exceeds this is read in successive
// chunks, never all at once.
const MaxBlockSize = 1024

// MaxHeaderSize is the largest possible block-data header: one tag
// byte plus a 4-byte signed length (TC_BLOCKDATALONG).
const MaxHeaderSize = 5

type frameMode uint8

const (
	modeRaw frameMode = iota
	modeBlock
)

// BlockReader is the dual-mode primitive-typed data reader of spec
// §4.B. In raw mode it reads primitives directly off a Source. In
// block mode it transparently unwraps TC_BLOCKDATA / TC_BLOCKDATALONG
// framing, swallowing TC_RESET tags between frames.
type BlockReader struct {
	src  *Source
	mode frameMode

	buf [MaxBlockSize]byte
	// pos/end bound the buffered, unconsumed region of the current
	// frame. unread is how much of the current frame's declared length
	// has not yet been loaded into buf. pos == end == -1 is the
	// terminal sentinel: "no more blocks here" (spec §4.B).
	pos, end int
	unread   int64
}

// NewBlockReader wraps src, initially in raw mode.
func NewBlockReader(src *Source) *BlockReader {
	return &BlockReader{src: src, mode: modeRaw}
}

// InBlockMode reports whether the reader is currently unwrapping
// block-data framing.
func (br *BlockReader) InBlockMode() bool { return br.mode == modeBlock }

// EnterBlockMode switches from raw to block mode, resetting
// (pos, end, unread) to zero per spec §4.B. No frame header is parsed
// until the first read.
func (br *BlockReader) EnterBlockMode() {
	br.mode = modeBlock
	br.pos, br.end, br.unread = 0, 0, 0
}

// ExitBlockMode switches from block to raw mode. Switching with
// unconsumed block bytes remaining is a BlockStateViolation.
func (br *BlockReader) ExitBlockMode() error {
	if br.mode == modeBlock && br.CurrentBlockRemaining() > 0 {
		return newScanError(KindBlockStateViolation, -1,
			"exit block mode with %d unconsumed bytes", br.CurrentBlockRemaining())
	}
	br.mode = modeRaw
	return nil
}

// CurrentBlockRemaining returns (end-pos)+unread when in block mode;
// zero once the terminal sentinel has been reached. Undefined (by
// caller contract) in raw mode.
func (br *BlockReader) CurrentBlockRemaining() int64 {
	if br.pos < 0 {
		return 0
	}
	return int64(br.end-br.pos) + br.unread
}

// SkipToEndOfBlocks discards bytes until the next non-block tag,
// swallowing any TC_RESET tags it encounters between frames. Only
// valid in block mode; does not change mode.
func (br *BlockReader) SkipToEndOfBlocks() error {
	if br.mode != modeBlock {
		return newScanError(KindBlockStateViolation, -1, "SkipToEndOfBlocks outside block mode")
	}
	for {
		if br.pos >= 0 && br.pos < br.end {
			br.pos = br.end
		}
		if br.unread > 0 {
			if err := br.src.Skip(int(br.unread)); err != nil {
				return err
			}
			br.unread = 0
		}
		ok, err := br.loadNextFrameHeader()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
}

// loadNextFrameHeader peeks for a block-data header, swallowing any
// TC_RESET tags first. ok is true when a new frame was started (pos,
// end, unread are now valid); ok is false with a nil error when a
// non-block tag (or EOF) was found, left unconsumed, and the terminal
// sentinel was set.
func (br *BlockReader) loadNextFrameHeader() (ok bool, err error) {
	for {
		tag, perr := br.src.PeekByte()
		if perr != nil {
			if perr == io.EOF {
				br.pos, br.end, br.unread = -1, -1, 0
				return false, nil
			}
			return false, perr
		}
		switch TypeCode(tag) {
		case TcReset:
			if _, err := br.src.ReadByte(); err != nil {
				return false, err
			}
			continue
		case TcBlockData:
			if _, err := br.src.ReadByte(); err != nil {
				return false, err
			}
			lb, err := br.src.ReadExact(1)
			if err != nil {
				return false, err
			}
			return true, br.startFrame(int64(lb[0]))
		case TcBlockDataLong:
			if _, err := br.src.ReadByte(); err != nil {
				return false, err
			}
			lb, err := br.src.ReadExact(4)
			if err != nil {
				return false, err
			}
			n := int32(binary.BigEndian.Uint32(lb))
			if n < 0 {
				return false, newScanError(KindCorruptedStream, -1,
					"negative TC_BLOCKDATALONG length %d", n)
			}
			return true, br.startFrame(int64(n))
		default:
			br.pos, br.end, br.unread = -1, -1, 0
			return false, nil
		}
	}
}

func (br *BlockReader) startFrame(length int64) error {
	chunk := length
	if chunk > MaxBlockSize {
		chunk = MaxBlockSize
	}
	if chunk > 0 {
		if err := br.src.ReadFull(br.buf[:chunk]); err != nil {
			return err
		}
	}
	br.pos, br.end = 0, int(chunk)
	br.unread = length - chunk
	return nil
}

func (br *BlockReader) refillChunk() error {
	chunk := br.unread
	if chunk > MaxBlockSize {
		chunk = MaxBlockSize
	}
	if err := br.src.ReadFull(br.buf[:chunk]); err != nil {
		return err
	}
	br.pos, br.end = 0, int(chunk)
	br.unread -= chunk
	return nil
}

// blockByte returns the next byte in block mode, transparently
// crossing frame boundaries (and reset tags) as needed. io.EOF means
// "no more blocks here", matching Source.ReadByte's EOF contract.
func (br *BlockReader) blockByte() (byte, error) {
	for {
		if br.pos >= 0 && br.pos < br.end {
			b := br.buf[br.pos]
			br.pos++
			return b, nil
		}
		if br.unread > 0 {
			if err := br.refillChunk(); err != nil {
				return 0, err
			}
			continue
		}
		ok, err := br.loadNextFrameHeader()
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, io.EOF
		}
	}
}

// ReadByte implements io.ByteReader so internal/modutf8 can decode
// strings uniformly in either mode.
func (br *BlockReader) ReadByte() (byte, error) {
	if br.mode == modeRaw {
		return br.src.ReadByte()
	}
	return br.blockByte()
}

// readN reads n bytes (n <= 8) honoring the active mode; a block-mode
// read that straddles a frame boundary falls back to a byte-by-byte
// slow path that can cross resets and successive frames.
func (br *BlockReader) readN(n int) ([]byte, error) {
	if br.mode == modeRaw {
		return br.src.ReadExact(n)
	}
	if br.pos >= 0 && br.end-br.pos >= n {
		out := make([]byte, n)
		copy(out, br.buf[br.pos:br.pos+n])
		br.pos += n
		return out, nil
	}
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		b, err := br.blockByte()
		if err != nil {
			if err == io.EOF {
				if i == 0 {
					return nil, io.EOF
				}
				return out[:i], io.ErrUnexpectedEOF
			}
			return out[:i], err
		}
		out[i] = b
	}
	return out, nil
}

func (br *BlockReader) ReadI8() (int8, error) {
	b, err := br.readN(1)
	if err != nil {
		return 0, err
	}
	return int8(b[0]), nil
}

func (br *BlockReader) ReadU8() (uint8, error) {
	b, err := br.readN(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (br *BlockReader) ReadI16() (int16, error) {
	b, err := br.readN(2)
	if err != nil {
		return 0, err
	}
	return int16(binary.BigEndian.Uint16(b)), nil
}

// ReadU16 also serves as the "char" primitive (spec §4.B).
func (br *BlockReader) ReadU16() (uint16, error) {
	b, err := br.readN(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (br *BlockReader) ReadI32() (int32, error) {
	b, err := br.readN(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b)), nil
}

func (br *BlockReader) ReadI64() (int64, error) {
	b, err := br.readN(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

func (br *BlockReader) ReadF32() (float32, error) {
	b, err := br.readN(4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.BigEndian.Uint32(b)), nil
}

func (br *BlockReader) ReadF64() (float64, error) {
	b, err := br.readN(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
}

// ReadModifiedUTF reads a modified-UTF-8 string of exactly n bytes.
func (br *BlockReader) ReadModifiedUTF(n int) (string, error) {
	s, err := modutf8.Decode(br, n)
	if err != nil {
		if err == modutf8.ErrMalformed {
			return s, newScanError(KindMalformedUtf, -1, "malformed modified-UTF-8 (%d bytes)", n)
		}
		return s, err
	}
	return s, nil
}
