// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package serialscan

import (
	"errors"
	"fmt"

	"code.hybscloud.com/iox"
)

// Kind classifies a scan error. See spec §7 for the full policy table.
type Kind uint8

const (
	// KindCorruptedStream: magic, version, handle range, or tag-code violation.
	KindCorruptedStream Kind = iota + 1
	// KindMalformedUtf: bad modified-UTF-8 continuation byte or length overflow.
	KindMalformedUtf
	// KindUnexpectedEof: EOF mid-record. Warning-level; the walk still runs D.
	KindUnexpectedEof
	// KindInvalidClassFlags: conflicting serializable/externalizable, or enum-with-fields.
	KindInvalidClassFlags
	// KindArrayTooLarge: totalArraySize exceeded its ceiling. Drives Unsafe.
	KindArrayTooLarge
	// KindReferenceTooComplex: a traversal's refCount exceeded its ceiling. Drives Unsafe.
	KindReferenceTooComplex
	// KindBlockStateViolation: a mode switch was attempted with unconsumed block bytes.
	KindBlockStateViolation
)

func (k Kind) String() string {
	switch k {
	case KindCorruptedStream:
		return "CorruptedStream"
	case KindMalformedUtf:
		return "MalformedUtf"
	case KindUnexpectedEof:
		return "UnexpectedEof"
	case KindInvalidClassFlags:
		return "InvalidClassFlags"
	case KindArrayTooLarge:
		return "ArrayTooLarge"
	case KindReferenceTooComplex:
		return "ReferenceTooComplex"
	case KindBlockStateViolation:
		return "BlockStateViolation"
	default:
		return "Unknown"
	}
}

// Sentinel errors, one per Kind, so callers can errors.Is a specific
// failure mode without inspecting a *ScanError.
var (
	ErrCorruptedStream     = errors.New("serialscan: corrupted stream")
	ErrMalformedUtf        = errors.New("serialscan: malformed modified-UTF-8")
	ErrUnexpectedEof       = errors.New("serialscan: unexpected EOF")
	ErrInvalidClassFlags   = errors.New("serialscan: invalid class descriptor flags")
	ErrArrayTooLarge       = errors.New("serialscan: array size ceiling exceeded")
	ErrReferenceTooComplex = errors.New("serialscan: reference graph ceiling exceeded")
	ErrBlockStateViolation = errors.New("serialscan: block framing state violation")

	// ErrWouldBlock and ErrMore are re-exported non-blocking control-flow
	// signals, aliased from code.hybscloud.com/iox the same way
	// framer.ErrWouldBlock/framer.ErrMore alias them. A Source built over
	// a non-blocking io.Reader may surface these from ReadByte/ReadExact.
	ErrWouldBlock = iox.ErrWouldBlock
	ErrMore       = iox.ErrMore
)

func sentinelFor(k Kind) error {
	switch k {
	case KindCorruptedStream:
		return ErrCorruptedStream
	case KindMalformedUtf:
		return ErrMalformedUtf
	case KindUnexpectedEof:
		return ErrUnexpectedEof
	case KindInvalidClassFlags:
		return ErrInvalidClassFlags
	case KindArrayTooLarge:
		return ErrArrayTooLarge
	case KindReferenceTooComplex:
		return ErrReferenceTooComplex
	case KindBlockStateViolation:
		return ErrBlockStateViolation
	default:
		return errors.New("serialscan: unknown error")
	}
}

// ScanError carries a Kind plus a human detail and a byte offset.
// Offset is -1 when no offset is known, and Error then omits it; every
// ScanError this package constructs carries -1.
type ScanError struct {
	Kind   Kind
	Detail string
	Offset int64
}

func (e *ScanError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("serialscan: %s at offset %d: %s", e.Kind, e.Offset, e.Detail)
	}
	return fmt.Sprintf("serialscan: %s: %s", e.Kind, e.Detail)
}

// Unwrap lets errors.Is(err, ErrCorruptedStream) etc. work against a *ScanError.
func (e *ScanError) Unwrap() error { return sentinelFor(e.Kind) }

func newScanError(k Kind, offset int64, format string, args ...interface{}) *ScanError {
	return &ScanError{Kind: k, Detail: fmt.Sprintf(format, args...), Offset: offset}
}
