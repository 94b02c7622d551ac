// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package serialscan

import (
	"bytes"
	"reflect"
	"testing"
)

func TestScanHeaderOnlyStreamIsSafe(t *testing.T) {
	sb := newStream()
	sink := &CollectingSink{}
	v, err := Scan(bytes.NewReader(sb.bytes()), sink)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if !v.Safe {
		t.Fatalf("verdict = %v, want Safe", v)
	}
	if len(sink.Verdicts) != 1 || !sink.Verdicts[0].Safe {
		t.Fatalf("sink.Verdicts = %+v", sink.Verdicts)
	}
}

func TestScanOversizedArrayIsUnsafe(t *testing.T) {
	sb := newStream()
	sb.tag(TcArray)
	sb.minimalClassDesc("[I")
	sb.i32(65537) // one over the default ArraySizeMax of 65536
	v, err := Scan(bytes.NewReader(sb.bytes()), NopSink{})
	if err == nil {
		t.Fatalf("Scan: want error")
	}
	if v.Safe || v.Reason != KindArrayTooLarge {
		t.Fatalf("verdict = %v, want Unsafe{ArrayTooLarge}", v)
	}
}

func TestScanBadMagicIsCorruptedStream(t *testing.T) {
	data := []byte{0xDE, 0xAD, 0x00, 0x05}
	v, err := Scan(bytes.NewReader(data), NopSink{})
	if err == nil {
		t.Fatalf("Scan: want error")
	}
	if v.Safe || v.Reason != KindCorruptedStream {
		t.Fatalf("verdict = %v, want Unsafe{CorruptedStream}", v)
	}
}

func TestScanOutOfRangeReferenceIsCorruptedStream(t *testing.T) {
	sb := newStream()
	sb.tag(TcReference).backReference(0)
	v, err := Scan(bytes.NewReader(sb.bytes()), NopSink{})
	if err == nil {
		t.Fatalf("Scan: want error")
	}
	if v.Safe || v.Reason != KindCorruptedStream {
		t.Fatalf("verdict = %v, want Unsafe{CorruptedStream}", v)
	}
}

// TestScanSelfReferentialCycleIsReferenceTooComplex builds two objects,
// A and B, that reference each other (A's frame is B's parent; a
// TC_REFERENCE from inside B points back at A), and checks that the
// unbounded DFS over that 2-cycle is caught by a low ReferenceMax
// ceiling rather than recursing forever. A leading dummy string
// occupies handle 0 so the cycle itself never touches the handle-zero
// sentinel.
func TestScanSelfReferentialCycleIsReferenceTooComplex(t *testing.T) {
	sb := newStream()
	sb.tag(TcString).utf("x") // handle 0, uninvolved in the cycle

	sb.tag(TcObject)
	sb.minimalClassDesc("A") // handle 1: classdesc A; handle 2: object A

	sb.tag(TcObject)
	sb.minimalClassDesc("B") // handle 3: classdesc B; handle 4: object B (parent edge 4->2)

	sb.tag(TcReference).backReference(2) // edge 2->4, while current handle is 4

	v, err := Scan(bytes.NewReader(sb.bytes()), NopSink{}, WithReferenceMax(5))
	if err == nil {
		t.Fatalf("Scan: want error")
	}
	if v.Safe || v.Reason != KindReferenceTooComplex {
		t.Fatalf("verdict = %v, want Unsafe{ReferenceTooComplex}", v)
	}
}

func TestScanProxyExcessiveInterfaceCountIsUnsafe(t *testing.T) {
	sb := newStream()
	sb.tag(TcProxyClassDesc)
	sb.i32(70000)
	v, err := Scan(bytes.NewReader(sb.bytes()), NopSink{})
	if err == nil {
		t.Fatalf("Scan: want error")
	}
	if v.Safe || v.Reason != KindArrayTooLarge {
		t.Fatalf("verdict = %v, want Unsafe{ArrayTooLarge}", v)
	}
}

// scriptedReaderSplitAtEveryByte builds a scriptedReader that delivers
// data one byte per Read call, the finest possible chunking, so every
// byte boundary in the stream is exercised as a Read boundary, with an
// ErrWouldBlock-injecting step spliced in every few bytes.
func scriptedReaderSplitAtEveryByte(data []byte) *scriptedReader {
	var steps []scriptedStep
	for i, b := range data {
		if i%7 == 3 {
			steps = append(steps, scriptedStep{nil, ErrWouldBlock})
		}
		steps = append(steps, scriptedStep{[]byte{b}, nil})
	}
	return &scriptedReader{steps: steps}
}

// TestScanIsDeterministicAcrossChunkingAndWouldBlock exercises spec.md
// §8's chunking-determinism invariant and the matching promise in
// SPEC_FULL.md: a well-formed multi-record stream fed through Scan one
// byte at a time, with ErrWouldBlock injected between reads and
// WithBlock's yield-and-retry policy absorbing them, must produce the
// same verdict and the same CollectingSink event sequence as feeding
// the whole stream in one read.
func TestScanIsDeterministicAcrossChunkingAndWouldBlock(t *testing.T) {
	sb := newStream()
	sb.tag(TcString).utf("hello") // handle 0: java.lang.String
	sb.tag(TcObject)              // handle 2: object Foo (handle 1: classdesc Foo)
	sb.minimalClassDesc("Foo")
	sb.tag(TcReference).backReference(0) // edge 0 -> 2
	sb.tag(TcEndBlockData)
	data := sb.bytes()

	baselineSink := &CollectingSink{}
	baselineVerdict, err := Scan(bytes.NewReader(data), baselineSink)
	if err != nil {
		t.Fatalf("baseline Scan: %v", err)
	}

	splitSink := &CollectingSink{}
	splitVerdict, err := Scan(scriptedReaderSplitAtEveryByte(data), splitSink, WithBlock())
	if err != nil {
		t.Fatalf("split Scan: %v", err)
	}

	if splitVerdict != baselineVerdict {
		t.Fatalf("verdict = %v, want %v (chunking must not change the verdict)", splitVerdict, baselineVerdict)
	}
	if !reflect.DeepEqual(splitSink, baselineSink) {
		t.Fatalf("event sequence diverged across chunking:\nbaseline=%+v\nsplit=%+v", baselineSink, splitSink)
	}
}

func TestScanTruncatedStreamIsToleratedAsUnexpectedEOF(t *testing.T) {
	sb := newStream()
	sb.tag(TcString) // length prefix and body never arrive
	sink := &CollectingSink{}
	v, err := Scan(bytes.NewReader(sb.bytes()), sink)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if !v.Safe {
		t.Fatalf("verdict = %v, want Safe (walk tolerates mid-record EOF)", v)
	}
	if len(sink.Warns) != 1 {
		t.Fatalf("sink.Warns = %v, want one warning", sink.Warns)
	}
}
