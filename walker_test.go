// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package serialscan

import (
	"bytes"
	"testing"
)

func newTestWalker(data []byte, sink Sink) *Walker {
	src := NewSource(bytes.NewReader(data), Options{RetryDelay: -1})
	block := NewBlockReader(src)
	analyzer := NewAnalyzer(defaultOptions, sink)
	return NewWalker(src, block, analyzer, sink)
}

func TestWalkerRejectsBadHeader(t *testing.T) {
	data := []byte{0xDE, 0xAD, 0x00, 0x05}
	w := newTestWalker(data, NopSink{})
	err := w.Run()
	se, ok := err.(*ScanError)
	if !ok || se.Kind != KindCorruptedStream {
		t.Fatalf("err = %v, want KindCorruptedStream", err)
	}
}

func TestWalkerStringGetsOneHandleLabeled(t *testing.T) {
	sb := newStream()
	sb.tag(TcString).utf("hello")
	w := newTestWalker(sb.bytes(), NopSink{})
	if err := w.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	handles := w.Handles()
	if len(handles) != 1 {
		t.Fatalf("len(handles) = %d, want 1", len(handles))
	}
	if handles[0].Label != stringClassLabel || !handles[0].Has {
		t.Fatalf("handles[0] = %+v", handles[0])
	}
}

func TestWalkerUnknownTagResyncsOneByte(t *testing.T) {
	sb := newStream()
	sb.raw(0x7F) // not a recognized TC_* tag
	sb.tag(TcString).utf("ok")
	w := newTestWalker(sb.bytes(), NopSink{})
	if err := w.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	handles := w.Handles()
	if len(handles) != 1 || handles[0].Label != stringClassLabel {
		t.Fatalf("handles = %+v, want one String handle after resync", handles)
	}
}

func TestWalkerObjectAssignsClassDescAndObjectHandles(t *testing.T) {
	sb := newStream()
	sb.tag(TcObject)
	sb.minimalClassDesc("A")
	w := newTestWalker(sb.bytes(), NopSink{})
	if err := w.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	handles := w.Handles()
	// handle 0: the class descriptor "A"; handle 1: the object itself.
	if len(handles) != 2 {
		t.Fatalf("len(handles) = %d, want 2", len(handles))
	}
	if handles[0].Label != "A" || handles[1].Label != "A" {
		t.Fatalf("handles = %+v", handles)
	}
}

func TestWalkerBackReferenceOutOfRangeIsCorrupted(t *testing.T) {
	sb := newStream()
	sb.tag(TcReference).backReference(0)
	w := newTestWalker(sb.bytes(), NopSink{})
	err := w.Run()
	se, ok := err.(*ScanError)
	if !ok || se.Kind != KindCorruptedStream {
		t.Fatalf("err = %v, want KindCorruptedStream", err)
	}
}

func TestWalkerProxyClassDescFeedsArraySize(t *testing.T) {
	sb := newStream()
	sb.tag(TcProxyClassDesc)
	sb.i32(70000) // exceeds the default ArraySizeMax before any interface name is read
	w := newTestWalker(sb.bytes(), NopSink{})
	err := w.Run()
	se, ok := err.(*ScanError)
	if !ok || se.Kind != KindArrayTooLarge {
		t.Fatalf("err = %v, want KindArrayTooLarge", err)
	}
}
