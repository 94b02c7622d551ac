// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package serialscan

import (
	"encoding/binary"
	"io"
)

// handleEntry is one slot of the handle table: the class label
// assigned to that handle, and whether it has been filled in. The
// walker labels every entry as it assigns it (Has is always true; a
// TC_OBJECT whose class descriptor is TC_NULL gets the empty label),
// so parseReference's lazy fill only applies to an entry with Has
// false.
type handleEntry struct {
	Label string
	Has   bool
}

// Walker is the grammar walker of spec §4.C: a single left-to-right
// pass over the tagged byte stream that builds a dense handle table
// and a reference-edge graph, feeding declared array/interface counts
// to an Analyzer as it goes.
//
// Grounded on the teacher pack's cespare-hprofviz hprofbin.go
// readHeapDumpSegment/readRecord shape: a tagged-record dispatch loop
// over a handle-indexed stream, adapted from its switch-per-tag
// structure into Go-native methods per tag.
type Walker struct {
	src   *Source
	block *BlockReader
	sink  Sink

	analyzer *Analyzer

	handles       []handleEntry
	edges         map[int64]map[int64]struct{}
	parentStack   []int64
	currentHandle int64 // nowObjectNumber; -1 until the first handle is assigned
}

// NewWalker builds a Walker reading from src through block, reporting
// to sink, and feeding array/interface counts to analyzer.
func NewWalker(src *Source, block *BlockReader, analyzer *Analyzer, sink Sink) *Walker {
	return &Walker{
		src: src, block: block, analyzer: analyzer, sink: sink,
		currentHandle: -1,
	}
}

// Handles returns the final handle table. Valid after Run returns.
func (w *Walker) Handles() []handleEntry { return w.handles }

// Edges returns the final reference-edge graph: target handle to the
// set of handles that reference it. Valid after Run returns.
func (w *Walker) Edges() map[int64]map[int64]struct{} { return w.edges }

func (w *Walker) peekTag() (byte, error)    { return w.src.PeekByte() }
func (w *Walker) consumeTag() (byte, error) { return w.src.ReadByte() }

// assignHandle appends a new dense handle table entry and returns its
// index, which is also nowObjectNumber's new value.
func (w *Walker) assignHandle(label string, has bool) int64 {
	w.currentHandle++
	w.handles = append(w.handles, handleEntry{Label: label, Has: has})
	return w.currentHandle
}

func (w *Walker) addEdge(target, source int64) {
	if w.edges == nil {
		w.edges = make(map[int64]map[int64]struct{})
	}
	set := w.edges[target]
	if set == nil {
		set = make(map[int64]struct{})
		w.edges[target] = set
	}
	set[source] = struct{}{}
}

// readBackReference reads a 4-byte wire handle and resolves it to a
// dense table index, failing with CorruptedStream if it falls outside
// [0, len(handles)).
func (w *Walker) readBackReference() (int64, error) {
	raw, err := w.block.ReadI32()
	if err != nil {
		return 0, err
	}
	off := int64(raw) - int64(BaseWireHandle)
	if off < 0 || off >= int64(len(w.handles)) {
		return 0, newScanError(KindCorruptedStream, -1,
			"back-reference handle %d out of range (table size %d)", raw, len(w.handles))
	}
	return off, nil
}

// readStringValue reads a TC_STRING body (u16 length + modified-UTF-8)
// and assigns it a handle labeled java.lang.String.
func (w *Walker) readStringValue() (string, error) {
	n, err := w.block.ReadU16()
	if err != nil {
		return "", err
	}
	s, err := w.block.ReadModifiedUTF(int(n))
	if err != nil {
		return "", err
	}
	w.assignHandle(stringClassLabel, true)
	return s, nil
}

// readLongStringValue reads a TC_LONGSTRING body: an 8-byte length
// (spec §9 resolves the Open Question in favor of reading the full
// declared length rather than truncating it) and assigns a handle the
// same way readStringValue does.
func (w *Walker) readLongStringValue() (string, error) {
	n, err := w.block.ReadI64()
	if err != nil {
		return "", err
	}
	if n < 0 || n > (1<<31-1) {
		return "", newScanError(KindCorruptedStream, -1, "invalid TC_LONGSTRING length %d", n)
	}
	s, err := w.block.ReadModifiedUTF(int(n))
	if err != nil {
		return "", err
	}
	w.assignHandle(stringClassLabel, true)
	return s, nil
}

func (w *Walker) readHeader() error {
	magic, err := w.block.ReadU16()
	if err != nil {
		return err
	}
	version, err := w.block.ReadU16()
	if err != nil {
		return err
	}
	if magic != StreamMagic || version != StreamVersion {
		return newScanError(KindCorruptedStream, -1,
			"bad stream header %#04x/%#04x", magic, version)
	}
	return nil
}

// parseArray reads a TC_ARRAY record: its element class descriptor
// and declared i32 length, feeding the length to the analyzer. Per
// spec §4.C's dispatch table, an array does not get its own handle
// and is not linked into the reference-edge graph: it exists here
// purely as an array-size amplification vector, not as a shared,
// back-referenceable value.
func (w *Walker) parseArray() error {
	if _, err := w.consumeTag(); err != nil {
		return err
	}
	if _, err := w.parseClassDescValue(); err != nil {
		return err
	}
	length, err := w.block.ReadI32()
	if err != nil {
		return err
	}
	return w.analyzer.AddArrayLength(length)
}

// parseObject reads a TC_OBJECT record: its class descriptor, a new
// handle, an edge to the enclosing parent frame if one is open, and
// then opens its own frame (spec §9's explicit object-frame redesign)
// so any following custom-data annotation objects record edges to it
// until the matching TC_ENDBLOCKDATA closes it.
func (w *Walker) parseObject() error {
	if _, err := w.consumeTag(); err != nil {
		return err
	}
	cd, err := w.parseClassDescValue()
	if err != nil {
		return err
	}
	name := ""
	if cd != nil {
		name = cd.Name
	}
	h := w.assignHandle(name, true)
	if len(w.parentStack) > 0 {
		w.addEdge(h, w.parentStack[len(w.parentStack)-1])
	}
	w.parentStack = append(w.parentStack, h)
	return nil
}

// parseReference reads a TC_REFERENCE back-reference, recording an
// edge from the referenced handle to whichever handle is currently
// "live" (nowObjectNumber), and lazily labeling the current handle
// from the referenced one if it has no label yet.
func (w *Walker) parseReference() error {
	if _, err := w.consumeTag(); err != nil {
		return err
	}
	h, err := w.readBackReference()
	if err != nil {
		return err
	}
	if w.currentHandle >= 0 {
		w.addEdge(h, w.currentHandle)
		cur := &w.handles[w.currentHandle]
		if !cur.Has {
			cur.Label = w.handles[h].Label
			cur.Has = w.handles[h].Has
		}
	}
	return nil
}

// skipTopLevelBlockData handles a TC_BLOCKDATA / TC_BLOCKDATALONG tag
// seen by the main dispatch loop (as opposed to one seen while
// skipping a class descriptor's own annotation): it is read and
// discarded as a flat run of raw bytes, since under the explicit
// object-frame design the enclosing TC_OBJECT already opened the
// frame that any sibling annotation objects will link to.
func (w *Walker) skipTopLevelBlockData(tag TypeCode) error {
	if err := w.block.ExitBlockMode(); err != nil {
		return err
	}
	if _, err := w.consumeTag(); err != nil {
		return err
	}
	var length int64
	if tag == TcBlockData {
		lb, err := w.src.ReadExact(1)
		if err != nil {
			return err
		}
		length = int64(lb[0])
	} else {
		lb, err := w.src.ReadExact(4)
		if err != nil {
			return err
		}
		n := int32(binary.BigEndian.Uint32(lb))
		if n < 0 {
			return newScanError(KindCorruptedStream, -1, "negative TC_BLOCKDATALONG length %d", n)
		}
		length = int64(n)
	}
	return w.src.Skip(int(length))
}

// dispatchOne handles exactly one top-level tag, per spec §4.C's
// dispatch table.
func (w *Walker) dispatchOne(tag TypeCode) error {
	switch tag {
	case TcNull:
		_, err := w.consumeTag()
		return err
	case TcArray:
		return w.parseArray()
	case TcClassDesc, TcProxyClassDesc:
		_, err := w.parseClassDescValue()
		return err
	case TcString:
		if _, err := w.consumeTag(); err != nil {
			return err
		}
		_, err := w.readStringValue()
		return err
	case TcLongString:
		if _, err := w.consumeTag(); err != nil {
			return err
		}
		_, err := w.readLongStringValue()
		return err
	case TcObject:
		return w.parseObject()
	case TcReference:
		return w.parseReference()
	case TcBlockData, TcBlockDataLong:
		return w.skipTopLevelBlockData(tag)
	case TcEndBlockData:
		if _, err := w.consumeTag(); err != nil {
			return err
		}
		if len(w.parentStack) > 0 {
			w.parentStack = w.parentStack[:len(w.parentStack)-1]
		}
		return nil
	default:
		// Graceful resync: an unrecognized tag consumes one byte and the
		// loop tries again at the next position.
		_, err := w.consumeTag()
		return err
	}
}

// isEOFLike reports whether err is an EOF-class error reached mid-record.
func isEOFLike(err error) bool {
	return err == io.EOF || err == io.ErrUnexpectedEOF
}

// Run checks the stream header, then dispatches top-level tags until
// a clean end of stream. An EOF reached between two top-level tags
// ends the walk silently (a well-formed stream simply ran out);
// one reached mid-record is reported as a warning and still ends the
// walk cleanly, so the caller's reference-graph check still runs over
// whatever was collected (spec §7, KindUnexpectedEof).
func (w *Walker) Run() error {
	if err := w.readHeader(); err != nil {
		return err
	}
	for {
		tag, err := w.src.PeekByte()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if err := w.dispatchOne(TypeCode(tag)); err != nil {
			if isEOFLike(err) {
				w.sink.Warn("unexpected EOF mid-record")
				return nil
			}
			return err
		}
	}
}
