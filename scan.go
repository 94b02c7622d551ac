// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package serialscan walks a Java serialized-object stream far enough
// to bound two denial-of-service amplification vectors — declared
// array/interface counts and reference-graph fan-in — without ever
// reconstructing the objects the stream describes.
package serialscan

import "io"

// Scan reads a full Java serialized-object stream from r and returns
// a Verdict. A corrupted stream, or one that trips a DoS ceiling,
// produces an Unsafe verdict paired with a non-nil error describing
// why. A stream that ends mid-record is not an error: the walk stops
// with a warning on sink and the reference-graph check still runs, so
// such a stream can be Safe with a nil error.
//
// Scan owns r for the duration of the call if it implements io.Closer;
// closing is always attempted via defer before returning, and any
// error from closing is discarded.
func Scan(r io.Reader, sink Sink, opts ...Option) (Verdict, error) {
	if sink == nil {
		sink = NopSink{}
	}
	o := resolveOptions(opts)

	src := NewSource(r, o)
	defer func() { _ = src.Close() }()

	block := NewBlockReader(src)
	analyzer := NewAnalyzer(o, sink)
	walker := NewWalker(src, block, analyzer, sink)

	if err := walker.Run(); err != nil {
		v := Verdict{Safe: false, Reason: kindOf(err)}
		sink.Verdict(v)
		return v, err
	}

	if err := analyzer.CheckReferenceGraph(walker.Edges()); err != nil {
		v := Verdict{Safe: false, Reason: kindOf(err)}
		sink.Verdict(v)
		return v, err
	}

	v := Verdict{Safe: true}
	sink.Verdict(v)
	return v, nil
}

// kindOf extracts the Kind carried by err, defaulting to
// KindCorruptedStream for any error this package didn't itself
// construct as a *ScanError (e.g. a raw io error from the Source).
func kindOf(err error) Kind {
	if se, ok := err.(*ScanError); ok {
		return se.Kind
	}
	return KindCorruptedStream
}
