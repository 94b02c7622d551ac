// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package serialscan

// Verdict is the final outcome of a scan (spec §6).
type Verdict struct {
	// Safe is true when the walk hit no fatal error and neither DoS
	// check tripped.
	Safe bool
	// Reason is set when Safe is false.
	Reason Kind
}

func (v Verdict) String() string {
	if v.Safe {
		return "Safe"
	}
	return "Unsafe{" + v.Reason.String() + "}"
}

// Sink is the diagnostic event surface the grammar walker and DoS
// analyzer emit to (spec §4.E). Implementations decide routing: a
// CollectingSink for tests, a colorized terminal sink for the CLI.
type Sink interface {
	// Info reports a non-fatal, informational event.
	Info(message string)
	// Warn reports a tolerated problem (e.g. UnexpectedEof).
	Warn(message string)
	// Descriptor reports a parsed class descriptor.
	Descriptor(name string, serialVersionUID int64, numFields int)
	// Graph reports one reference-graph traversal's result.
	Graph(startHandle int64, refCount int64)
	// Verdict reports the final scan outcome. Called at most once.
	Verdict(v Verdict)
}

// NopSink discards every event.
type NopSink struct{}

func (NopSink) Info(string)                   {}
func (NopSink) Warn(string)                   {}
func (NopSink) Descriptor(string, int64, int) {}
func (NopSink) Graph(int64, int64)            {}
func (NopSink) Verdict(Verdict)               {}

// DescriptorEvent is a single Sink.Descriptor call, captured verbatim
// by CollectingSink.
type DescriptorEvent struct {
	Name             string
	SerialVersionUID int64
	NumFields        int
}

// GraphEvent is a single Sink.Graph call, captured verbatim by
// CollectingSink.
type GraphEvent struct {
	StartHandle int64
	RefCount    int64
}

// CollectingSink records every event in call order, for tests that
// assert on the event stream (spec §8). This is the production-code
// analogue of the teacher's hand-rolled test fakes (scriptedReader,
// wouldBlockWriter): no mocking framework, a plain slice-backed struct.
type CollectingSink struct {
	Infos       []string
	Warns       []string
	Descriptors []DescriptorEvent
	Graphs      []GraphEvent
	Verdicts    []Verdict
}

func (s *CollectingSink) Info(message string) { s.Infos = append(s.Infos, message) }
func (s *CollectingSink) Warn(message string) { s.Warns = append(s.Warns, message) }

func (s *CollectingSink) Descriptor(name string, serialVersionUID int64, numFields int) {
	s.Descriptors = append(s.Descriptors, DescriptorEvent{name, serialVersionUID, numFields})
}

func (s *CollectingSink) Graph(startHandle int64, refCount int64) {
	s.Graphs = append(s.Graphs, GraphEvent{startHandle, refCount})
}

func (s *CollectingSink) Verdict(v Verdict) { s.Verdicts = append(s.Verdicts, v) }
