// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package serialscan

import "sort"

// Analyzer is the DoS analyzer of spec §4.D: a cumulative array/
// interface-count ceiling fed incrementally by the grammar walker, and
// a bounded reference-graph traversal run once the walk completes.
//
// It holds no package-level state (spec §9, "mutable global
// counters"): every Analyzer is a fresh value per Scan call, and the
// reference-graph traversal's own counters live in a traversal value
// created per starting handle, passed by reference through recursive
// calls rather than mutated through Analyzer fields.
type Analyzer struct {
	maxArraySize   int64
	maxReferences  int64
	totalArraySize int64
	sink           Sink
}

// NewAnalyzer creates an Analyzer bound to opts' ceilings, emitting
// diagnostics to sink.
func NewAnalyzer(opts Options, sink Sink) *Analyzer {
	return &Analyzer{
		maxArraySize:  opts.ArraySizeMax,
		maxReferences: opts.ReferenceMax,
		sink:          sink,
	}
}

// TotalArraySize returns the running sum fed so far.
func (a *Analyzer) TotalArraySize() int64 { return a.totalArraySize }

// AddArrayLength folds one declared array length or proxy-interface
// count into totalArraySize. Lengths are sign-extended into 64 bits
// before summation so a lone negative length can't wrap the
// accumulator silently; negative lengths contribute zero but are
// otherwise allowed to pass through untouched (the grammar walker
// never multiplies a length by an element size).
func (a *Analyzer) AddArrayLength(n int32) error {
	v := int64(n)
	if v < 0 {
		v = 0
	}
	a.totalArraySize += v
	if a.totalArraySize > a.maxArraySize {
		return newScanError(KindArrayTooLarge, -1,
			"totalArraySize %d exceeds ceiling %d", a.totalArraySize, a.maxArraySize)
	}
	return nil
}

// traversal is the per-DFS-call context spec §9 asks for instead of
// mutable fields on Analyzer: refCount lives here, passed by pointer
// through the recursive descent, and nothing survives past one call
// to CheckReferenceGraph's inner loop.
type traversal struct {
	maxReferences int64
	count         int64
}

// visit descends through the inverse edges of node: for each source s
// in edges[node], count s, then recurse into edges[s] — unless s is
// handle zero, the sentinel that is counted but never recursed into.
//
// No visited set is kept. The refCount ceiling is the sole termination
// guard; this is intentional (spec §9), not a bug: it catches cycles
// and diamond-shaped sharing uniformly, at the cost of counting a
// diamond's shared descendant once per path that reaches it.
func (t *traversal) visit(node int64, edges map[int64]map[int64]struct{}) error {
	for source := range edges[node] {
		t.count++
		if t.count > t.maxReferences {
			return newScanError(KindReferenceTooComplex, -1,
				"refCount %d exceeds ceiling %d", t.count, t.maxReferences)
		}
		if source != 0 {
			if err := t.visit(source, edges); err != nil {
				return err
			}
		}
	}
	return nil
}

// CheckReferenceGraph runs one bounded DFS per handle with a non-empty
// source set, in ascending handle order for deterministic diagnostics,
// and fails with ReferenceTooComplex the first time any traversal's
// refCount exceeds the ceiling.
func (a *Analyzer) CheckReferenceGraph(edges map[int64]map[int64]struct{}) error {
	targets := make([]int64, 0, len(edges))
	for t, sources := range edges {
		if len(sources) > 0 {
			targets = append(targets, t)
		}
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i] < targets[j] })

	for _, t := range targets {
		tr := &traversal{maxReferences: a.maxReferences}
		err := tr.visit(t, edges)
		a.sink.Graph(t, tr.count)
		if err != nil {
			return err
		}
	}
	return nil
}
