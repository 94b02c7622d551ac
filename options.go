// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package serialscan

import "time"

// Options configures a Scan call: the two DoS ceilings and the byte
// source's non-blocking retry policy. Framing-state violations
// (BlockStateViolation) are always returned as errors, never panics,
// so there is no separate strictness flag to set.
type Options struct {
	// ArraySizeMax caps totalArraySize (spec §4.D). Zero falls back to
	// the package default, ArraySizeMax.
	ArraySizeMax int64

	// ReferenceMax caps a single traversal's refCount (spec §4.D). Zero
	// falls back to the package default, ReferenceMax.
	ReferenceMax int64

	// RetryDelay controls how the byte source handles ErrWouldBlock
	// from a non-blocking underlying io.Reader:
	//   - negative: nonblock, return ErrWouldBlock immediately
	//   - zero: yield (runtime.Gosched) and retry
	//   - positive: sleep for the duration and retry
	RetryDelay time.Duration
}

var defaultOptions = Options{
	ArraySizeMax: ArraySizeMax,
	ReferenceMax: ReferenceMax,
	RetryDelay:   -1, // default: nonblock
}

// Option configures a Scan call. See the With* constructors.
type Option func(*Options)

// WithArraySizeMax overrides the totalArraySize ceiling (default ArraySizeMax).
func WithArraySizeMax(max int64) Option {
	return func(o *Options) { o.ArraySizeMax = max }
}

// WithReferenceMax overrides the per-traversal refCount ceiling (default ReferenceMax).
func WithReferenceMax(max int64) Option {
	return func(o *Options) { o.ReferenceMax = max }
}

// WithRetryDelay sets the retry/wait policy used when the byte source's
// underlying reader returns ErrWouldBlock.
func WithRetryDelay(d time.Duration) Option {
	return func(o *Options) { o.RetryDelay = d }
}

// WithBlock enables cooperative blocking (yield-and-retry) on ErrWouldBlock.
func WithBlock() Option {
	return func(o *Options) { o.RetryDelay = 0 }
}

// WithNonblock forces non-blocking behavior (return ErrWouldBlock immediately).
// This is the default.
func WithNonblock() Option {
	return func(o *Options) { o.RetryDelay = -1 }
}

func resolveOptions(opts []Option) Options {
	o := defaultOptions
	for _, fn := range opts {
		fn(&o)
	}
	if o.ArraySizeMax <= 0 {
		o.ArraySizeMax = ArraySizeMax
	}
	if o.ReferenceMax <= 0 {
		o.ReferenceMax = ReferenceMax
	}
	return o
}
