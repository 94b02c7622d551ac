// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package serialscan

import (
	"testing"
	"time"
)

func TestResolveOptionsDefaults(t *testing.T) {
	o := resolveOptions(nil)
	if o.ArraySizeMax != ArraySizeMax || o.ReferenceMax != ReferenceMax {
		t.Fatalf("o = %+v, want package defaults", o)
	}
	if o.RetryDelay != -1 {
		t.Fatalf("RetryDelay = %v, want -1 (nonblock default)", o.RetryDelay)
	}
}

func TestWithArraySizeMaxOverrides(t *testing.T) {
	o := resolveOptions([]Option{WithArraySizeMax(10)})
	if o.ArraySizeMax != 10 {
		t.Fatalf("ArraySizeMax = %d, want 10", o.ArraySizeMax)
	}
}

func TestNonPositiveCeilingsFallBackToDefaults(t *testing.T) {
	o := resolveOptions([]Option{WithArraySizeMax(0), WithReferenceMax(-1)})
	if o.ArraySizeMax != ArraySizeMax || o.ReferenceMax != ReferenceMax {
		t.Fatalf("o = %+v, want defaults restored for non-positive overrides", o)
	}
}

func TestWithBlockAndWithNonblock(t *testing.T) {
	o := resolveOptions([]Option{WithBlock()})
	if o.RetryDelay != 0 {
		t.Fatalf("RetryDelay = %v, want 0", o.RetryDelay)
	}
	o = resolveOptions([]Option{WithNonblock()})
	if o.RetryDelay != -1 {
		t.Fatalf("RetryDelay = %v, want -1", o.RetryDelay)
	}
}

func TestWithRetryDelayCustomDuration(t *testing.T) {
	o := resolveOptions([]Option{WithRetryDelay(5 * time.Millisecond)})
	if o.RetryDelay != 5*time.Millisecond {
		t.Fatalf("RetryDelay = %v, want 5ms", o.RetryDelay)
	}
}
