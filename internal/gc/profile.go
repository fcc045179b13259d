// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gc

import (
	"io"

	"github.com/google/pprof/profile"

	"pygo/internal/object"
)

// WriteHeapProfile snapshots the tracked set, one pprof sample per Python
// type name with its live tracked-instance count as the sample value, and
// writes it to w as a gzip'd profile.proto (Profile.Write's own format).
// Not a Go runtime heap profile — a Python-object-graph one, for an
// embedder that wants to see which container types are accumulating
// instances without instrumenting the interpreter itself.
func (c *Collector) WriteHeapProfile(w io.Writer) error {
	c.mu.Lock()
	counts := map[string]int64{}
	for o := range c.tracked {
		counts[typeName(o)]++
	}
	c.mu.Unlock()

	p := &profile.Profile{
		SampleType: []*profile.ValueType{{Type: "objects", Unit: "count"}},
		PeriodType: &profile.ValueType{Type: "space", Unit: "count"},
		Period:     1,
	}

	fnID := uint64(1)
	for name, n := range counts {
		fn := &profile.Function{ID: fnID, Name: name, SystemName: name}
		loc := &profile.Location{ID: fnID, Line: []profile.Line{{Function: fn}}}
		p.Function = append(p.Function, fn)
		p.Location = append(p.Location, loc)
		p.Sample = append(p.Sample, &profile.Sample{
			Location: []*profile.Location{loc},
			Value:    []int64{n},
		})
		fnID++
	}

	if err := p.CheckValid(); err != nil {
		return err
	}
	return p.Write(w)
}

func typeName(o *object.Object) string {
	if o.Class == nil {
		return "?"
	}
	return o.Class.Name
}
