// Package tracer walks a mounted signal tree before it is accepted,
// building a resource graph and classifying the mount as recursive or
// not. It exists as a separate package from signal so that signal has no
// knowledge of how its trace output gets interpreted.
//
// The reference design's tracer builds an explicit node per signal so it
// can detect cycles formed purely by how signals are wired together,
// independent of any shared resource. archtone's Signal tree has no way
// to alias two subtrees together except through a shared slot, delay
// line, or media resource — ordinary combinators (Scale, AndThen, Map,
// Zip2, Split2, Chain) always compose a strict tree. That means the only
// way an archtone mount can ever form a cycle is via a resource read and
// written by parts of the same mount, which is exactly the feedback
// pattern the reference design itself treats as a cut edge rather than a
// cycle. archtone's tracer therefore skips modelling per-signal nodes
// and classifies a mount as recursive exactly when some delay line (or
// media, though media is never written) it touches is both read and
// written — a resolved Open Question recorded in DESIGN.md.
package tracer

import (
	"fmt"

	"github.com/archtone/archtone/archerr"
	"github.com/archtone/archtone/archid"
	"github.com/archtone/archtone/signal"
	"github.com/archtone/archtone/slot"
	"github.com/archtone/archtone/traced"
)

// ResourceUse is every mode a single resource was touched in across one
// trace.
type ResourceUse struct {
	ID       archid.ID
	Kind     traced.Kind
	Resource any
	Read     bool
	Written  bool
}

// Graph is the result of tracing a mount's root signal.
type Graph struct {
	// Resources holds every distinct slot, delay line, and media
	// resource the signal tree touched, keyed by id.
	Resources map[archid.ID]*ResourceUse

	// Recursive is true when some delay line in the tree is both read
	// and written, meaning the mount must be advanced one sample at a
	// time through the affected region rather than in larger blocks.
	Recursive bool
}

// Trace walks root via TraceSlots, validates the resources it touches
// against slots (the slot map owning this mount), and returns the
// resulting Graph. It returns an error wrapping archerr.Validation if
// root reuses a media resource or touches a slot that slots does not
// own.
func Trace(root signal.Signal, slots *slot.Map) (*Graph, error) {
	resources := make(map[archid.ID]*ResourceUse)
	var mediaSeen []archid.ID
	var firstErr error

	note := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
	}

	root.TraceSlots(func(u traced.Use) {
		n, ok := resources[u.ID]
		if !ok {
			n = &ResourceUse{ID: u.ID, Kind: u.Kind, Resource: u.Resource}
			resources[u.ID] = n
		}

		switch u.Mode {
		case traced.ModeRead:
			n.Read = true
		case traced.ModeWrite:
			n.Written = true
		}

		switch u.Kind {
		case traced.KindSlot:
			if slots != nil && !slots.Contains(u.ID) {
				note(fmt.Errorf("tracer: slot %d used by a signal outside the mount that owns it: %w", u.ID, archerr.Validation))
			}
		case traced.KindMedia:
			for _, seen := range mediaSeen {
				if seen == u.ID {
					note(fmt.Errorf("tracer: media %d used twice in one mount: %w", u.ID, archerr.Validation))
					return
				}
			}
			mediaSeen = append(mediaSeen, u.ID)
		}
	})

	if firstErr != nil {
		return nil, firstErr
	}

	recursive := false
	for _, n := range resources {
		if n.Kind == traced.KindDelayLine && n.Read && n.Written {
			recursive = true
		}
	}

	return &Graph{Resources: resources, Recursive: recursive}, nil
}

// Slots returns every slot-kind resource the trace touched.
func (g *Graph) Slots() []*ResourceUse { return g.filterKind(traced.KindSlot) }

// DelayLines returns every delay-line-kind resource the trace touched.
func (g *Graph) DelayLines() []*ResourceUse { return g.filterKind(traced.KindDelayLine) }

// Media returns every media-kind resource the trace touched.
func (g *Graph) Media() []*ResourceUse { return g.filterKind(traced.KindMedia) }

func (g *Graph) filterKind(k traced.Kind) []*ResourceUse {
	var out []*ResourceUse
	for _, n := range g.Resources {
		if n.Kind == k {
			out = append(out, n)
		}
	}
	return out
}
