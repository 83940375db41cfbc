package structure

import (
	"slices"
	"sync"

	"github.com/pkg/errors"

	"github.com/anlaneg/hlsedit/metrics"
	"github.com/anlaneg/hlsedit/parse"
)

var (
	ErrIndexOutOfRange = errors.New("tag index out of range")
	ErrNilKind         = errors.New("tag has no kind")
)

// Stats counts how the engine brought its structure up to date.
type Stats struct {
	Rebuilds int
	Patches  int
}

// OnRecompute observes every rebuild or patch. It runs with the engine
// locked and must not call back into the engine.
type OnRecompute func(shape string, rebuilt bool)

// Engine owns a tag sequence and the structure derived from it. The
// structure is computed lazily on read: edits that only touch
// non-structural tags are queued and patched in, anything else forces a
// rebuild. All methods are safe for concurrent use.
type Engine[S any] struct {
	mu       sync.Mutex
	delegate Delegate[S]
	tags     []parse.Tag
	state    state
	cached   S
	stats    Stats
	hook     OnRecompute
}

// NewEngine returns an engine over a copy of tags. Nothing is computed
// until the structure is first read.
func NewEngine[S any](d Delegate[S], tags []parse.Tag) *Engine[S] {
	return &Engine[S]{
		delegate: d,
		tags:     slices.Clone(tags),
	}
}

func (e *Engine[S]) Insert(t parse.Tag, at int) error {
	return e.InsertMany([]parse.Tag{t}, at)
}

// InsertMany inserts tags so that the first of them ends up at index at.
// at may equal Len to append.
func (e *Engine[S]) InsertMany(tags []parse.Tag, at int) error {
	for i, t := range tags {
		if t.Kind == nil {
			return errors.Wrapf(ErrNilKind, "inserted tag %d", i)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if at < 0 || at > len(e.tags) {
		return errors.Wrapf(ErrIndexOutOfRange, "insert at %d of %d", at, len(e.tags))
	}
	if len(tags) == 0 {
		return nil
	}
	inserted := slices.Clone(tags)
	e.state.record(Edit{Delta: len(inserted), At: at, Inserted: inserted}, e.touchesStructure(inserted))
	e.tags = slices.Insert(e.tags, at, inserted...)
	return nil
}

func (e *Engine[S]) Delete(at int) error {
	return e.DeleteRange(Range{at, at})
}

// DeleteRange removes the tags in the inclusive range r.
func (e *Engine[S]) DeleteRange(r Range) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if r.Start < 0 || r.End < r.Start || r.End >= len(e.tags) {
		return errors.Wrapf(ErrIndexOutOfRange, "delete %d...%d of %d", r.Start, r.End, len(e.tags))
	}
	removed := e.tags[r.Start : r.End+1]
	e.state.record(Edit{Delta: -r.Len(), At: r.Start}, e.touchesStructure(removed))
	e.tags = slices.Delete(e.tags, r.Start, r.End+1)
	return nil
}

// Transform replaces every tag with fn's result. If fn fails for any tag
// the sequence is left unchanged. A successful transform always forces a
// rebuild.
func (e *Engine[S]) Transform(fn func(parse.Tag) (parse.Tag, error)) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	next := make([]parse.Tag, len(e.tags))
	for i, t := range e.tags {
		n, err := fn(t)
		if err != nil {
			return errors.Wrapf(err, "transform tag %d", i)
		}
		if n.Kind == nil {
			return errors.Wrapf(ErrNilKind, "transform tag %d", i)
		}
		next[i] = n
	}
	e.tags = next
	e.state.invalidate()
	return nil
}

func (e *Engine[S]) touchesStructure(tags []parse.Tag) bool {
	return slices.ContainsFunc(tags, e.delegate.IsStructural)
}

// Tags returns a copy of the tag sequence.
func (e *Engine[S]) Tags() []parse.Tag {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.tags)
}

func (e *Engine[S]) Tag(i int) (parse.Tag, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i < 0 || i >= len(e.tags) {
		return parse.Tag{}, false
	}
	return e.tags[i], true
}

func (e *Engine[S]) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.tags)
}

// Structure brings the structure up to date and returns it.
func (e *Engine[S]) Structure() S {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.structure()
}

// View calls fn with the tags and their up-to-date structure while the
// engine is locked, so both come from the same edit. fn must not retain
// or modify tags.
func (e *Engine[S]) View(fn func(tags []parse.Tag, s S)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.tags, e.structure())
}

func (e *Engine[S]) structure() S {
	switch e.state.kind {
	case stateRebuild:
		e.cached = e.delegate.Rebuild(e.tags)
		e.observe(true)
	case statePending:
		for _, edit := range e.state.edits {
			next, rebuilt := e.delegate.Patch(edit, e.tags, e.cached)
			e.cached = next
			e.observe(rebuilt)
			if rebuilt {
				// the rebuild already reflects every queued edit
				break
			}
		}
	}
	e.state.clean()
	return e.cached
}

func (e *Engine[S]) observe(rebuilt bool) {
	shape := e.delegate.Shape()
	if rebuilt {
		e.stats.Rebuilds++
		metrics.StructureRebuilds.WithLabelValues(shape).Inc()
	} else {
		e.stats.Patches++
		metrics.StructurePatches.WithLabelValues(shape).Inc()
	}
	if e.hook != nil {
		e.hook(shape, rebuilt)
	}
}

func (e *Engine[S]) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

func (e *Engine[S]) SetHook(h OnRecompute) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hook = h
}

// Clone returns an independent engine with the same tags, pending edits
// and cached structure.
func (e *Engine[S]) Clone() *Engine[S] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return &Engine[S]{
		delegate: e.delegate,
		tags:     slices.Clone(e.tags),
		state:    e.state.clone(),
		cached:   e.cached,
		stats:    e.stats,
		hook:     e.hook,
	}
}
