package playlist

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/anlaneg/hlsedit/parse"
	"github.com/anlaneg/hlsedit/structure"
)

// shared is an engine and the number of handles pointing at it.
type shared[S any] struct {
	refs atomic.Int32
	eng  *structure.Engine[S]
}

// handle gives value semantics to a shared engine: reads go to the shared
// engine, the first edit through a handle that is not the sole owner
// clones the engine first. mu serializes edits and copies made through
// one handle, so an edit never lands in an engine another handle shares.
type handle[S any] struct {
	mu sync.Mutex
	s  *shared[S]
}

func newHandle[S any](eng *structure.Engine[S]) *handle[S] {
	s := &shared[S]{eng: eng}
	s.refs.Store(1)
	return &handle[S]{s: s}
}

func (h *handle[S]) share() *handle[S] {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.s.refs.Add(1)
	return &handle[S]{s: h.s}
}

func (h *handle[S]) engine() *structure.Engine[S] {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.s.eng
}

// edit runs fn on an engine owned by h alone.
func (h *handle[S]) edit(fn func(eng *structure.Engine[S]) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return fn(h.mutable())
}

// mutable must be called with mu held.
func (h *handle[S]) mutable() *structure.Engine[S] {
	if h.s.refs.Load() == 1 {
		return h.s.eng
	}
	eng := h.s.eng.Clone()
	h.s.refs.Add(-1)
	h.s = &shared[S]{eng: eng}
	h.s.refs.Store(1)
	return eng
}

func (h *handle[S]) unique() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.s.refs.Load() == 1
}

// document is the tag store and edit surface common to Media and Master.
type document[S any] struct {
	h *handle[S]
}

func (d document[S]) Insert(t parse.Tag, at int) error {
	return d.h.edit(func(eng *structure.Engine[S]) error {
		return eng.Insert(t, at)
	})
}

func (d document[S]) InsertMany(tags []parse.Tag, at int) error {
	return d.h.edit(func(eng *structure.Engine[S]) error {
		return eng.InsertMany(tags, at)
	})
}

func (d document[S]) Delete(at int) error {
	return d.h.edit(func(eng *structure.Engine[S]) error {
		return eng.Delete(at)
	})
}

func (d document[S]) DeleteRange(r structure.Range) error {
	return d.h.edit(func(eng *structure.Engine[S]) error {
		return eng.DeleteRange(r)
	})
}

// Transform rewrites every tag. On error no tag is changed.
func (d document[S]) Transform(fn func(parse.Tag) (parse.Tag, error)) error {
	return d.h.edit(func(eng *structure.Engine[S]) error {
		return eng.Transform(fn)
	})
}

// Tags returns a copy of the tags.
func (d document[S]) Tags() []parse.Tag {
	return d.h.engine().Tags()
}

func (d document[S]) Len() int {
	return d.h.engine().Len()
}

func (d document[S]) Stats() structure.Stats {
	return d.h.engine().Stats()
}

// Encode writes the playlist text to w.
func (d document[S]) Encode(w io.Writer) error {
	return parse.Write(w, d.h.engine().Tags())
}
