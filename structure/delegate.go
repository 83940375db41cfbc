package structure

import "github.com/anlaneg/hlsedit/parse"

// Edit is one recorded change to the tag sequence. A positive Delta
// inserted Delta tags at At; a negative Delta removed -Delta tags starting
// at At.
type Edit struct {
	Delta int
	At    int

	// Inserted holds the inserted tags when Delta > 0.
	Inserted []parse.Tag
}

// Delegate supplies the structure algorithms for one playlist shape.
type Delegate[S any] interface {
	// Shape names the playlist shape, for logs and metrics
	Shape() string

	// IsStructural reports whether adding, removing or moving t can change
	// group boundaries, timing, sequence numbers or spans.
	IsStructural(t parse.Tag) bool

	// Rebuild computes the structure of tags from scratch. It never fails;
	// a malformed sequence yields a degenerate structure.
	Rebuild(tags []parse.Tag) S

	// Patch applies edit to prev. tags is the current sequence, which may
	// already include later edits. Patch returns rebuilt=true when it had
	// to fall back to Rebuild, in which case the result reflects tags in
	// full and any further queued edits must be skipped.
	Patch(edit Edit, tags []parse.Tag, prev S) (s S, rebuilt bool)
}
