package structure

import (
	"math/rand/v2"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/anlaneg/hlsedit/parse"
)

func TestEngineLazy(t *testing.T) {
	e := newMedia(t, keyed)
	if e.state.kind != stateRebuild {
		t.Fatalf("new engine state: have %v", e.state.kind)
	}
	if st := e.Stats(); st != (Stats{}) {
		t.Fatalf("computed before first read: %+v", st)
	}
	e.Structure()
	e.Structure()
	if st := e.Stats(); st != (Stats{Rebuilds: 1}) {
		t.Fatalf("stats: have %+v", st)
	}
	if e.state.kind != stateClean {
		t.Fatalf("state after read: have %v", e.state.kind)
	}
}

func TestInsertIntoGroupPatches(t *testing.T) {
	e := newMedia(t, keyed)
	prev := e.Structure()

	var calls []bool
	e.SetHook(func(shape string, rebuilt bool) {
		if shape != "media" {
			t.Errorf("hook shape: have %q", shape)
		}
		calls = append(calls, rebuilt)
	})

	// before s1.ts, inside group 1
	if err := e.Insert(mustTag(t, parse.ProgramDateTime, "2024-01-01T00:00:05Z"), 6); err != nil {
		t.Fatal(err)
	}
	if e.state.kind != statePending {
		t.Fatalf("state after insert: have %v", e.state.kind)
	}
	s := e.Structure()

	if !reflect.DeepEqual(calls, []bool{false}) {
		t.Fatalf("recompute calls: have %v, want one patch", calls)
	}
	if e.state.kind != stateClean {
		t.Fatalf("state after read: have %v", e.state.kind)
	}
	if !reflect.DeepEqual(s.Header, prev.Header) {
		t.Fatalf("header moved: %v", s.Header)
	}
	if s.Groups[0].Range != prev.Groups[0].Range {
		t.Fatalf("group 0 moved: %v", s.Groups[0].Range)
	}
	if want := (Range{5, 7}); s.Groups[1].Range != want {
		t.Fatalf("group 1: have %v, want %v", s.Groups[1].Range, want)
	}
	if want := (Range{8, 10}); s.Groups[2].Range != want {
		t.Fatalf("group 2: have %v, want %v", s.Groups[2].Range, want)
	}
	if want := (&TagGroup{Range{11, 11}}); !reflect.DeepEqual(s.Footer, want) {
		t.Fatalf("footer: have %v, want %v", s.Footer, want)
	}
	if want := rebuilt(e); !reflect.DeepEqual(s, want) {
		t.Fatalf("patch mismatch:\n\t\thave: %+v\n\t\twant: %+v", s, want)
	}
	if st := e.Stats(); st != (Stats{Rebuilds: 1, Patches: 1}) {
		t.Fatalf("stats: have %+v", st)
	}
}

func TestDeleteLocationRebuilds(t *testing.T) {
	e := newMedia(t, keyed)
	e.Structure()

	// s0.ts closes group 0
	if err := e.Delete(4); err != nil {
		t.Fatal(err)
	}
	if e.state.kind != stateRebuild {
		t.Fatalf("state after deleting location: have %v", e.state.kind)
	}
	if e.state.edits != nil {
		t.Fatalf("edits kept after structural delete: %v", e.state.edits)
	}
	s := e.Structure()
	if st := e.Stats(); st != (Stats{Rebuilds: 2}) {
		t.Fatalf("stats: have %+v", st)
	}
	if want := rebuilt(e); !reflect.DeepEqual(s, want) {
		t.Fatalf("mismatch:\n\t\thave: %+v\n\t\twant: %+v", s, want)
	}
}

func TestBoundaryCrossingDelete(t *testing.T) {
	src := `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-PROGRAM-DATE-TIME:2024-01-01T00:00:00Z
#EXTINF:4,
a.ts
#EXTINF:4,
b.ts
# trailer
#EXT-X-ENDLIST
`
	tests := []struct {
		name string
		r    Range
	}{
		// header tail and first group head, no structural tags
		{"header into group", Range{1, 2}},
		// last tag of the header alone
		{"header end", Range{1, 1}},
		// the whole footer
		{"footer", Range{7, 8}},
		// location plus following divider
		{"groups", Range{4, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newMedia(t, src)
			e.Structure()
			if err := e.DeleteRange(tt.r); err != nil {
				t.Fatal(err)
			}
			s := e.Structure()
			if st := e.Stats(); st.Rebuilds != 2 || st.Patches != 0 {
				t.Fatalf("stats: have %+v, want a second rebuild", st)
			}
			if want := rebuilt(e); !reflect.DeepEqual(s, want) {
				t.Fatalf("mismatch:\n\t\thave: %+v\n\t\twant: %+v", s, want)
			}
		})
	}
}

func TestPatchRejectsScopeChange(t *testing.T) {
	tests := []struct {
		name string
		tag  func(t testing.TB) parse.Tag
		at   int
	}{
		{"media tag into header", func(t testing.TB) parse.Tag { return mustTag(t, parse.ByteRange, "10@0") }, 1},
		{"playlist tag into group", func(t testing.TB) parse.Tag { return mustTag(t, parse.Version, "3") }, 6},
		{"comment at first group", func(t testing.TB) parse.Tag { return mustTag(t, parse.Comment, "# c") }, 3},
		{"media tag into footer", func(t testing.TB) parse.Tag { return mustTag(t, parse.Gap, "") }, 10},
		{"append", func(t testing.TB) parse.Tag { return mustTag(t, parse.Comment, "# c") }, 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newMedia(t, keyed)
			e.Structure()
			if err := e.Insert(tt.tag(t), tt.at); err != nil {
				t.Fatal(err)
			}
			s := e.Structure()
			if st := e.Stats(); st.Rebuilds != 2 {
				t.Fatalf("stats: have %+v, want a second rebuild", st)
			}
			if want := rebuilt(e); !reflect.DeepEqual(s, want) {
				t.Fatalf("mismatch:\n\t\thave: %+v\n\t\twant: %+v", s, want)
			}
		})
	}
}

var fillers = []struct {
	kind  parse.Descriptor
	value string
}{
	{parse.Comment, "# note"},
	{parse.Unknown, "EXT-X-CUE-OUT"},
	{parse.ProgramDateTime, "2024-01-01T00:00:00Z"},
	{parse.ByteRange, "100@0"},
	{parse.Gap, ""},
	{parse.Version, "3"},
	{parse.IndependentSegments, ""},
}

func filler(t testing.TB, r *rand.Rand) parse.Tag {
	f := fillers[r.IntN(len(fillers))]
	if f.kind == parse.Unknown {
		return parse.Tag{Kind: parse.Unknown, Name: f.value}
	}
	return mustTag(t, f.kind, f.value)
}

// randomEdit inserts or deletes non-structural tags at random positions.
func randomEdit(t testing.TB, r *rand.Rand, e *Engine[Media]) {
	n := e.Len()
	if n > 0 && r.IntN(3) == 0 {
		i := r.IntN(n)
		tag, _ := e.Tag(i)
		if (MediaDelegate{}).IsStructural(tag) {
			return
		}
		if err := e.Delete(i); err != nil {
			t.Fatal(err)
		}
		return
	}
	count := 1 + r.IntN(2)
	tags := make([]parse.Tag, count)
	for i := range tags {
		tags[i] = filler(t, r)
	}
	if err := e.InsertMany(tags, r.IntN(n+1)); err != nil {
		t.Fatal(err)
	}
}

func TestPatchRebuildEquivalence(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for _, src := range []string{keyed, mapped} {
		e := newMedia(t, src)
		for i := 0; i < 300; i++ {
			randomEdit(t, r, e)
			have := e.Structure()
			if want := rebuilt(e); !reflect.DeepEqual(have, want) {
				t.Fatalf("edit %d mismatch:\n\t\thave: %+v\n\t\twant: %+v", i, have, want)
			}
		}
		if e.Stats().Patches == 0 {
			t.Fatal("no edit was patched")
		}
	}
}

func TestQueuedPatches(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	e := newMedia(t, mapped)
	for round := 0; round < 50; round++ {
		for i := 0; i < 1+r.IntN(5); i++ {
			randomEdit(t, r, e)
		}
		have := e.Structure()
		if want := rebuilt(e); !reflect.DeepEqual(have, want) {
			t.Fatalf("round %d mismatch:\n\t\thave: %+v\n\t\twant: %+v", round, have, want)
		}
	}
}

func TestPatchAfterDegenerate(t *testing.T) {
	e := newMedia(t, "#EXTM3U\n#EXTINF:5,\n")
	if s := e.Structure(); !s.Degenerate() {
		t.Fatal("expected degenerate structure")
	}
	if err := e.Insert(mustTag(t, parse.Comment, "# c"), 0); err != nil {
		t.Fatal(err)
	}
	e.Structure()
	if st := e.Stats(); st.Rebuilds != 2 || st.Patches != 0 {
		t.Fatalf("stats: have %+v", st)
	}

	// closing the segment recovers a real structure
	if err := e.Insert(parse.NewLocation("a.ts"), 3); err != nil {
		t.Fatal(err)
	}
	if s := e.Structure(); s.Degenerate() || len(s.Groups) != 1 {
		t.Fatalf("have %+v", s)
	}
}

func TestTransform(t *testing.T) {
	e := newMedia(t, keyed)
	e.Structure()

	fail := errors.New("boom")
	before := e.Tags()
	err := e.Transform(func(tag parse.Tag) (parse.Tag, error) {
		if tag.Kind == parse.Location && tag.Value == "s2.ts" {
			return parse.Tag{}, fail
		}
		tag.Value = "x"
		return tag, nil
	})
	if errors.Cause(err) != fail {
		t.Fatalf("have %v, want %v", err, fail)
	}
	if !reflect.DeepEqual(e.Tags(), before) {
		t.Fatal("failed transform changed tags")
	}
	if e.state.kind != stateClean {
		t.Fatalf("failed transform changed state: %v", e.state.kind)
	}

	err = e.Transform(func(tag parse.Tag) (parse.Tag, error) {
		if tag.Kind == parse.Location {
			tag.Value = "cdn/" + tag.Value
		}
		return tag, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if e.state.kind != stateRebuild {
		t.Fatalf("state after transform: have %v", e.state.kind)
	}
	if tag, _ := e.Tag(4); tag.Value != "cdn/s0.ts" {
		t.Fatalf("have %q", tag.Value)
	}
}

func TestEngineBounds(t *testing.T) {
	e := newMedia(t, keyed)
	n := e.Len()
	comment := mustTag(t, parse.Comment, "# c")

	for _, err := range []error{
		e.Insert(comment, -1),
		e.Insert(comment, n+1),
		e.Delete(n),
		e.DeleteRange(Range{3, 2}),
		e.DeleteRange(Range{-1, 0}),
	} {
		if errors.Cause(err) != ErrIndexOutOfRange {
			t.Fatalf("have %v, want %v", err, ErrIndexOutOfRange)
		}
	}
	if err := e.Insert(parse.Tag{Value: "x"}, 0); errors.Cause(err) != ErrNilKind {
		t.Fatalf("have %v, want %v", err, ErrNilKind)
	}
	if e.Len() != n {
		t.Fatalf("rejected edits changed length: %d", e.Len())
	}
	if err := e.InsertMany(nil, 0); err != nil {
		t.Fatal(err)
	}
}

func TestClone(t *testing.T) {
	e := newMedia(t, keyed)
	e.Structure()
	c := e.Clone()

	if err := c.Delete(4); err != nil {
		t.Fatal(err)
	}
	if e.Len() == c.Len() {
		t.Fatal("clone shares tags")
	}
	if s := e.Structure(); len(s.Groups) != 3 {
		t.Fatalf("original changed: %+v", s)
	}
	if st := e.Stats(); st.Rebuilds != 1 {
		t.Fatalf("original recomputed: %+v", st)
	}
	if want := rebuilt(c); !reflect.DeepEqual(c.Structure(), want) {
		t.Fatal("clone structure mismatch")
	}
}

func TestView(t *testing.T) {
	e := newMedia(t, keyed)
	e.View(func(tags []parse.Tag, s Media) {
		last := s.Groups[len(s.Groups)-1]
		if tags[last.Range.End].Value != "s2.ts" {
			t.Fatalf("last location: have %q", tags[last.Range.End].Value)
		}
	})
}

func TestEngineConcurrent(t *testing.T) {
	e := newMedia(t, keyed)
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				if err := e.Insert(parse.Tag{Kind: parse.Comment, Value: "# c"}, 1); err != nil {
					t.Error(err)
					return
				}
				e.Structure()
			}
		}()
	}
	wg.Wait()

	if want := rebuilt(e); !reflect.DeepEqual(e.Structure(), want) {
		t.Fatal("structure mismatch after concurrent edits")
	}
	if e.Len() != len(decode(t, keyed))+200 {
		t.Fatalf("have %d tags", e.Len())
	}
}

func TestMasterStructure(t *testing.T) {
	src := `#EXTM3U
#EXT-X-STREAM-INF:BANDWIDTH=1280000
low.m3u8
#EXT-X-I-FRAME-STREAM-INF:BANDWIDTH=86000,URI="iframe.m3u8"
#EXT-X-STREAM-INF:BANDWIDTH=2560000
mid.m3u8
`
	e := NewEngine[Master](MasterDelegate{}, decode(t, src))
	want := []VariantGroup{
		{TagGroup{Range{1, 2}}},
		{TagGroup{Range{3, 3}}},
		{TagGroup{Range{4, 5}}},
	}
	if s := e.Structure(); !reflect.DeepEqual(s.Groups, want) {
		t.Fatalf("mismatch:\n\t\thave: %+v\n\t\twant: %+v", s.Groups, want)
	}

	// master edits always rebuild
	if err := e.Insert(parse.Tag{Kind: parse.Comment, Value: "# c"}, 1); err != nil {
		t.Fatal(err)
	}
	s := e.Structure()
	if st := e.Stats(); st != (Stats{Rebuilds: 2}) {
		t.Fatalf("stats: have %+v", st)
	}
	if s.Groups[0].Range != (Range{2, 3}) {
		t.Fatalf("group 0 after insert: have %v", s.Groups[0].Range)
	}
}

func TestTimeline(t *testing.T) {
	s := newMedia(t, keyed).Structure()
	seg := 5220 * time.Millisecond

	end, ok := s.EndTime()
	if !ok || end != 3*seg {
		t.Fatalf("end: have %v %v", end, ok)
	}
	if g, ok := s.GroupForTime(end); !ok || g != 2 {
		t.Fatalf("end time: have group %d %v, want 2", g, ok)
	}
	for _, tt := range []struct {
		at   time.Duration
		want int
		ok   bool
	}{
		{0, 0, true},
		{seg - 1, 0, true},
		{seg, 1, true},
		{2*seg - 1, 1, true},
		{end + 1, -1, false},
		{-1, -1, false},
	} {
		if g, ok := s.GroupForTime(tt.at); g != tt.want || ok != tt.ok {
			t.Fatalf("time %v: have %d %v, want %d %v", tt.at, g, ok, tt.want, tt.ok)
		}
	}

	if g, ok := s.GroupForTagIndex(6); !ok || g != 1 {
		t.Fatalf("tag 6: have %d %v", g, ok)
	}
	if _, ok := s.GroupForTagIndex(0); ok {
		t.Fatal("header tag mapped to a group")
	}
	if g, ok := s.GroupForMediaSequence(2); !ok || g != 2 {
		t.Fatalf("sequence 2: have %d %v", g, ok)
	}
	if _, ok := s.GroupForMediaSequence(3); ok {
		t.Fatal("sequence 3 mapped to a group")
	}
	if d, ok := s.Duration(); !ok || d != 3*seg {
		t.Fatalf("duration: have %v %v", d, ok)
	}
	if _, ok := (Media{}).StartTime(); ok {
		t.Fatal("empty structure has a start time")
	}
}
