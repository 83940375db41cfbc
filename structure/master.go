package structure

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/anlaneg/hlsedit/metrics"
	"github.com/anlaneg/hlsedit/parse"
)

// Master is the structure of a master playlist.
type Master struct {
	Groups []VariantGroup
}

// MasterDelegate structures master playlists. It never patches: variant
// lists are short enough that a rebuild is as cheap as tracking edits.
type MasterDelegate struct {
	Log zerolog.Logger
}

func (MasterDelegate) Shape() string { return "master" }

func (MasterDelegate) IsStructural(t parse.Tag) bool {
	if t.Kind == nil {
		return true
	}
	switch t.Kind {
	case parse.Location, parse.StreamInf, parse.IFrameStreamInf:
		return true
	}
	return t.Kind.Scope() == parse.ScopeSpanning
}

func (d MasterDelegate) Rebuild(tags []parse.Tag) Master {
	s, err := buildMaster(tags)
	if err != nil {
		d.Log.Debug().Err(err).Int("tags", len(tags)).Msg("master structure degenerate, reporting no variants")
		metrics.StructureDegenerate.WithLabelValues(d.Shape()).Inc()
		return Master{}
	}
	return s
}

func (d MasterDelegate) Patch(_ Edit, tags []parse.Tag, _ Master) (Master, bool) {
	return d.Rebuild(tags), true
}

// buildMaster groups each EXT-X-STREAM-INF with the location line that
// follows it. EXT-X-I-FRAME-STREAM-INF tags carry their URI as an
// attribute and form a group on their own.
func buildMaster(tags []parse.Tag) (s Master, err error) {
	defer func() {
		if r := recover(); r != nil {
			s, err = Master{}, errors.Wrapf(errRebuildPanic, "%v", r)
		}
	}()
	pending := -1
	for i, t := range tags {
		switch t.Kind {
		case nil:
			return Master{}, errors.Wrapf(errNilTagKind, "tag %d", i)
		case parse.StreamInf:
			pending = i
		case parse.IFrameStreamInf:
			s.Groups = append(s.Groups, VariantGroup{TagGroup{Range{i, i}}})
		case parse.Location:
			if pending >= 0 {
				s.Groups = append(s.Groups, VariantGroup{TagGroup{Range{pending, i}}})
				pending = -1
			}
		}
	}
	return s, nil
}
