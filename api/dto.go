package api

import (
	"time"

	"github.com/anlaneg/hlsedit/parse"
	"github.com/anlaneg/hlsedit/playlist"
	"github.com/anlaneg/hlsedit/structure"
)

type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func toRange(r structure.Range) Range {
	return Range{Start: r.Start, End: r.End}
}

type Segment struct {
	Tags          Range   `json:"tags"`
	MediaSequence int     `json:"mediaSequence"`
	Start         float64 `json:"start"`
	Duration      float64 `json:"duration"`
	Discontinuity bool    `json:"discontinuity,omitempty"`
	URI           string  `json:"uri"`
}

type Span struct {
	Tag      string `json:"tag"`
	TagIndex int    `json:"tagIndex"`
	Segments Range  `json:"segments"`
}

type Variant struct {
	Tags      Range  `json:"tags"`
	URI       string `json:"uri"`
	Bandwidth int64  `json:"bandwidth"`
	IFrame    bool   `json:"iframe,omitempty"`
}

type Stats struct {
	Rebuilds int `json:"rebuilds"`
	Patches  int `json:"patches"`
}

// Structure is the JSON view of a parsed playlist.
type Structure struct {
	URL        string    `json:"url"`
	Kind       string    `json:"kind"`
	Type       string    `json:"type,omitempty"`
	BuiltAt    time.Time `json:"builtAt"`
	Size       int       `json:"size"`
	Tags       int       `json:"tags"`
	Degenerate bool      `json:"degenerate,omitempty"`
	Header     *Range    `json:"header,omitempty"`
	Footer     *Range    `json:"footer,omitempty"`
	Segments   []Segment `json:"segments,omitempty"`
	Spans      []Span    `json:"spans,omitempty"`
	Variants   []Variant `json:"variants,omitempty"`
	Duration   float64   `json:"duration,omitempty"`
	Stats      Stats     `json:"stats"`
}

func newStructure(r *playlist.Result) Structure {
	if r.Master != nil {
		return masterStructure(r.Master)
	}
	return mediaStructure(r.Media)
}

func mediaStructure(m *playlist.Media) Structure {
	out := Structure{
		URL:     m.URL,
		Kind:    "media",
		Type:    string(m.Type()),
		BuiltAt: m.BuiltAt,
		Size:    m.Size,
	}
	m.View(func(tags []parse.Tag, s structure.Media) {
		out.Tags = len(tags)
		out.Degenerate = s.Degenerate()
		if s.Header != nil {
			h := toRange(s.Header.Range)
			out.Header = &h
		}
		if s.Footer != nil {
			f := toRange(s.Footer.Range)
			out.Footer = &f
		}
		for _, g := range s.Groups {
			out.Segments = append(out.Segments, Segment{
				Tags:          toRange(g.Range),
				MediaSequence: g.MediaSequence,
				Start:         g.Time.Start.Seconds(),
				Duration:      g.Time.Duration.Seconds(),
				Discontinuity: g.Discontinuity,
				URI:           tags[g.Range.End].Value,
			})
		}
		for _, sp := range s.Spans {
			out.Spans = append(out.Spans, Span{
				Tag:      sp.Tag.Name,
				TagIndex: sp.TagIndex,
				Segments: toRange(sp.Range),
			})
		}
	})
	if d, ok := m.Duration(); ok {
		out.Duration = d.Seconds()
	}
	st := m.Stats()
	out.Stats = Stats{Rebuilds: st.Rebuilds, Patches: st.Patches}
	return out
}

func masterStructure(m *playlist.Master) Structure {
	st := m.Stats()
	out := Structure{
		URL:     m.URL,
		Kind:    "master",
		BuiltAt: m.BuiltAt,
		Size:    m.Size,
		Tags:    m.Len(),
		Stats:   Stats{Rebuilds: st.Rebuilds, Patches: st.Patches},
	}
	for _, v := range m.Variants() {
		out.Variants = append(out.Variants, Variant{
			Tags:      toRange(v.Group.Range),
			URI:       v.URI,
			Bandwidth: v.Bandwidth,
			IFrame:    v.IFrame,
		})
	}
	return out
}
