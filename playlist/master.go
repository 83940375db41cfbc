package playlist

import (
	"slices"
	"strconv"
	"time"

	"github.com/anlaneg/hlsedit/parse"
	"github.com/anlaneg/hlsedit/structure"
)

// Master is an editable master playlist. Copy semantics match Media.
type Master struct {
	URL     string
	BuiltAt time.Time
	Size    int

	document[structure.Master]
}

// Variant describes one variant stream of a master playlist.
type Variant struct {
	URI       string
	Bandwidth int64
	IFrame    bool
	Group     structure.VariantGroup
}

func newMaster(url string, size int, builtAt time.Time, eng *structure.Engine[structure.Master]) *Master {
	return &Master{
		URL:      url,
		BuiltAt:  builtAt,
		Size:     size,
		document: document[structure.Master]{h: newHandle(eng)},
	}
}

func (m *Master) Copy() *Master {
	c := *m
	c.document = document[structure.Master]{h: m.h.share()}
	return &c
}

func (m *Master) VariantGroups() []structure.VariantGroup {
	return slices.Clone(m.h.engine().Structure().Groups)
}

// Variants reads the URI and bandwidth of every variant group.
func (m *Master) Variants() []Variant {
	var variants []Variant
	m.h.engine().View(func(tags []parse.Tag, s structure.Master) {
		for _, g := range s.Groups {
			inf := tags[g.Range.Start]
			v := Variant{Group: g, IFrame: inf.Kind == parse.IFrameStreamInf}
			if v.IFrame {
				v.URI, _ = inf.Attr("URI")
			} else {
				v.URI = tags[g.Range.End].Value
			}
			if bw, ok := inf.Attr("BANDWIDTH"); ok {
				v.Bandwidth, _ = strconv.ParseInt(bw, 10, 64)
			}
			variants = append(variants, v)
		}
	})
	return variants
}
