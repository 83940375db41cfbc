// Package playlist parses HLS playlists into editable Media and Master
// values. Each value keeps its tags and their structure in a
// structure.Engine shared between copies until one of them is edited.
package playlist

import (
	"strings"

	"github.com/anlaneg/hlsedit/parse"
)

type PlaylistType string

const (
	PlaylistTypeVOD   PlaylistType = "VOD"   // immutable
	PlaylistTypeEvent PlaylistType = "EVENT" // append-only
	PlaylistTypeLive  PlaylistType = "LIVE"  // sliding window
)

// Bounded reports whether the playlist never drops segments, so its
// timeline can be queried.
func (t PlaylistType) Bounded() bool {
	return t == PlaylistTypeVOD || t == PlaylistTypeEvent
}

// detectType reads EXT-X-PLAYLIST-TYPE and EXT-X-ENDLIST.
func detectType(tags []parse.Tag) PlaylistType {
	typ := PlaylistTypeLive
	for _, t := range tags {
		switch t.Kind {
		case parse.PlaylistType:
			switch PlaylistType(strings.ToUpper(strings.TrimSpace(t.Value))) {
			case PlaylistTypeVOD:
				return PlaylistTypeVOD
			case PlaylistTypeEvent:
				typ = PlaylistTypeEvent
			}
		case parse.EndList:
			return PlaylistTypeVOD
		}
	}
	return typ
}
