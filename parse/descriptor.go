package parse

import "fmt"

// Scope says which part of a playlist a tag kind applies to.
type Scope int

const (
	ScopeUnknown Scope = iota
	ScopeWholePlaylist
	ScopeMediaSegment
	// ScopeSpanning tags apply to every following segment until redefined.
	ScopeSpanning
)

func (s Scope) String() string {
	switch s {
	case ScopeWholePlaylist:
		return "whole-playlist"
	case ScopeMediaSegment:
		return "media-segment"
	case ScopeSpanning:
		return "spanning"
	case ScopeUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("scope(%d)", int(s))
	}
}

// StructureType is the shape of a tag's value.
type StructureType int

const (
	NoValue StructureType = iota
	SingleValue
	Array
	KeyValue
	Special
)

// Descriptor classifies a tag kind. Implementations must be comparable,
// two descriptors describe the same kind if and only if they are ==.
type Descriptor interface {
	Name() string
	Scope() Scope
	Type() StructureType
}

type descriptor struct {
	name  string
	scope Scope
	typ   StructureType
}

func (d descriptor) Name() string        { return d.name }
func (d descriptor) Scope() Scope        { return d.scope }
func (d descriptor) Type() StructureType { return d.typ }
func (d descriptor) String() string      { return d.name }

// NewDescriptor returns a descriptor for a custom tag kind. Register it
// with a Vocabulary through a DescriptorSet.
func NewDescriptor(name string, scope Scope, typ StructureType) Descriptor {
	return custom{descriptor{name: name, scope: scope, typ: typ}}
}

// custom keeps user descriptors distinct from a builtin of the same name
type custom struct{ descriptor }

// Reserved playlist tags
var (
	ExtM3U                = builtin("EXTM3U", ScopeWholePlaylist, NoValue)
	Version               = builtin("EXT-X-VERSION", ScopeWholePlaylist, SingleValue)
	TargetDuration        = builtin("EXT-X-TARGETDURATION", ScopeWholePlaylist, SingleValue)
	MediaSequence         = builtin("EXT-X-MEDIA-SEQUENCE", ScopeWholePlaylist, SingleValue)
	DiscontinuitySequence = builtin("EXT-X-DISCONTINUITY-SEQUENCE", ScopeWholePlaylist, SingleValue)
	EndList               = builtin("EXT-X-ENDLIST", ScopeWholePlaylist, NoValue)
	PlaylistType          = builtin("EXT-X-PLAYLIST-TYPE", ScopeWholePlaylist, SingleValue)
	IFramesOnly           = builtin("EXT-X-I-FRAMES-ONLY", ScopeWholePlaylist, NoValue)
	IndependentSegments   = builtin("EXT-X-INDEPENDENT-SEGMENTS", ScopeWholePlaylist, NoValue)
	Start                 = builtin("EXT-X-START", ScopeWholePlaylist, KeyValue)
	ServerControl         = builtin("EXT-X-SERVER-CONTROL", ScopeWholePlaylist, KeyValue)
	PartInf               = builtin("EXT-X-PART-INF", ScopeWholePlaylist, KeyValue)
	Skip                  = builtin("EXT-X-SKIP", ScopeWholePlaylist, KeyValue)
	Media                 = builtin("EXT-X-MEDIA", ScopeWholePlaylist, KeyValue)
	StreamInf             = builtin("EXT-X-STREAM-INF", ScopeWholePlaylist, KeyValue)
	IFrameStreamInf       = builtin("EXT-X-I-FRAME-STREAM-INF", ScopeWholePlaylist, KeyValue)
	SessionData           = builtin("EXT-X-SESSION-DATA", ScopeWholePlaylist, KeyValue)
	SessionKey            = builtin("EXT-X-SESSION-KEY", ScopeWholePlaylist, KeyValue)
	ContentSteering       = builtin("EXT-X-CONTENT-STEERING", ScopeWholePlaylist, KeyValue)
	Define                = builtin("EXT-X-DEFINE", ScopeWholePlaylist, KeyValue)
	PreloadHint           = builtin("EXT-X-PRELOAD-HINT", ScopeWholePlaylist, KeyValue)
	RenditionReport       = builtin("EXT-X-RENDITION-REPORT", ScopeWholePlaylist, KeyValue)

	ExtInf          = builtin("EXTINF", ScopeMediaSegment, Array)
	ByteRange       = builtin("EXT-X-BYTERANGE", ScopeMediaSegment, SingleValue)
	Discontinuity   = builtin("EXT-X-DISCONTINUITY", ScopeMediaSegment, NoValue)
	ProgramDateTime = builtin("EXT-X-PROGRAM-DATE-TIME", ScopeMediaSegment, SingleValue)
	DateRange       = builtin("EXT-X-DATERANGE", ScopeMediaSegment, KeyValue)
	Gap             = builtin("EXT-X-GAP", ScopeMediaSegment, NoValue)
	Part            = builtin("EXT-X-PART", ScopeMediaSegment, KeyValue)

	Key     = builtin("EXT-X-KEY", ScopeSpanning, KeyValue)
	Map     = builtin("EXT-X-MAP", ScopeSpanning, KeyValue)
	Bitrate = builtin("EXT-X-BITRATE", ScopeSpanning, SingleValue)
)

// Pseudo tags. Their names are not valid tag names so they never
// resolve from text.
var (
	// Location is a URI line. It closes a segment or variant group.
	Location = pseudo("<location>", ScopeMediaSegment)
	Comment  = pseudo("<comment>", ScopeUnknown)
	Unknown  = pseudo("<unknown>", ScopeUnknown)
)

var builtins = map[string]Descriptor{}

func builtin(name string, scope Scope, typ StructureType) Descriptor {
	d := descriptor{name: name, scope: scope, typ: typ}
	builtins[name] = d
	return d
}

func pseudo(name string, scope Scope) Descriptor {
	return descriptor{name: name, scope: scope, typ: Special}
}
