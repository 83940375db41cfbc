package parse

import (
	"strings"
	"time"
)

// Tag is one playlist line. Tags produced by Decode share their text with
// the decoded buffer; call Materialize before keeping a tag longer than
// the buffer is wanted.
//
// Tags are values. SetAttr and RemoveAttr work on the receiver's own copy
// of the attribute list and mark the tag Dirty; a dirty tag is written from
// its attributes instead of its raw Value.
type Tag struct {
	Kind Descriptor

	// Name is the tag name without the leading '#'. It is empty for
	// location and comment lines.
	Name string

	// Value is the text after the first ':' for tags and the whole line
	// for location and comment lines.
	Value string

	// Duration is set on duration-bearing tags (EXTINF)
	Duration time.Duration

	Dirty bool

	attrs []Attr
}

// NewTag builds a tag of the given kind for programmatic insertion.
// Value is parsed the way the tokenizer would parse it.
func NewTag(kind Descriptor, value string) (Tag, error) {
	if kind == Location || kind == Comment {
		return Tag{Kind: kind, Value: value}, nil
	}
	t := Tag{Kind: kind, Name: kind.Name(), Value: value}
	switch {
	case kind.Type() == NoValue && value != "":
		return Tag{}, ErrMismatchedTagValue
	case kind.Type() != NoValue && kind.Type() != Special && value == "":
		return Tag{}, ErrMissingTagData
	}
	if kind == ExtInf {
		d, err := parseDuration(value)
		if err != nil {
			return Tag{}, err
		}
		t.Duration = d
	}
	if kind.Type() == KeyValue {
		t.attrs = parseAttrs(value)
	}
	return t, nil
}

// NewLocation returns a location line tag.
func NewLocation(uri string) Tag {
	return Tag{Kind: Location, Value: uri}
}

// Equal reports whether t and u have the same kind, name and raw value.
func (t Tag) Equal(u Tag) bool {
	return t.Kind == u.Kind && t.Name == u.Name && t.Value == u.Value
}

// Attrs returns a copy of the tag's attributes in their original order
func (t Tag) Attrs() []Attr {
	return append([]Attr(nil), t.attrs...)
}

// Attr returns the value of the named attribute.
func (t Tag) Attr(key string) (string, bool) {
	for _, a := range t.attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr sets or appends an attribute
func (t *Tag) SetAttr(key, value string, quote bool) {
	attrs := t.Attrs()
	for i := range attrs {
		if attrs[i].Key == key {
			attrs[i].Value, attrs[i].Quote = value, quote
			t.attrs, t.Dirty = attrs, true
			return
		}
	}
	t.attrs, t.Dirty = append(attrs, Attr{Key: key, Value: value, Quote: quote}), true
}

// RemoveAttr removes an attribute. It reports whether the attribute was present.
func (t *Tag) RemoveAttr(key string) bool {
	for i, a := range t.attrs {
		if a.Key != key {
			continue
		}
		attrs := make([]Attr, 0, len(t.attrs)-1)
		attrs = append(attrs, t.attrs[:i]...)
		attrs = append(attrs, t.attrs[i+1:]...)
		t.attrs, t.Dirty = attrs, true
		return true
	}
	return false
}

// Materialize returns a copy of t that owns all of its text.
func (t Tag) Materialize() Tag {
	t.Name = strings.Clone(t.Name)
	t.Value = strings.Clone(t.Value)
	if t.attrs != nil {
		attrs := make([]Attr, len(t.attrs))
		for i, a := range t.attrs {
			attrs[i] = Attr{Key: strings.Clone(a.Key), Value: strings.Clone(a.Value), Quote: a.Quote}
		}
		t.attrs = attrs
	}
	return t
}

// String returns the tag as a playlist line, without the line terminator.
func (t Tag) String() string {
	if t.Kind == Location || t.Kind == Comment {
		return t.Value
	}
	value := t.Value
	if t.Dirty && (t.attrs != nil || t.Kind != nil && t.Kind.Type() == KeyValue) {
		value = formatAttrs(t.attrs)
	}
	if value == "" {
		return "#" + t.Name
	}
	return "#" + t.Name + ":" + value
}
