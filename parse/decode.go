package parse

import (
	"time"
)

// Decode tokenizes data into tags, resolving tag kinds with vocab. The
// returned tags share one string copy of data.
func Decode(data []byte, vocab *Vocabulary) ([]Tag, error) {
	c := &collector{vocab: vocab, collecting: true}
	if err := Tokenize(string(data), c); err != nil {
		return nil, err
	}
	return c.tags, nil
}

// Tail is what DecodeAfter found in data.
type Tail struct {
	// Tags follow the marker and own their text.
	Tags []Tag

	// Found reports whether the marker was seen.
	Found bool

	// First is the kind of the first line, nil for empty data.
	First Descriptor

	// Master reports whether the whole of data reads as a master playlist.
	Master bool
}

// DecodeAfter tokenizes data, discarding everything up to and including
// the first location line equal to marker.
func DecodeAfter(data []byte, vocab *Vocabulary, marker string) (Tail, error) {
	c := &collector{vocab: vocab, marker: marker, owned: true}
	if err := Tokenize(string(data), c); err != nil {
		return Tail{}, err
	}
	return Tail{Tags: c.tags, Found: c.collecting, First: c.first, Master: c.master}, nil
}

// IsMaster reports whether tags look like a master playlist. The first
// variant or segment tag decides; a playlist with neither is an empty
// media playlist.
func IsMaster(tags []Tag) bool {
	for _, t := range tags {
		if master, ok := classify(t.Kind); ok {
			return master
		}
	}
	return false
}

func classify(kind Descriptor) (master, decided bool) {
	switch kind {
	case Media, StreamInf, IFrameStreamInf:
		return true, true
	case ExtInf:
		return false, true
	}
	return false, false
}

type collector struct {
	vocab *Vocabulary
	tags  []Tag

	// collecting is false until marker has been seen
	collecting bool
	marker     string
	owned      bool

	first   Descriptor
	master  bool
	decided bool
}

// seen tracks the kind of every line, collected or not.
func (c *collector) seen(kind Descriptor) {
	if c.first == nil {
		c.first = kind
	}
	if !c.decided {
		c.master, c.decided = classify(kind)
	}
}

func (c *collector) add(t Tag) error {
	if !c.collecting {
		return nil
	}
	if c.owned {
		t = t.Materialize()
	}
	c.tags = append(c.tags, t)
	return nil
}

func (c *collector) Comment(line string) error {
	c.seen(Comment)
	return c.add(Tag{Kind: Comment, Value: line})
}

func (c *collector) Location(line string) error {
	c.seen(Location)
	if !c.collecting {
		c.collecting = line == c.marker
		return nil
	}
	return c.add(Tag{Kind: Location, Value: line})
}

func (c *collector) NoValueTag(name string) error {
	kind := c.vocab.Resolve(name)
	c.seen(kind)
	if t := kind.Type(); t != NoValue && t != Special {
		return ErrMissingTagData
	}
	return c.add(Tag{Kind: kind, Name: name})
}

func (c *collector) ValueTag(name, value string) error {
	kind := c.vocab.Resolve(name)
	c.seen(kind)
	t := Tag{Kind: kind, Name: name, Value: value}
	switch kind.Type() {
	case NoValue:
		return ErrMismatchedTagValue
	case KeyValue:
		if !c.collecting {
			return nil
		}
		t.attrs = parseAttrs(value)
	}
	return c.add(t)
}

func (c *collector) DurationTag(name, value string, d time.Duration) error {
	kind := c.vocab.Resolve(name)
	c.seen(kind)
	if kind.Type() == NoValue {
		return ErrMismatchedTagValue
	}
	return c.add(Tag{Kind: kind, Name: name, Value: value, Duration: d})
}
