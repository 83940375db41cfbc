package parse

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrMissingTagData     = errors.New("m3u8: missing tag data")
	ErrMissingDuration    = errors.New("m3u8: missing or invalid segment duration")
	ErrMismatchedTagValue = errors.New("m3u8: tag value does not match tag kind")
)

// Handler receives lines from Tokenize in order. Returning an error stops
// tokenization; the error is reported with the line number.
type Handler interface {
	Comment(line string) error
	Location(line string) error
	NoValueTag(name string) error
	ValueTag(name, value string) error
	DurationTag(name, value string, d time.Duration) error
}

// Tokenize splits src into lines and reports each one to h. Blank lines are
// skipped. Every string passed to h is a substring of src.
func Tokenize(src string, h Handler) error {
	for n := 1; len(src) > 0; n++ {
		var line string
		if i := strings.IndexByte(src, '\n'); i >= 0 {
			line, src = src[:i], src[i+1:]
		} else {
			line, src = src, ""
		}
		if err := tokenizeLine(strings.TrimSpace(line), h); err != nil {
			return errors.Wrapf(err, "line %d", n)
		}
	}
	return nil
}

func tokenizeLine(line string, h Handler) error {
	switch {
	case line == "":
		return nil
	case strings.HasPrefix(line, "#EXT"):
	case strings.HasPrefix(line, "#"):
		return h.Comment(line)
	default:
		return h.Location(line)
	}

	i := strings.IndexByte(line, ':')
	if i < 0 {
		return h.NoValueTag(line[1:])
	}
	name, value := line[1:i], line[i+1:]
	if value == "" {
		return ErrMissingTagData
	}
	if name == ExtInf.Name() {
		d, err := parseDuration(value)
		if err != nil {
			return err
		}
		return h.DurationTag(name, value, d)
	}
	return h.ValueTag(name, value)
}

// parseDuration reads the first comma separated field of an EXTINF value.
// Zero and negative values (-1 in IPTV lists) are returned as is; IPTV
// attributes after the duration are ignored.
func parseDuration(value string) (time.Duration, error) {
	if i := strings.IndexByte(value, ','); i >= 0 {
		value = value[:i]
	}
	value = strings.TrimSpace(value)
	if i := strings.IndexAny(value, " \t"); i >= 0 {
		value = value[:i]
	}
	if value == "" {
		return 0, ErrMissingDuration
	}
	d, err := time.ParseDuration(value + "s")
	if err != nil {
		return 0, ErrMissingDuration
	}
	return d, nil
}
