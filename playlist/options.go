package playlist

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/anlaneg/hlsedit/parse"
	"github.com/anlaneg/hlsedit/tool"
)

const (
	DefaultLiveUpdateMinBytes = 8 << 10
	DefaultLiveUpdateMaxAge   = 30 * time.Second
	DefaultParseTimeout       = 5 * time.Second
)

// Options configures a Parser.
type Options struct {
	// Vocabulary resolves tag names. Nil means the reserved tags only.
	Vocabulary *parse.Vocabulary

	// A live update is patched in only when the new payload is larger
	// than LiveUpdateMinBytes and the previous build is younger than
	// LiveUpdateMaxAge.
	LiveUpdateMinBytes int
	LiveUpdateMaxAge   time.Duration

	// ParseTimeout bounds the full reparse of a live update. Zero means
	// no bound.
	ParseTimeout time.Duration

	Log zerolog.Logger
	Now func() time.Time
}

func DefaultOptions() Options {
	return Options{
		LiveUpdateMinBytes: DefaultLiveUpdateMinBytes,
		LiveUpdateMaxAge:   DefaultLiveUpdateMaxAge,
		ParseTimeout:       DefaultParseTimeout,
		Log:                zerolog.Nop(),
		Now:                time.Now,
	}
}

// LoadOptions returns DefaultOptions overridden by HLS_LIVE_MIN_BYTES,
// HLS_LIVE_MAX_AGE and HLS_PARSE_TIMEOUT.
func LoadOptions() Options {
	opts := DefaultOptions()
	opts.LiveUpdateMinBytes = int(tool.GetEnvInt64("HLS_LIVE_MIN_BYTES", DefaultLiveUpdateMinBytes))
	opts.LiveUpdateMaxAge = tool.GetEnvDuration("HLS_LIVE_MAX_AGE", DefaultLiveUpdateMaxAge)
	opts.ParseTimeout = tool.GetEnvDuration("HLS_PARSE_TIMEOUT", DefaultParseTimeout)
	return opts
}
