package playlist

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/anlaneg/hlsedit/metrics"
	"github.com/anlaneg/hlsedit/parse"
)

// Update builds the new version of a growing playlist from data. When
// prev is a recent event playlist from the same url and data is large
// enough, only the tags after prev's last segment are decoded and appended
// to a copy of prev. Otherwise, or if the tail cannot be found, data is
// parsed in full; errors are those of ParseMedia.
func (p *Parser) Update(ctx context.Context, prev *Media, url string, data []byte) (*Media, error) {
	r, err := p.Refresh(ctx, prev, url, data)
	if err != nil {
		return nil, err
	}
	return mediaOf(url, r)
}

// Refresh is Update for data whose kind is not known yet. Data that is
// not a media playlist never takes the append path, so a master playlist
// is parsed once, in full.
func (p *Parser) Refresh(ctx context.Context, prev *Media, url string, data []byte) (*Result, error) {
	log := p.opts.Log.With().Str("url", url).Logger()
	if next, ok := p.appendTail(log, prev, url, data); ok {
		metrics.LiveUpdates.WithLabelValues("patched").Inc()
		return &Result{Media: next}, nil
	}
	metrics.LiveUpdates.WithLabelValues("reparsed").Inc()
	return p.reparse(ctx, log, url, data)
}

func (p *Parser) appendTail(log zerolog.Logger, prev *Media, url string, data []byte) (*Media, bool) {
	if prev == nil {
		return nil, false
	}
	now := p.opts.Now()
	switch typ := prev.Type(); {
	case typ != PlaylistTypeEvent:
		log.Debug().Str("type", string(typ)).Msg("live update: not an event playlist")
		return nil, false
	case prev.URL != url:
		log.Debug().Str("prev", prev.URL).Msg("live update: url changed")
		return nil, false
	case len(data) <= p.opts.LiveUpdateMinBytes:
		log.Debug().Int("size", len(data)).Msg("live update: payload below threshold")
		return nil, false
	case now.Sub(prev.BuiltAt) >= p.opts.LiveUpdateMaxAge:
		log.Debug().Time("built", prev.BuiltAt).Msg("live update: previous build too old")
		return nil, false
	}

	marker, at := prev.tail()
	if marker == "" {
		log.Debug().Msg("live update: no last segment")
		return nil, false
	}
	tail, err := parse.DecodeAfter(data, p.opts.Vocabulary, marker)
	switch {
	case err != nil || !tail.Found:
		log.Debug().Err(err).Bool("found", tail.Found).Str("marker", marker).Msg("live update: tail not decoded")
		return nil, false
	case tail.First != parse.ExtM3U:
		log.Debug().Msg("live update: no m3u8 tag")
		return nil, false
	case tail.Master:
		log.Debug().Msg("live update: master playlist")
		return nil, false
	}

	next := prev.Copy()
	if err := next.InsertMany(tail.Tags, at); err != nil {
		log.Debug().Err(err).Msg("live update: append failed")
		return nil, false
	}
	next.BuiltAt, next.Size = now, len(data)
	log.Debug().Int("tags", len(tail.Tags)).Msg("live update: appended tail")
	return next, true
}

// reparse runs the full parse bounded by ParseTimeout.
func (p *Parser) reparse(ctx context.Context, log zerolog.Logger, url string, data []byte) (*Result, error) {
	if p.opts.ParseTimeout <= 0 {
		return p.full(url, data)
	}
	parent := ctx
	ctx, cancel := context.WithTimeout(ctx, p.opts.ParseTimeout)
	defer cancel()

	type result struct {
		r   *Result
		err error
	}
	ch := make(chan result, 1)
	go func() {
		r, err := p.full(url, data)
		ch <- result{r, err}
	}()

	select {
	case r := <-ch:
		return r.r, r.err
	case <-ctx.Done():
		if err := parent.Err(); err != nil {
			return nil, errors.Wrapf(err, "parse %s", url)
		}
		log.Warn().Dur("timeout", p.opts.ParseTimeout).Msg("playlist parse timed out")
		return nil, errors.Wrapf(ErrParseTimeout, "parse %s after %v", url, p.opts.ParseTimeout)
	}
}

// Restore parses a stored snapshot, keeping its original build time so
// that a following Update can judge its age.
func (p *Parser) Restore(url string, data []byte, builtAt time.Time) (*Result, error) {
	r, err := p.Parse(url, data)
	if err != nil {
		return nil, err
	}
	if r.Media != nil {
		r.Media.BuiltAt = builtAt
	} else {
		r.Master.BuiltAt = builtAt
	}
	return r, nil
}
