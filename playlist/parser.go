package playlist

import (
	"bytes"
	"time"

	"github.com/pkg/errors"

	"github.com/anlaneg/hlsedit/metrics"
	"github.com/anlaneg/hlsedit/parse"
	"github.com/anlaneg/hlsedit/structure"
)

var (
	ErrHeader       = errors.New("hls: no m3u8 tag")
	ErrEmpty        = errors.New("hls: empty playlist")
	ErrType         = errors.New("hls: playlist type mismatch")
	ErrParseTimeout = errors.New("hls: parse timed out")
)

// Result holds exactly one of Media or Master.
type Result struct {
	Media  *Media
	Master *Master
}

type Parser struct {
	opts Options

	// full is the reparse used by Refresh
	full func(url string, data []byte) (*Result, error)
}

func NewParser(opts Options) *Parser {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	p := &Parser{opts: opts}
	p.full = p.Parse
	return p
}

// Parse decodes data fetched from url into a media or master playlist.
func (p *Parser) Parse(url string, data []byte) (*Result, error) {
	start := time.Now()
	tags, master, err := p.decode(data)
	if err != nil {
		metrics.ParseErrors.Inc()
		return nil, errors.Wrapf(err, "parse %s", url)
	}

	log := p.opts.Log.With().Str("url", url).Logger()
	now := p.opts.Now()
	if master {
		eng := structure.NewEngine[structure.Master](structure.MasterDelegate{Log: log}, tags)
		metrics.ParseDuration.WithLabelValues("master").Observe(time.Since(start).Seconds())
		return &Result{Master: newMaster(url, len(data), now, eng)}, nil
	}
	eng := structure.NewEngine[structure.Media](structure.MediaDelegate{Log: log}, tags)
	metrics.ParseDuration.WithLabelValues("media").Observe(time.Since(start).Seconds())
	return &Result{Media: newMedia(url, len(data), now, eng)}, nil
}

func (p *Parser) ParseMedia(url string, data []byte) (*Media, error) {
	r, err := p.Parse(url, data)
	if err != nil {
		return nil, err
	}
	return mediaOf(url, r)
}

func mediaOf(url string, r *Result) (*Media, error) {
	if r.Media == nil {
		return nil, errors.Wrapf(ErrType, "parse %s: master playlist", url)
	}
	return r.Media, nil
}

func (p *Parser) ParseMaster(url string, data []byte) (*Master, error) {
	r, err := p.Parse(url, data)
	if err != nil {
		return nil, err
	}
	if r.Master == nil {
		return nil, errors.Wrapf(ErrType, "parse %s: media playlist", url)
	}
	return r.Master, nil
}

func (p *Parser) decode(data []byte) (tags []parse.Tag, master bool, err error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, false, ErrEmpty
	}
	tags, err = parse.Decode(data, p.opts.Vocabulary)
	if err != nil {
		return nil, false, err
	}
	if len(tags) == 0 || tags[0].Kind != parse.ExtM3U {
		return nil, false, ErrHeader
	}
	return tags, parse.IsMaster(tags), nil
}
