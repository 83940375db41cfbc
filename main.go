package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anlaneg/hlsedit/api"
	"github.com/anlaneg/hlsedit/logging"
	"github.com/anlaneg/hlsedit/metrics"
	"github.com/anlaneg/hlsedit/parse"
	"github.com/anlaneg/hlsedit/playlist"
	"github.com/anlaneg/hlsedit/structure"
	"github.com/anlaneg/hlsedit/tool"
)

var (
	file   string
	url    string
	dbPath string
	at     float64
	seq    int
	output string
	addr   string
)

func init() {
	flag.StringVar(&file, "f", "", "M3U8 file to load")
	flag.StringVar(&url, "u", "", "Playlist URL the file was fetched from, defaults to the file path")
	flag.StringVar(&dbPath, "db", tool.GetEnv("HLS_DB", "playlist_db"), "Playlist snapshot database")
	flag.Float64Var(&at, "t", -1, "Show the segment playing at this many seconds")
	flag.IntVar(&seq, "seq", -1, "Show the segment with this media sequence number")
	flag.StringVar(&output, "o", "", "Write the playlist back to this file")
	flag.StringVar(&addr, "http", tool.GetEnv("HLS_HTTP_ADDR", ""), "Serve the playlist API on this address")
}

func main() {
	/*命令行解析*/
	flag.Parse()
	defer func() {
		if r := recover(); r != nil {
			fmt.Println("[error]", r)
			os.Exit(-1)
		}
	}()
	if file == "" && addr == "" {
		panicParameter("f")
	}
	if url == "" {
		url = file
	}

	log := logging.NewConsole(os.Stderr)
	metrics.InitializeMetrics()
	opts := playlist.LoadOptions()
	opts.Log = log
	parser := playlist.NewParser(opts)

	db, err := tool.OpenPlaylistDB(dbPath)
	if err != nil {
		panic(err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if file != "" {
		/*载入playlist，与上次保存的版本比较后更新*/
		result, err := load(ctx, parser, db)
		if err != nil {
			panic(err)
		}
		if result.Master != nil {
			printMaster(result.Master)
		} else {
			printMedia(result.Media)
		}
		if output != "" {
			if err := write(result); err != nil {
				panic(err)
			}
		}
	}

	if addr != "" {
		log.Info().Str("addr", addr).Msg("serving playlist api")
		router := api.NewRouter(api.New(db, parser, log))
		if err := tool.Serve(ctx, addr, router); err != nil {
			panic(err)
		}
	}
}

func load(ctx context.Context, parser *playlist.Parser, db *tool.PlaylistDB) (*playlist.Result, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	var prev *playlist.Media
	rec, ok, err := db.Get(url)
	if err != nil {
		return nil, err
	}
	if ok {
		if old, err := parser.Restore(url, rec.Data, rec.BuiltAt); err == nil {
			prev = old.Media
		}
	}

	result, err := parser.Refresh(ctx, prev, url, data)
	if err != nil {
		return nil, err
	}
	var builtAt time.Time
	if result.Media != nil {
		builtAt = result.Media.BuiltAt
	} else {
		builtAt = result.Master.BuiltAt
	}
	return result, db.Put(tool.PlaylistRecord{URL: url, Data: data, BuiltAt: builtAt})
}

func printMedia(m *playlist.Media) {
	fmt.Printf("[media/%s] %s\n", m.Type(), m.URL)
	m.View(func(tags []parse.Tag, s structure.Media) {
		fmt.Printf("  %d tags\n", len(tags))
		if s.Degenerate() {
			fmt.Println("  no segment structure")
		}
		if s.Header != nil {
			fmt.Printf("  header  %d-%d\n", s.Header.Range.Start, s.Header.Range.End)
		}
		for _, g := range s.Groups {
			disc := ""
			if g.Discontinuity {
				disc = " discontinuity"
			}
			fmt.Printf("  segment %d-%d seq=%d start=%v duration=%v%s %s\n", g.Range.Start, g.Range.End,
				g.MediaSequence, g.Time.Start, g.Time.Duration, disc, tags[g.Range.End].Value)
		}
		if s.Footer != nil {
			fmt.Printf("  footer  %d-%d\n", s.Footer.Range.Start, s.Footer.Range.End)
		}
		for _, sp := range s.Spans {
			fmt.Printf("  span    %s@%d segments %d-%d\n", sp.Tag.Name, sp.TagIndex, sp.Range.Start, sp.Range.End)
		}
	})
	if d, ok := m.Duration(); ok {
		fmt.Printf("  duration %v\n", d)
	}

	if at >= 0 {
		t := time.Duration(at * float64(time.Second))
		if g, ok := m.SegmentGroupForTime(t); ok {
			name, _ := m.SegmentName(g.MediaSequence)
			fmt.Printf("[t=%v] seq=%d tags %d-%d %s\n", t, g.MediaSequence, g.Range.Start, g.Range.End, name)
		} else {
			fmt.Printf("[t=%v] not found\n", t)
		}
	}
	if seq >= 0 {
		if name, ok := m.SegmentName(seq); ok {
			r, _ := m.TimeRangeForMediaSequence(seq)
			fmt.Printf("[seq=%d] %s start=%v duration=%v\n", seq, name, r.Start, r.Duration)
		} else {
			fmt.Printf("[seq=%d] not found\n", seq)
		}
	}
}

func printMaster(m *playlist.Master) {
	variants := m.Variants()
	fmt.Printf("[master/%d] %s\n", len(variants), m.URL)
	for _, v := range variants {
		kind := "variant"
		if v.IFrame {
			kind = "iframe"
		}
		fmt.Printf("  %-7s %d-%d bandwidth=%d %s\n", kind, v.Group.Range.Start, v.Group.Range.End, v.Bandwidth, v.URI)
	}
}

func write(result *playlist.Result) error {
	f, err := os.Create(output)
	if err != nil {
		return err
	}
	defer f.Close()
	if result.Master != nil {
		return result.Master.Encode(f)
	}
	return result.Media.Encode(f)
}

func panicParameter(name string) {
	panic("parameter '" + name + "' is required")
}
