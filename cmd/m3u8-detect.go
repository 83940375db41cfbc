package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/anlaneg/hlsedit/logging"
	"github.com/anlaneg/hlsedit/playlist"
	"github.com/anlaneg/hlsedit/tool"
)

var (
	file        string
	concurrency int
)

func init() {
	flag.StringVar(&file, "f", "", "M3U8 path list file, required")
	flag.IntVar(&concurrency, "c", 25, "Maximum number of files parsed at once")
}

// FileTask parses one playlist file per task and reports its structure.
type FileTask struct {
	parser      *playlist.Parser
	concurrency int
}

func (t *FileTask) GetConcurrency() int {
	return t.concurrency
}

func (t *FileTask) DoTask(_ context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	result, err := t.parser.Parse(path, data)
	if err != nil {
		return errors.Wrapf(err, "%s", path)
	}

	if result.Master != nil {
		fmt.Printf("[ok/%d] %s\n", len(result.Master.VariantGroups()), path)
		return nil
	}
	s := result.Media.Structure()
	if s.Degenerate() {
		fmt.Printf("[degenerate/%d] %s\n", result.Media.Len(), path)
		return nil
	}
	fmt.Printf("[ok/%d] %s\n", len(s.Groups), path)
	return nil
}

func main() {
	flag.Parse()
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("[error]:%s\n", r)
			os.Exit(0)
		}
	}()

	if file == "" {
		panic("parameter '" + "f" + "' is required")
	}

	paths, err := tool.ReadLines(file)
	if err != nil {
		panic(err.Error())
	}

	opts := playlist.LoadOptions()
	opts.Log = logging.NewConsole(os.Stderr)
	task := &FileTask{parser: playlist.NewParser(opts), concurrency: concurrency}
	for _, err := range tool.ConcurrencyTaskRun(context.Background(), task, paths) {
		if err != nil {
			fmt.Printf("[error] %s\n", err)
		}
	}
}
