package tool

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"sync/atomic"
	"testing"
	"time"
)

type countTask struct {
	limit    int
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (c *countTask) GetConcurrency() int {
	return c.limit
}

func (c *countTask) DoTask(ctx context.Context, task string) error {
	n := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(time.Millisecond)
	if task == "bad" {
		return fmt.Errorf("task %s failed", task)
	}
	return nil
}

func TestConcurrencyTaskRun(t *testing.T) {
	run := &countTask{limit: 2}
	tasks := []string{"a", "b", "bad", "c", "d", "e"}

	errs := ConcurrencyTaskRun(context.Background(), run, tasks)

	if len(errs) != len(tasks) {
		t.Fatalf("have %d errors, want %d", len(errs), len(tasks))
	}
	for i, err := range errs {
		if (err != nil) != (tasks[i] == "bad") {
			t.Fatalf("task %s: err=%v", tasks[i], err)
		}
	}
	if p := run.peak.Load(); p > 2 {
		t.Fatalf("peak concurrency %d exceeds limit", p)
	}
}

func TestConcurrencyTaskRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	errs := ConcurrencyTaskRun(ctx, &countTask{}, []string{"a", "b"})
	for _, err := range errs {
		if err != context.Canceled {
			t.Fatalf("have %v, want %v", err, context.Canceled)
		}
	}
}

func TestReadLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.txt")
	content := "a.m3u8\n\n  # skipped\n b.m3u8 \n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	lines, err := ReadLines(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"a.m3u8", "b.m3u8"}; !reflect.DeepEqual(lines, want) {
		t.Fatalf("mismatch:\n\t\thave: %q\n\t\twant: %q", lines, want)
	}

	if _, err := ReadLines(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("HLSEDIT_TEST_STR", " value ")
	t.Setenv("HLSEDIT_TEST_INT", "42")
	t.Setenv("HLSEDIT_TEST_BADINT", "-3")
	t.Setenv("HLSEDIT_TEST_DUR", "1m30s")
	t.Setenv("HLSEDIT_TEST_SECS", "5")
	t.Setenv("HLSEDIT_TEST_BOOL", "yes")

	if v := GetEnv("HLSEDIT_TEST_STR", "x"); v != "value" {
		t.Errorf("GetEnv: have %q", v)
	}
	if v := GetEnv("HLSEDIT_TEST_UNSET", "x"); v != "x" {
		t.Errorf("GetEnv fallback: have %q", v)
	}
	if v := GetEnvInt64("HLSEDIT_TEST_INT", 1); v != 42 {
		t.Errorf("GetEnvInt64: have %d", v)
	}
	if v := GetEnvInt64("HLSEDIT_TEST_BADINT", 1); v != 1 {
		t.Errorf("GetEnvInt64 negative: have %d", v)
	}
	if v := GetEnvDuration("HLSEDIT_TEST_DUR", 0); v != 90*time.Second {
		t.Errorf("GetEnvDuration: have %v", v)
	}
	if v := GetEnvDuration("HLSEDIT_TEST_SECS", 0); v != 5*time.Second {
		t.Errorf("GetEnvDuration seconds: have %v", v)
	}
	if v := GetEnvDuration("HLSEDIT_TEST_STR", time.Minute); v != time.Minute {
		t.Errorf("GetEnvDuration fallback: have %v", v)
	}
	if v := GetEnvBool("HLSEDIT_TEST_BOOL", false); !v {
		t.Errorf("GetEnvBool: have %v", v)
	}
}

func TestServeShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, "127.0.0.1:0", http.NotFoundHandler())
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve fail:%s", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}
}

func TestServeBadAddr(t *testing.T) {
	if err := Serve(context.Background(), "127.0.0.1:-1", http.NotFoundHandler()); err == nil {
		t.Fatal("expected listen error")
	}
}
