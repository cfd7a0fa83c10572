package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/hyperjump/docqa/internal/models"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const testDebounce = 50 * time.Millisecond

type recordingIngester struct {
	mu    sync.Mutex
	paths []string
	err   error
}

func (r *recordingIngester) Ingest(_ context.Context, path string) (*models.IngestResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
	if r.err != nil {
		return nil, r.err
	}
	return &models.IngestResult{FilePath: path, FileName: filepath.Base(path), NumChunks: 1}, nil
}

func (r *recordingIngester) ingested() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func startWatcher(t *testing.T, roots []string, ing Ingester, opts ...WatcherOption) *Watcher {
	t.Helper()
	opts = append([]WatcherOption{WithDebounce(testDebounce)}, opts...)
	w := NewWatcher(roots, true, ing, opts...)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(w.Stop)
	return w
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
}

func TestWatcher_IngestsNewFile(t *testing.T) {
	dir := t.TempDir()
	ing := &recordingIngester{}
	startWatcher(t, []string{dir}, ing)

	path := filepath.Join(dir, "report.txt")
	writeFile(t, path, "hello")

	waitFor(t, func() bool { return len(ing.ingested()) == 1 })
	if got := ing.ingested()[0]; got != path {
		t.Errorf("ingested %s, want %s", got, path)
	}
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	ing := &recordingIngester{}
	startWatcher(t, []string{dir}, ing, WithDebounce(200*time.Millisecond))

	path := filepath.Join(dir, "growing.txt")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		if _, err := f.WriteString("more text\n"); err != nil {
			t.Fatal(err)
		}
		time.Sleep(20 * time.Millisecond)
	}
	f.Close()

	waitFor(t, func() bool { return len(ing.ingested()) > 0 })
	time.Sleep(400 * time.Millisecond)
	if n := len(ing.ingested()); n != 1 {
		t.Errorf("expected a single ingestion, got %d", n)
	}
}

func TestWatcher_IgnoresUnsupportedAndExistingFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "existing.txt"), "already here")

	ing := &recordingIngester{}
	startWatcher(t, []string{dir}, ing)

	writeFile(t, filepath.Join(dir, "notes.docx"), "x")
	writeFile(t, filepath.Join(dir, "README"), "x")
	writeFile(t, filepath.Join(dir, "marker.pdf"), "x")

	waitFor(t, func() bool { return len(ing.ingested()) == 1 })
	time.Sleep(3 * testDebounce)
	got := ing.ingested()
	if len(got) != 1 || filepath.Base(got[0]) != "marker.pdf" {
		t.Errorf("ingested %v, want only marker.pdf", got)
	}
}

func TestWatcher_NewDirectory(t *testing.T) {
	dir := t.TempDir()
	ing := &recordingIngester{}
	startWatcher(t, []string{dir}, ing)

	nested := filepath.Join(dir, "level1", "level2")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(nested, "deep.txt"), "deep content")
	writeFile(t, filepath.Join(nested, "skip.xyz"), "skip")

	waitFor(t, func() bool { return len(ing.ingested()) >= 1 })
	time.Sleep(3 * testDebounce)
	for _, p := range ing.ingested() {
		if filepath.Base(p) != "deep.txt" {
			t.Errorf("unexpected ingestion of %s", p)
		}
	}
	if n := len(ing.ingested()); n != 1 {
		t.Errorf("deep.txt should be ingested once, got %d", n)
	}
}

func TestWatcher_RemoveCancelsPending(t *testing.T) {
	dir := t.TempDir()
	ing := &recordingIngester{}
	startWatcher(t, []string{dir}, ing, WithDebounce(300*time.Millisecond))

	path := filepath.Join(dir, "temp.txt")
	writeFile(t, path, "short lived")
	time.Sleep(50 * time.Millisecond)
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	time.Sleep(500 * time.Millisecond)
	if got := ing.ingested(); len(got) != 0 {
		t.Errorf("removed file should not be ingested, got %v", got)
	}
}

func TestWatcher_IngestFailureIsLogged(t *testing.T) {
	dir := t.TempDir()
	core, logs := observer.New(zapcore.WarnLevel)
	ing := &recordingIngester{err: models.NewError(models.KindLoadFailure, "no text extracted")}
	startWatcher(t, []string{dir}, ing, WithLogger(zap.New(core)))

	writeFile(t, filepath.Join(dir, "empty.txt"), "")

	waitFor(t, func() bool { return logs.FilterMessage("inbox ingestion failed").Len() == 1 })
	entry := logs.FilterMessage("inbox ingestion failed").All()[0]
	if entry.ContextMap()["kind"] != string(models.KindLoadFailure) {
		t.Errorf("kind = %v", entry.ContextMap()["kind"])
	}
}

func TestWatcher_StartCreatesMissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "inbox", "new")
	startWatcher(t, []string{root}, &recordingIngester{})
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		t.Errorf("root directory should exist after Start: %v", err)
	}
}

func TestWatcher_AddDirectory(t *testing.T) {
	ing := &recordingIngester{}
	w := startWatcher(t, nil, ing)

	dir := t.TempDir()
	if err := w.AddDirectory(dir); err != nil {
		t.Fatal(err)
	}
	if err := w.AddDirectory(dir); err != nil {
		t.Fatal(err)
	}
	if dirs := w.Directories(); len(dirs) != 1 || dirs[0] != filepath.Clean(dir) {
		t.Errorf("Directories() = %v", dirs)
	}

	writeFile(t, filepath.Join(dir, "late.txt"), "added later")
	waitFor(t, func() bool { return len(ing.ingested()) == 1 })
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w := NewWatcher([]string{t.TempDir()}, false, &recordingIngester{})
	w.Stop()
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop()
}

func TestMatchExtension(t *testing.T) {
	tests := []struct {
		path       string
		extensions []string
		want       bool
	}{
		{"/a/b.txt", []string{".txt"}, true},
		{"/a/b.TXT", []string{".txt"}, true},
		{"/a/b.pdf", []string{"pdf"}, true},
		{"/a/b.md", []string{".txt"}, false},
		{"/a/b", []string{".txt"}, false},
		{"/a/b.txt", nil, false},
	}
	for _, tt := range tests {
		if got := matchExtension(tt.path, tt.extensions); got != tt.want {
			t.Errorf("matchExtension(%q, %v) = %v, want %v", tt.path, tt.extensions, got, tt.want)
		}
	}
}

