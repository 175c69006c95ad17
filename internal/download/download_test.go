package download

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/hashicorp/go-hclog"

	"github.com/distantorigin/unreal-installer/internal/process"
)

// fakeDownloader writes canned content for each URL and records calls
type fakeDownloader struct {
	content map[string][]byte
	err     error
	calls   []string
}

func (f *fakeDownloader) Download(ctx context.Context, url, targetPath string) error {
	f.calls = append(f.calls, url)
	if f.err != nil {
		return f.err
	}
	data, ok := f.content[url]
	if !ok {
		return nil // tool "succeeded" but wrote nothing
	}
	return os.WriteFile(targetPath, data, 0644)
}

func newFetcher(t *testing.T, d Downloader) (*Fetcher, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := hclog.New(&hclog.LoggerOptions{Output: &buf, Level: hclog.Info})
	return &Fetcher{Dir: t.TempDir(), Downloader: d, Logger: logger}, &buf
}

const isoURL = "https://archive.org/download/ut-goty/UT_GOTY_CD1.iso"

// TestEnsureFile_SizeMatchSkipsDownload tests that a correct local file is reused
func TestEnsureFile_SizeMatchSkipsDownload(t *testing.T) {
	fake := &fakeDownloader{}
	f, logs := newFetcher(t, fake)

	target := filepath.Join(f.Dir, "UT_GOTY_CD1.iso")
	os.WriteFile(target, make([]byte, 100), 0644)

	if err := f.EnsureFile(context.Background(), isoURL, 100, true); err != nil {
		t.Fatalf("EnsureFile() error = %v", err)
	}
	if len(fake.calls) != 0 {
		t.Errorf("downloader called %d times, want 0", len(fake.calls))
	}
	if !strings.Contains(logs.String(), "Size match to expected size") {
		t.Errorf("missing size match log: %q", logs.String())
	}
}

// TestEnsureFile_SizeMismatchRedownloads tests delete-then-download-once
func TestEnsureFile_SizeMismatchRedownloads(t *testing.T) {
	fake := &fakeDownloader{content: map[string][]byte{isoURL: make([]byte, 100)}}
	f, _ := newFetcher(t, fake)

	target := filepath.Join(f.Dir, "UT_GOTY_CD1.iso")
	os.WriteFile(target, make([]byte, 42), 0644)

	if err := f.EnsureFile(context.Background(), isoURL, 100, true); err != nil {
		t.Fatalf("EnsureFile() error = %v", err)
	}
	if len(fake.calls) != 1 {
		t.Errorf("downloader called %d times, want 1", len(fake.calls))
	}
	info, err := os.Stat(target)
	if err != nil || info.Size() != 100 {
		t.Errorf("target should be the fresh 100-byte download, got %v %v", info, err)
	}
}

// TestEnsureFile_UnknownSizeForcesDownload tests that a negative size always refetches
func TestEnsureFile_UnknownSizeForcesDownload(t *testing.T) {
	url := "https://api.github.com/repos/OldUnreal/UnrealTournamentPatches/releases/latest"
	fake := &fakeDownloader{content: map[string][]byte{url: []byte(`{"assets":[]}`)}}
	f, _ := newFetcher(t, fake)

	os.WriteFile(filepath.Join(f.Dir, "latest"), []byte("stale"), 0644)

	if err := f.EnsureFile(context.Background(), url, UnknownSize, true); err != nil {
		t.Fatalf("EnsureFile() error = %v", err)
	}
	if len(fake.calls) != 1 {
		t.Errorf("downloader called %d times, want 1", len(fake.calls))
	}
	data, _ := os.ReadFile(filepath.Join(f.Dir, "latest"))
	if string(data) != `{"assets":[]}` {
		t.Errorf("file content = %q, want fresh content", data)
	}
}

// TestEnsureFile_MissingDownloads tests the plain download path
func TestEnsureFile_MissingDownloads(t *testing.T) {
	fake := &fakeDownloader{content: map[string][]byte{isoURL: make([]byte, 64)}}
	f, _ := newFetcher(t, fake)

	if err := f.EnsureFile(context.Background(), isoURL, 64, true); err != nil {
		t.Fatalf("EnsureFile() error = %v", err)
	}
	if len(fake.calls) != 1 {
		t.Errorf("downloader called %d times, want 1", len(fake.calls))
	}
}

// TestDownload_Failures tests fatal and non-fatal failure branches
func TestDownload_Failures(t *testing.T) {
	tests := []struct {
		name       string
		downloader *fakeDownloader
		expected   int64
		wantReason string
	}{
		{
			name:       "tool failed",
			downloader: &fakeDownloader{err: &process.ExitError{Command: process.Command{Name: "wget"}, Code: 8}},
			expected:   100,
			wantReason: "Failed download UT_GOTY_CD1.iso",
		},
		{
			name:       "tool succeeded without file",
			downloader: &fakeDownloader{},
			expected:   100,
			wantReason: "File UT_GOTY_CD1.iso not found",
		},
		{
			name:       "implausibly small file",
			downloader: &fakeDownloader{content: map[string][]byte{isoURL: []byte("404")}},
			expected:   100,
			wantReason: "too small",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name+"/fatal", func(t *testing.T) {
			f, _ := newFetcher(t, tt.downloader)
			err := f.Download(context.Background(), isoURL, tt.expected, true)
			if !IsAbort(err) {
				t.Fatalf("Download() error = %v, want abort", err)
			}
			if !strings.Contains(err.Error(), tt.wantReason) {
				t.Errorf("Download() error = %q, want %q", err, tt.wantReason)
			}
		})
		t.Run(tt.name+"/non-fatal", func(t *testing.T) {
			f, _ := newFetcher(t, tt.downloader)
			if err := f.Download(context.Background(), isoURL, tt.expected, false); err != nil {
				t.Errorf("Download() error = %v, want nil when not fatal", err)
			}
		})
	}
}

// TestDownload_CancelledNotSwallowed tests that cancellation surfaces even when not fatal
func TestDownload_CancelledNotSwallowed(t *testing.T) {
	f, _ := newFetcher(t, &fakeDownloader{err: errors.New("grab: request canceled")})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, fatal := range []bool{false, true} {
		err := f.Download(ctx, isoURL, 100, fatal)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Download(fatal=%v) error = %v, want context.Canceled", fatal, err)
		}
		if IsAbort(err) {
			t.Errorf("Download(fatal=%v) cancellation reported as abort", fatal)
		}
	}
}

// TestDownload_SizeMismatchAccepted tests the loose size check
func TestDownload_SizeMismatchAccepted(t *testing.T) {
	fake := &fakeDownloader{content: map[string][]byte{isoURL: make([]byte, 90)}}
	f, logs := newFetcher(t, fake)

	if err := f.Download(context.Background(), isoURL, 100, true); err != nil {
		t.Fatalf("Download() error = %v, want mismatch accepted", err)
	}
	if !strings.Contains(logs.String(), "which not match expect size 100") {
		t.Errorf("missing mismatch warning: %q", logs.String())
	}
}

// TestDownload_UnknownSizeAcceptsAnything tests that tiny files pass without a size
func TestDownload_UnknownSizeAcceptsAnything(t *testing.T) {
	fake := &fakeDownloader{content: map[string][]byte{isoURL: []byte("{}")}}
	f, _ := newFetcher(t, fake)

	if err := f.Download(context.Background(), isoURL, UnknownSize, true); err != nil {
		t.Errorf("Download() error = %v, want nil", err)
	}
}

// TestFetcher_PathTraversal tests that URL basenames cannot escape Dir
func TestFetcher_PathTraversal(t *testing.T) {
	f, _ := newFetcher(t, &fakeDownloader{})
	if _, err := f.Path("https://example.com/a/.."); err == nil {
		t.Error("Path() expected error for .. basename, got nil")
	}
}

// TestHumanSize tests thousands grouping
func TestHumanSize(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1 000"},
		{477050880, "477 050 880"},
		{676734976, "676 734 976"},
		{-1, "-1"},
		{-1234, "-1 234"},
	}
	for _, tt := range tests {
		if got := HumanSize(tt.in); got != tt.want {
			t.Errorf("HumanSize(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// TestValidatePath_WithTempDirs tests with real filesystem paths
func TestValidatePath_WithTempDirs(t *testing.T) {
	tempBase := t.TempDir()

	subDir := filepath.Join(tempBase, "sub")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatalf("failed to create subdir: %v", err)
	}

	tests := []struct {
		name    string
		target  string
		wantErr bool
	}{
		{name: "file in base", target: filepath.Join(tempBase, "file.txt")},
		{name: "file in subdirectory", target: filepath.Join(subDir, "file.txt")},
		{name: "base itself", target: tempBase, wantErr: true},
		{name: "attempt to escape via ..", target: filepath.Join(tempBase, "..", "outside.txt"), wantErr: true},
		{name: "sibling with shared prefix", target: tempBase + "-evil", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidatePath(tempBase, tt.target)
			if tt.wantErr && err == nil {
				t.Errorf("ValidatePath() expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ValidatePath() unexpected error: %v", err)
			}
		})
	}
}

// TestHTTPDownloader tests grab against a local server
func TestHTTPDownloader(t *testing.T) {
	payload := bytes.Repeat([]byte("U"), 4096)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/UT_GOTY_CD1.iso" {
			http.NotFound(w, r)
			return
		}
		if ua := r.Header.Get("User-Agent"); ua != "unreal-installer/test" {
			t.Errorf("User-Agent = %q", ua)
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		w.Write(payload)
	}))
	defer server.Close()

	var mu sync.Mutex
	var last int
	d := NewHTTPDownloader("unreal-installer/test")
	d.Progress = func(done, total int64, pct int) {
		mu.Lock()
		last = pct
		mu.Unlock()
	}

	target := filepath.Join(t.TempDir(), "UT_GOTY_CD1.iso")
	if err := d.Download(context.Background(), server.URL+"/UT_GOTY_CD1.iso", target); err != nil {
		t.Fatalf("Download() error = %v", err)
	}

	data, err := os.ReadFile(target)
	if err != nil || !bytes.Equal(data, payload) {
		t.Errorf("downloaded content mismatch (%d bytes, err %v)", len(data), err)
	}
	mu.Lock()
	defer mu.Unlock()
	if last != 100 {
		t.Errorf("final progress = %d, want 100", last)
	}
}

// TestHTTPDownloader_NotFound tests that HTTP errors surface
func TestHTTPDownloader_NotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	d := NewHTTPDownloader("unreal-installer/test")
	target := filepath.Join(t.TempDir(), "missing.iso")
	if err := d.Download(context.Background(), server.URL+"/missing.iso", target); err == nil {
		t.Error("Download() expected error for 404, got nil")
	}
}

type recordingRunner struct {
	cmd  process.Command
	code int
}

func (r *recordingRunner) Run(ctx context.Context, cmd process.Command) (process.Result, error) {
	r.cmd = cmd
	return process.Result{ExitCode: r.code}, nil
}

// TestToolDownloader tests the external downloader invocation
func TestToolDownloader(t *testing.T) {
	dir := t.TempDir()
	runner := &recordingRunner{}
	d := &ToolDownloader{Runner: runner, Tool: filepath.Join("tools", "wget")}

	if err := d.Download(context.Background(), isoURL, filepath.Join(dir, "UT_GOTY_CD1.iso")); err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if runner.cmd.Dir != dir {
		t.Errorf("Dir = %q, want %q", runner.cmd.Dir, dir)
	}
	if len(runner.cmd.Args) != 1 || runner.cmd.Args[0] != isoURL {
		t.Errorf("Args = %v, want [%s]", runner.cmd.Args, isoURL)
	}

	runner.code = 4
	err := d.Download(context.Background(), isoURL, filepath.Join(dir, "UT_GOTY_CD1.iso"))
	var exitErr *process.ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 4 {
		t.Errorf("Download() error = %v, want exit code 4", err)
	}
}
