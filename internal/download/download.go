package download

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/cavaliergopher/grab/v3"

	"github.com/distantorigin/unreal-installer/internal/github"
	"github.com/distantorigin/unreal-installer/internal/process"
)

// Downloader fetches url into targetPath
type Downloader interface {
	Download(ctx context.Context, url, targetPath string) error
}

// ProgressCallback is called during download with progress info
type ProgressCallback func(bytesComplete, totalBytes int64, percentage int)

// HTTPDownloader downloads in-process with grab
type HTTPDownloader struct {
	Client    *grab.Client
	UserAgent string
	Token     string
	Progress  ProgressCallback
}

// NewHTTPDownloader creates a downloader with a fresh grab client
func NewHTTPDownloader(userAgent string) *HTTPDownloader {
	client := grab.NewClient()
	client.UserAgent = userAgent
	return &HTTPDownloader{
		Client:    client,
		UserAgent: userAgent,
		Token:     github.TokenFromEnv(),
	}
}

// Download fetches url to targetPath, always overwriting
func (d *HTTPDownloader) Download(ctx context.Context, url, targetPath string) error {
	req, err := grab.NewRequest(targetPath, url)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req = req.WithContext(ctx)
	req.NoResume = true // Always overwrite, never resume

	if github.IsAPIURL(url) {
		req.HTTPRequest.Header.Set("Accept", "application/vnd.github+json")
	}
	if d.Token != "" && github.IsGitHubURL(url) {
		req.HTTPRequest.Header.Set("Authorization", "Bearer "+d.Token)
	}

	client := d.Client
	if client == nil {
		client = grab.DefaultClient
	}
	resp := client.Do(req)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	lastPercentage := -1
	for {
		select {
		case <-ticker.C:
			if d.Progress != nil && resp.Size() > 0 {
				percentage := int(resp.Progress() * 100)
				if percentage != lastPercentage {
					d.Progress(resp.BytesComplete(), resp.Size(), percentage)
					lastPercentage = percentage
				}
			}
		case <-resp.Done:
			if err := resp.Err(); err != nil {
				return fmt.Errorf("download failed: %w", err)
			}
			if d.Progress != nil && resp.Size() > 0 {
				d.Progress(resp.BytesComplete(), resp.Size(), 100)
			}
			return nil
		}
	}
}

// ToolDownloader runs an external downloader (wget) that saves the URL's
// basename into the target directory
type ToolDownloader struct {
	Runner process.Runner
	Tool   string
}

// Download runs the tool in the target's directory. A non-zero exit code
// becomes a *process.ExitError.
func (d *ToolDownloader) Download(ctx context.Context, url, targetPath string) error {
	cmd := process.Command{
		Name: d.Tool,
		Args: []string{url},
		Dir:  filepath.Dir(targetPath),
	}
	res, err := d.Runner.Run(ctx, cmd)
	if err != nil {
		return err
	}
	return process.Check(cmd, res)
}

// ValidatePath ensures a path doesn't escape the base directory (path traversal protection)
func ValidatePath(basePath, targetPath string) (string, error) {
	absBase, err := filepath.Abs(basePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base path: %w", err)
	}

	absTarget, err := filepath.Abs(targetPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve target path: %w", err)
	}

	if absTarget == absBase || !strings.HasPrefix(absTarget, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal attempt detected")
	}

	return absTarget, nil
}
