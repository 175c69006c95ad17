package manifest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"

	"github.com/distantorigin/unreal-installer/internal/download"
	"github.com/distantorigin/unreal-installer/internal/github"
	"github.com/distantorigin/unreal-installer/internal/paths"
)

var (
	ErrManifestMissing = errors.New("releases list missing")
	ErrNoMatchingAsset = errors.New("no matching asset")
)

// Resolution is the outcome of a successful Resolve
type Resolution struct {
	Release      *github.Release
	Asset        github.Asset
	ManifestURL  string
	ManifestFile string
}

// ResolveError is returned when the last attempt fails. It ends the installation.
type ResolveError struct {
	URL     string
	Cause   error
	Content []byte
}

func (e *ResolveError) Error() string {
	switch {
	case errors.Is(e.Cause, ErrManifestMissing):
		return fmt.Sprintf("Failed get releases list from %s", e.URL)
	case errors.Is(e.Cause, github.ErrInvalidJSON):
		return "Failed decode as JSON:\n" + dump(e.Content)
	}
	return fmt.Sprintf("Unexpected JSON data (%s):\n%s", classify(e.Cause), dump(e.Content))
}

func (e *ResolveError) Unwrap() error { return e.Cause }

// Abort marks the error as ending the installation
func (e *ResolveError) Abort() bool { return true }

func dump(content []byte) string {
	return "--- start ---\n" + string(content) + "\n--- end ---"
}

func classify(err error) string {
	for _, sentinel := range []error{
		github.ErrAssetsNotFound,
		github.ErrAssetsEmpty,
		github.ErrMalformedAsset,
		ErrNoMatchingAsset,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}

// Resolver downloads a release manifest and picks the patch archive for this
// platform. A fallback URL gives it one more attempt.
type Resolver struct {
	Fetcher *download.Fetcher
	Logger  hclog.Logger
}

// Resolve tries primaryURL and then, if set, fallbackURL. Only the last
// attempt may abort; earlier failures are logged and skipped.
func (r *Resolver) Resolve(ctx context.Context, primaryURL, fallbackURL string, legacy bool) (*Resolution, error) {
	tries := 1
	if fallbackURL != "" {
		tries = 2
	}

	url := primaryURL
	var previous string
	for try := 1; try <= tries; try++ {
		if try == 2 {
			if previous != "" && paths.Exists(previous) {
				if err := os.Remove(previous); err != nil {
					return nil, fmt.Errorf("failed to remove %s: %w", filepath.Base(previous), err)
				}
			}
			url = fallbackURL
		}
		last := try == tries

		r.Logger.Info("Try obtain releases list from " + url)
		file, err := r.Fetcher.Path(url)
		if err != nil {
			return nil, err
		}
		previous = file

		res, err := r.attempt(ctx, url, file, legacy, last)
		if err == nil {
			r.Logger.Info(fmt.Sprintf("Use %s for patch.", paths.URLBase(res.Asset.BrowserDownloadURL)))
			return res, nil
		}
		if last || !isResolveError(err) {
			return nil, err
		}
		r.Logger.Warn("releases list rejected, trying fallback", "url", url, "error", classify(err))
	}
	return nil, fmt.Errorf("failed to resolve releases list from %s", primaryURL)
}

func (r *Resolver) attempt(ctx context.Context, url, file string, legacy, last bool) (*Resolution, error) {
	if err := r.Fetcher.EnsureFile(ctx, url, download.UnknownSize, last); err != nil {
		return nil, err
	}

	if !paths.Exists(file) {
		return nil, &ResolveError{URL: url, Cause: ErrManifestMissing}
	}
	content, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read releases list: %w", err)
	}

	release, err := github.ParseRelease(content)
	if err != nil {
		return nil, &ResolveError{URL: url, Cause: err, Content: content}
	}

	asset, ok := github.SelectAsset(release.Assets, legacy)
	if !ok {
		return nil, &ResolveError{URL: url, Cause: ErrNoMatchingAsset, Content: content}
	}
	if err := asset.Validate(); err != nil {
		return nil, &ResolveError{URL: url, Cause: err, Content: content}
	}

	return &Resolution{
		Release:      release,
		Asset:        asset,
		ManifestURL:  url,
		ManifestFile: filepath.Base(file),
	}, nil
}

func isResolveError(err error) bool {
	var re *ResolveError
	return errors.As(err, &re)
}
