package download

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-hclog"

	"github.com/distantorigin/unreal-installer/internal/paths"
)

const (
	// UnknownSize forces a fresh download and skips the size check
	UnknownSize int64 = -1

	// MinPlausibleSize is the size below which a download is treated as broken
	MinPlausibleSize int64 = 16
)

// AbortError marks a failure that ends the installation
type AbortError struct {
	Reason string
}

func (e *AbortError) Error() string {
	return e.Reason
}

// Abort marks the error as ending the installation
func (e *AbortError) Abort() bool { return true }

// Abortf builds an *AbortError
func Abortf(format string, args ...interface{}) error {
	return &AbortError{Reason: fmt.Sprintf(format, args...)}
}

// IsAbort reports whether err, or any error it wraps, ends the installation
func IsAbort(err error) bool {
	var abort interface{ Abort() bool }
	return errors.As(err, &abort) && abort.Abort()
}

// Fetcher makes sure downloaded files exist in Dir with the expected size
type Fetcher struct {
	Dir        string
	Downloader Downloader
	Logger     hclog.Logger
}

// Path returns where url is stored locally
func (f *Fetcher) Path(url string) (string, error) {
	target, err := ValidatePath(f.Dir, filepath.Join(f.Dir, paths.URLBase(url)))
	if err != nil {
		return "", fmt.Errorf("refusing to store %s: %w", url, err)
	}
	return target, nil
}

// EnsureFile reuses an existing file when its size matches expectedSize and
// downloads it otherwise. A negative expectedSize always downloads again.
func (f *Fetcher) EnsureFile(ctx context.Context, url string, expectedSize int64, fatal bool) error {
	target, err := f.Path(url)
	if err != nil {
		return err
	}
	name := filepath.Base(target)

	if size, err := paths.Size(target); err == nil {
		if expectedSize < 0 {
			f.Logger.Info("Force download requested. Remove old file and try download it again.", "file", name)
			if err := os.Remove(target); err != nil {
				return fmt.Errorf("failed to remove %s: %w", name, err)
			}
		} else {
			f.Logger.Info(fmt.Sprintf("Found %s of size %s", name, HumanSize(size)))
			if size == expectedSize {
				f.Logger.Info("Size match to expected size. Use that file.")
			} else {
				f.Logger.Info(fmt.Sprintf("Size not match to expected size (%s). Remove file and try download it again.", HumanSize(expectedSize)))
				if err := os.Remove(target); err != nil {
					return fmt.Errorf("failed to remove %s: %w", name, err)
				}
			}
		}
	}

	if !paths.Exists(target) {
		return f.Download(ctx, url, expectedSize, fatal)
	}
	return nil
}

// Download fetches url. Failures return an *AbortError when fatal is set and
// nil otherwise, leaving the caller to notice the missing file. A size
// mismatch is only a warning unless the file is implausibly small.
func (f *Fetcher) Download(ctx context.Context, url string, expectedSize int64, fatal bool) error {
	target, err := f.Path(url)
	if err != nil {
		return err
	}
	name := filepath.Base(target)
	f.Logger.Info(fmt.Sprintf("Start download %s from %s", name, url))

	if err := f.Downloader.Download(ctx, url, target); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		f.Logger.Warn("download failed", "file", name, "error", err)
		if !fatal {
			return nil
		}
		return Abortf("Failed download %s from %s. Abort.", name, url)
	}

	size, err := paths.Size(target)
	if err != nil {
		if !fatal {
			return nil
		}
		return Abortf("File %s not found. Abort.", name)
	}

	if expectedSize < 0 {
		return nil
	}

	if size != expectedSize {
		f.Logger.Warn(fmt.Sprintf("File size of %s is %s, which not match expect size %s", name, HumanSize(size), HumanSize(expectedSize)))
		if size < MinPlausibleSize {
			if !fatal {
				return nil
			}
			return Abortf("File size of %s is too small. Abort.", name)
		}
	}

	return nil
}

// HumanSize formats a byte count with a space as thousands separator
func HumanSize(n int64) string {
	return humanize.FormatInteger("# ###.", int(n))
}
