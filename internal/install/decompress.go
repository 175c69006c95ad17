package install

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/distantorigin/unreal-installer/internal/paths"
	"github.com/distantorigin/unreal-installer/internal/process"
)

// DefaultExt is the extension of compressed game packages
const DefaultExt = ".uz"

// Stats counts what a Decompressor did
type Stats struct {
	Total        int
	Skipped      int
	Decompressed int
	Failed       int
}

// Decompressor expands every compressed package under Root with the game's
// own tool, which writes its output into SharedDir
type Decompressor struct {
	Runner    process.Runner
	Tool      string
	Root      string
	SharedDir string
	Ext       string
	Strict    bool
	Logger    hclog.Logger

	// Progress receives the percentage done before each file
	Progress func(percent float64)
}

// Run decompresses all packages. A package is deleted only once its
// decompressed twin exists next to it.
func (d *Decompressor) Run(ctx context.Context) (Stats, error) {
	ext := d.Ext
	if ext == "" {
		ext = DefaultExt
	}

	files, err := paths.FindByExt(d.Root, ext)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to scan %s: %w", d.Root, err)
	}

	stats := Stats{Total: len(files)}
	for done, file := range files {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if d.Progress != nil {
			d.Progress(Percent(done, len(files)))
		}

		cause, err := d.decompress(ctx, file, ext, &stats)
		if err != nil {
			return stats, err
		}
		if cause != nil {
			stats.Failed++
			d.Logger.Warn("package left compressed", "file", paths.Normalize(file), "cause", cause)
			if d.Strict {
				return stats, fmt.Errorf("failed to decompress %s: %w", file, cause)
			}
		}
	}
	return stats, nil
}

// decompress expands one package. A nil cause means the package is gone and
// its twin exists; err is reserved for failures touching the tree itself.
func (d *Decompressor) decompress(ctx context.Context, file, ext string, stats *Stats) (cause, err error) {
	d.Logger.Info("Unpack " + file)
	dir := filepath.Dir(file)
	name := filepath.Base(file)
	name = name[:len(name)-len(ext)]
	twin := filepath.Join(dir, name)

	if paths.Exists(twin) {
		d.Logger.Info("Already unpacked. Remove uz file.")
		if err := os.Remove(file); err != nil {
			return nil, fmt.Errorf("failed to remove %s: %w", file, err)
		}
		stats.Skipped++
		return nil, nil
	}

	cmd := process.Command{
		Name: d.Tool,
		Args: []string{"decompress", file},
		Dir:  d.SharedDir,
	}
	// the twin decides success; the result only explains a failure
	res, runErr := d.Runner.Run(ctx, cmd)

	if !paths.SameDir(dir, d.SharedDir) {
		output, _ := paths.FindActual(filepath.Join(d.SharedDir, name))
		if paths.Exists(output) {
			if err := os.Rename(output, twin); err != nil {
				return nil, fmt.Errorf("failed to move %s: %w", name, err)
			}
		}
	}

	if !paths.Exists(twin) {
		if runErr != nil {
			return runErr, nil
		}
		if err := process.Check(cmd, res); err != nil {
			return err, nil
		}
		return fmt.Errorf("%s wrote no %s", filepath.Base(d.Tool), name), nil
	}
	d.Logger.Info("Unpacked. Remove uz file.")
	if err := os.Remove(file); err != nil {
		return nil, fmt.Errorf("failed to remove %s: %w", file, err)
	}
	stats.Decompressed++
	return nil, nil
}

// Percent returns 100*done/total rounded to one decimal place
func Percent(done, total int) float64 {
	if total == 0 {
		return 100
	}
	return math.Round(1000*float64(done)/float64(total)) / 10
}

// FormatPercent renders a percentage without trailing zeros: 50, 33.3
func FormatPercent(p float64) string {
	return strings.TrimSuffix(fmt.Sprintf("%.1f", p), ".0")
}
