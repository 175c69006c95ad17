package install

import (
	"context"
	"fmt"

	"github.com/distantorigin/unreal-installer/internal/process"
)

// Extractor unpacks archives with an external 7-Zip compatible tool
type Extractor struct {
	Runner    process.Runner
	Archiver  string
	OutputDir string

	// SkipList names a file of patterns excluded from the disc image
	SkipList string

	// Strict turns a failing archiver into an error
	Strict bool
}

// ExtractImage unpacks the game disc image, overwriting existing files and
// leaving out everything listed in SkipList
func (e *Extractor) ExtractImage(ctx context.Context, path string) error {
	args := []string{"x", "-aoa", "-o" + e.OutputDir}
	if e.SkipList != "" {
		args = append(args, "-x@"+e.SkipList)
	}
	return e.run(ctx, append(args, path))
}

// ExtractPatch unpacks the patch archive over the game files
func (e *Extractor) ExtractPatch(ctx context.Context, path string) error {
	return e.run(ctx, []string{"x", "-aoa", "-o" + e.OutputDir, path})
}

func (e *Extractor) run(ctx context.Context, args []string) error {
	cmd := process.Command{Name: e.Archiver, Args: args}
	res, err := e.Runner.Run(ctx, cmd)
	if !e.Strict {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to run archiver: %w", err)
	}
	return process.Check(cmd, res)
}
