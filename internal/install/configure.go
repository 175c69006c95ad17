package install

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"

	"github.com/distantorigin/unreal-installer/internal/games"
	"github.com/distantorigin/unreal-installer/internal/sentinel"
)

// PatchConfig copies the game's prepared configuration files from srcDir into
// systemDir, replacing the defaults shipped on the disc. Every file is
// attempted; each failure is logged and all of them are returned joined.
func PatchConfig(game games.GameConfig, srcDir, systemDir string, logger hclog.Logger) error {
	var errs []error
	for _, name := range game.ConfigFiles {
		if err := copyFile(filepath.Join(srcDir, name), filepath.Join(systemDir, name)); err != nil {
			logger.Warn(fmt.Sprintf("Failed copy %s to %s", name, systemDir), "error", err)
			errs = append(errs, fmt.Errorf("failed to install %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// IsInstalled reports whether a previous run in workDir completed
func IsInstalled(workDir string) bool {
	return sentinel.Exists(workDir, sentinel.Installed)
}
