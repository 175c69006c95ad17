// Package installer runs the whole installation: fetch the disc image and
// the community patch, unpack both, expand compressed packages, install
// configuration and clean up.
package installer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"

	"github.com/distantorigin/unreal-installer/internal/download"
	"github.com/distantorigin/unreal-installer/internal/games"
	"github.com/distantorigin/unreal-installer/internal/github"
	"github.com/distantorigin/unreal-installer/internal/install"
	"github.com/distantorigin/unreal-installer/internal/manifest"
	"github.com/distantorigin/unreal-installer/internal/osver"
	"github.com/distantorigin/unreal-installer/internal/paths"
	"github.com/distantorigin/unreal-installer/internal/process"
	"github.com/distantorigin/unreal-installer/internal/sentinel"
	"github.com/distantorigin/unreal-installer/internal/shortcut"
	"github.com/distantorigin/unreal-installer/internal/verify"
	"github.com/distantorigin/unreal-installer/internal/version"
)

const (
	// SkipListFile lists disc image entries 7-Zip must leave out
	SkipListFile = "skip.txt"

	progressTitle = "Unpacking game files... "
	spacerLines   = 20
)

// Options selects what to install and where
type Options struct {
	Game games.GameConfig

	// WorkDir holds downloads, marker files and prepared configuration
	WorkDir string

	// InstallDir receives the game; defaults to the parent of WorkDir
	InstallDir string

	// ToolsDir holds 7z and wget; defaults to WorkDir/tools
	ToolsDir string

	Strict   bool
	Shortcut bool
}

// Installer carries the options and the collaborators of a run. Nil
// collaborators are replaced with working defaults by New.
type Installer struct {
	Options

	Downloader download.Downloader
	Runner     process.Runner
	Logger     hclog.Logger

	// Title shows the current stage, e.g. in the console window title
	Title func(string)

	// DetectOS returns the operating system version string
	DetectOS func() (string, error)

	// Spacer writes n raw blank lines to the log
	Spacer func(n int)

	// CreateShortcut places a desktop link to the game
	CreateShortcut func(name, target, workDir, description string) error
}

// New creates an Installer with defaults for everything not set in opts
func New(opts Options) *Installer {
	in := &Installer{Options: opts}
	in.setDefaults()
	return in
}

func (in *Installer) setDefaults() {
	if in.WorkDir == "" {
		in.WorkDir = "."
	}
	if in.InstallDir == "" {
		in.InstallDir = filepath.Join(in.WorkDir, "..")
	}
	if in.ToolsDir == "" {
		in.ToolsDir = filepath.Join(in.WorkDir, "tools")
	}
	if in.Logger == nil {
		in.Logger = hclog.NewNullLogger()
	}
	if in.Runner == nil {
		in.Runner = process.Logged(process.ExecRunner{}, in.Logger)
	}
	if in.Downloader == nil {
		in.Downloader = download.NewHTTPDownloader(github.UserAgent(version.Current().String()))
	}
	if in.DetectOS == nil {
		in.DetectOS = osver.Detect
	}
	if in.CreateShortcut == nil {
		in.CreateShortcut = shortcut.Create
	}
}

func (in *Installer) title(t string) {
	in.Logger.Info(t)
	if in.Title != nil {
		in.Title(t)
	}
}

// Run performs the installation. The "closed" marker exists for the whole
// run and "installed" is created only when every stage succeeded.
func (in *Installer) Run(ctx context.Context) (err error) {
	in.setDefaults()
	log := in.Logger

	log.Info(version.Current().Banner())
	in.title("Loading...")
	if err := sentinel.Begin(in.WorkDir); err != nil {
		return err
	}
	defer func() {
		if err != nil {
			log.Error(err.Error())
		}
		log.Info("Installer exit.")
		if endErr := sentinel.End(in.WorkDir); endErr != nil && err == nil {
			err = endErr
		}
	}()

	game := in.Game
	fetcher := &download.Fetcher{Dir: in.WorkDir, Downloader: in.Downloader, Logger: log}

	in.title("Downloading game ISO...")
	if err := fetcher.EnsureFile(ctx, game.ISOURL, game.ISOSize, true); err != nil {
		return err
	}

	ver, detectErr := in.DetectOS()
	if detectErr != nil {
		log.Warn("failed to detect OS version", "error", detectErr)
	}
	log.Info("Detected Windows version: " + ver)
	legacy := osver.LegacyTarget(game, ver)
	log.Info(osver.Describe(legacy))

	in.title("Downloading patch releases list...")
	resolver := &manifest.Resolver{Fetcher: fetcher, Logger: log}
	res, err := resolver.Resolve(ctx, game.PatchURL, game.PatchFallbackURL, legacy)
	if err != nil {
		return err
	}

	in.title("Downloading patch ZIP...")
	patchURL := res.Asset.BrowserDownloadURL
	if err := fetcher.EnsureFile(ctx, patchURL, res.Asset.Size, true); err != nil {
		return err
	}
	isoPath, err := fetcher.Path(game.ISOURL)
	if err != nil {
		return err
	}
	patchPath, err := fetcher.Path(patchURL)
	if err != nil {
		return err
	}

	downloaded := []string{res.ManifestFile, filepath.Base(isoPath), filepath.Base(patchPath)}
	if game.MinisignKey != "" {
		sigFile, err := in.verifyPatch(ctx, fetcher, res, patchPath)
		if err != nil {
			return err
		}
		if sigFile != "" {
			downloaded = append(downloaded, sigFile)
		}
	}

	extractor := &install.Extractor{
		Runner:    in.Runner,
		Archiver:  filepath.Join(in.ToolsDir, "7z"),
		OutputDir: in.InstallDir,
		Strict:    in.Strict,
	}
	if skip := filepath.Join(in.WorkDir, SkipListFile); paths.Exists(skip) {
		extractor.SkipList = skip
	}

	in.title("Unpacking game ISO...")
	if err := extractor.ExtractImage(ctx, isoPath); err != nil {
		return download.Abortf("Failed unpack %s: %v. Abort.", filepath.Base(isoPath), err)
	}

	in.title("Unpacking patch ZIP...")
	if err := extractor.ExtractPatch(ctx, patchPath); err != nil {
		return download.Abortf("Failed unpack %s: %v. Abort.", filepath.Base(patchPath), err)
	}

	systemDir := filepath.Join(in.InstallDir, "System")
	in.title(progressTitle)
	decompressor := &install.Decompressor{
		Runner:    in.Runner,
		Tool:      filepath.Join(systemDir, "ucc"),
		Root:      in.InstallDir,
		SharedDir: systemDir,
		Strict:    in.Strict,
		Logger:    log,
		Progress: func(p float64) {
			in.title(progressTitle + install.FormatPercent(p) + "%")
		},
	}
	stats, err := decompressor.Run(ctx)
	if err != nil {
		return download.Abortf("Failed unpack game files: %v. Abort.", err)
	}
	log.Debug("game files unpacked", "total", stats.Total, "skipped", stats.Skipped,
		"decompressed", stats.Decompressed, "failed", stats.Failed)

	in.title("Alter game configuration...")
	if err := install.PatchConfig(game, in.WorkDir, systemDir, log); err != nil && in.Strict {
		return download.Abortf("Failed alter game configuration: %v. Abort.", err)
	}

	in.title("Remove downloaded files...")
	for _, name := range downloaded {
		if err := os.Remove(filepath.Join(in.WorkDir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Warn("failed to remove downloaded file", "file", name, "error", err)
		}
	}

	if in.Shortcut {
		in.placeShortcut(game)
	}

	in.title("Game installed")
	log.Info("Game installed")
	if in.Spacer != nil {
		in.Spacer(spacerLines)
	}

	if err := sentinel.Touch(in.WorkDir, sentinel.Installed); err != nil {
		return err
	}
	log.Info("Game installed sucessfully.")
	return nil
}

// verifyPatch checks the patch archive against its published minisign
// signature and returns the signature's file name
func (in *Installer) verifyPatch(ctx context.Context, fetcher *download.Fetcher, res *manifest.Resolution, patchPath string) (string, error) {
	sig, ok := github.FindSignature(res.Release.Assets, res.Asset.Name)
	if !ok {
		in.Logger.Warn("release publishes no signature, skipping verification", "asset", res.Asset.Name)
		return "", nil
	}
	if err := fetcher.EnsureFile(ctx, sig.BrowserDownloadURL, download.UnknownSize, true); err != nil {
		return "", err
	}
	sigPath, err := fetcher.Path(sig.BrowserDownloadURL)
	if err != nil {
		return "", err
	}
	if err := verify.File(patchPath, sigPath, in.Game.MinisignKey); err != nil {
		return "", download.Abortf("Signature check of %s failed: %v. Abort.", filepath.Base(patchPath), err)
	}
	in.Logger.Info(fmt.Sprintf("Signature of %s verified.", filepath.Base(patchPath)))
	return filepath.Base(sigPath), nil
}

func (in *Installer) placeShortcut(game games.GameConfig) {
	if game.Executable == "" {
		return
	}
	target := filepath.Join(in.InstallDir, filepath.FromSlash(game.Executable))
	name := game.Title
	if name == "" {
		name = game.ID
	}
	err := in.CreateShortcut(name, target, filepath.Dir(target), "Play "+name)
	if err != nil {
		in.Logger.Warn("failed to create desktop shortcut", "error", err)
		return
	}
	in.Logger.Info("Desktop shortcut created", "name", name)
}
