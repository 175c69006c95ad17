package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/distantorigin/unreal-installer/internal/audio"
	"github.com/distantorigin/unreal-installer/internal/console"
	"github.com/distantorigin/unreal-installer/internal/download"
	"github.com/distantorigin/unreal-installer/internal/games"
	"github.com/distantorigin/unreal-installer/internal/github"
	"github.com/distantorigin/unreal-installer/internal/installer"
	"github.com/distantorigin/unreal-installer/internal/logging"
	"github.com/distantorigin/unreal-installer/internal/process"
	"github.com/distantorigin/unreal-installer/internal/sentinel"
	"github.com/distantorigin/unreal-installer/internal/version"
)

var (
	workDirFlag    string
	installDirFlag string
	gamesFileFlag  string
	downloaderFlag string
	logFileFlag    string
	strictFlag     bool
	shortcutFlag   bool
	quietFlag      bool
	nonInteractive bool
	versionFlag    bool
	rootCmd        *cobra.Command
)

// errLogged wraps a failure that the installer already wrote to the log
var errLogged = errors.New("installation aborted")

func init() {
	rootCmd = &cobra.Command{
		Use:           "installer [game]",
		Short:         "Install Unreal, Unreal Gold or Unreal Tournament with the OldUnreal patch",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runInstall,
	}

	flags := rootCmd.Flags()
	flags.StringVar(&workDirFlag, "work-dir", "", "Installer directory holding tools, downloads and log (default: current directory)")
	flags.StringVar(&installDirFlag, "install-dir", "..", "Game directory, relative to the work directory")
	flags.StringVar(&gamesFileFlag, "games-file", "games.toml", "Optional TOML file overriding or adding games")
	flags.StringVar(&downloaderFlag, "downloader", "grab", "Download backend: grab (built in) or wget (tools/wget)")
	flags.StringVar(&logFileFlag, "log-file", "install.log", "Log file, relative to the work directory")
	flags.BoolVar(&strictFlag, "strict", false, "Abort when the archiver or decompressor reports a failure")
	flags.BoolVar(&shortcutFlag, "shortcut", false, "Create a desktop shortcut (Windows only)")
	flags.BoolVar(&quietFlag, "quiet", false, "Disable sounds")
	flags.BoolVar(&nonInteractive, "non-interactive", false, "Never wait for Enter and disable sounds")
	flags.BoolVar(&versionFlag, "version", false, "Show installer version and exit")
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			fatalError("Oops, something broke: %v", r)
		}
	}()

	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errLogged) {
			fatalError("")
		} else {
			fatalError("%v", err)
		}
	}
}

func runInstall(cmd *cobra.Command, args []string) error {
	if versionFlag {
		fmt.Printf("installer %s\n", version.Current())
		return nil
	}

	workDir := workDirFlag
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		workDir = wd
	}
	installDir := installDirFlag
	if !filepath.IsAbs(installDir) {
		installDir = filepath.Join(workDir, installDir)
	}

	log, err := logging.Open(filepath.Join(workDir, logFileFlag), os.Stdout)
	if err != nil {
		return err
	}
	defer log.Close()

	audio.Init(quietFlag || nonInteractive, log.Logger)

	// markers cover the whole run, game selection included
	if err := sentinel.Begin(workDir); err != nil {
		return err
	}
	defer sentinel.End(workDir)

	table := games.Builtin()
	if err := table.LoadOverrides(filepath.Join(workDir, gamesFileFlag)); err != nil {
		return err
	}
	var id string
	if len(args) > 0 {
		id = args[0]
	}
	game, err := table.Select(id)
	if err != nil {
		log.Error(err.Error())
		return errLogged
	}

	toolsDir := filepath.Join(workDir, "tools")
	runner := process.Logged(process.ExecRunner{}, log.Logger)
	downloader, err := newDownloader(runner, toolsDir)
	if err != nil {
		return err
	}

	in := installer.New(installer.Options{
		Game:       game,
		WorkDir:    workDir,
		InstallDir: installDir,
		ToolsDir:   toolsDir,
		Strict:     strictFlag,
		Shortcut:   shortcutFlag,
	})
	in.Logger = log.Logger
	in.Runner = runner
	in.Downloader = downloader
	in.Spacer = log.Spacer
	in.Title = func(title string) {
		if err := console.SetTitle(title); err != nil {
			log.Debug("failed to set console title", "error", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := in.Run(ctx); err != nil {
		return fmt.Errorf("%w: %v", errLogged, err)
	}
	audio.Play(audio.Success, 0)
	return nil
}

func newDownloader(runner process.Runner, toolsDir string) (download.Downloader, error) {
	switch downloaderFlag {
	case "grab", "":
		d := download.NewHTTPDownloader(github.UserAgent(version.Current().String()))
		if !quietFlag && !nonInteractive {
			d.Progress = printProgress
		}
		return d, nil
	case "wget":
		return &download.ToolDownloader{Runner: runner, Tool: filepath.Join(toolsDir, "wget")}, nil
	}
	return nil, fmt.Errorf("unknown downloader %q (want grab or wget)", downloaderFlag)
}

func printProgress(bytesComplete, totalBytes int64, percentage int) {
	fmt.Printf("\r  %3d%%  %s / %s bytes", percentage, download.HumanSize(bytesComplete), download.HumanSize(totalBytes))
	if percentage >= 100 {
		fmt.Println()
	}
}

func fatalError(format string, args ...interface{}) {
	// Play error sound to notify user
	audio.Play(audio.Failure, 0)

	if format != "" {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}

	// In interactive mode, wait for user to press Enter
	console.WaitForKey("\nPress Enter to exit...", nonInteractive)

	os.Exit(1)
}
