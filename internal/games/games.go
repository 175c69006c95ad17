package games

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// DefaultID is the game installed when no identifier is given
const DefaultID = "ut99"

// ErrUnknownGame is returned when the identifier is not in the table
var ErrUnknownGame = errors.New("unknown game")

// GameConfig describes where to get a game and its patch
type GameConfig struct {
	ID               string   `toml:"-"`
	ISOURL           string   `toml:"iso"`
	ISOSize          int64    `toml:"iso_size"`
	PatchURL         string   `toml:"patch"`
	PatchFallbackURL string   `toml:"patch_fallback"`
	LegacyBuilds     bool     `toml:"legacy_builds"`
	ConfigFiles      []string `toml:"config_files"`
	Executable       string   `toml:"executable"`
	Title            string   `toml:"title"`
	MinisignKey      string   `toml:"minisign_key"`
}

// HasFallback reports whether a second release manifest URL is available
func (g GameConfig) HasFallback() bool {
	return g.PatchFallbackURL != ""
}

// Table maps game identifiers to their configuration
type Table map[string]GameConfig

// Builtin returns the table of supported games
func Builtin() Table {
	return Table{
		"unreal": {
			ID:               "unreal",
			ISOURL:           "https://archive.org/download/gt-unreal-1998/Unreal.iso",
			ISOSize:          477050880,
			PatchURL:         "https://api.github.com/repos/OldUnreal/Unreal-testing/releases/latest",
			PatchFallbackURL: "https://api.github.com/repos/OldUnreal/Unreal-testing/releases/tags/v227k",
			Executable:       "System/Unreal.exe",
			Title:            "Unreal",
		},
		"ugold": {
			ID:               "ugold",
			ISOURL:           "https://archive.org/download/totallyunreal/UNREAL_GOLD.ISO",
			ISOSize:          676734976,
			PatchURL:         "https://api.github.com/repos/OldUnreal/Unreal-testing/releases/latest",
			PatchFallbackURL: "https://api.github.com/repos/OldUnreal/Unreal-testing/releases/tags/v227k",
			Executable:       "System/Unreal.exe",
			Title:            "Unreal Gold",
		},
		"ut99": {
			ID:           "ut99",
			ISOURL:       "https://archive.org/download/ut-goty/UT_GOTY_CD1.iso",
			ISOSize:      649633792,
			PatchURL:     "https://api.github.com/repos/OldUnreal/UnrealTournamentPatches/releases/latest",
			LegacyBuilds: true,
			ConfigFiles:  []string{"UnrealTournament.ini", "User.ini"},
			Executable:   "System/UnrealTournament.exe",
			Title:        "Unreal Tournament",
		},
	}
}

// Select returns the configuration for id, or the default game when id is empty
func (t Table) Select(id string) (GameConfig, error) {
	if id == "" {
		id = DefaultID
	}
	cfg, ok := t[id]
	if !ok {
		return GameConfig{}, fmt.Errorf("%w: %q (known: %s)", ErrUnknownGame, id, strings.Join(t.IDs(), ", "))
	}
	cfg.ID = id
	return cfg, nil
}

// IDs returns the known identifiers in sorted order
func (t Table) IDs() []string {
	ids := make([]string, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

type overridesFile struct {
	Games map[string]GameConfig `toml:"games"`
}

// LoadOverrides merges entries from a TOML file into the table.
// Entries replace built-in games with the same identifier. A missing file is not an error.
func (t Table) LoadOverrides(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to open games file: %w", err)
	}
	defer f.Close()

	var parsed overridesFile
	if err := toml.NewDecoder(f).DisallowUnknownFields().Decode(&parsed); err != nil {
		return fmt.Errorf("failed to parse games file %s: %w", path, err)
	}

	for id, cfg := range parsed.Games {
		if cfg.ISOURL == "" || cfg.PatchURL == "" {
			return fmt.Errorf("game %q in %s needs both iso and patch", id, path)
		}
		cfg.ID = id
		t[id] = cfg
	}
	return nil
}
