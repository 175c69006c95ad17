package github

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Markers in release asset names
const (
	WindowsMarker = "-Windows"
	LegacyMarker  = "-WindowsXP"
	ZipMarker     = ".zip"

	// SignatureExt ends the name of a detached minisign signature
	SignatureExt = ".minisig"
)

var (
	ErrInvalidJSON    = errors.New("invalid JSON")
	ErrAssetsNotFound = errors.New("assets not found")
	ErrAssetsEmpty    = errors.New("assets empty")
	ErrMalformedAsset = errors.New("malformed asset")
)

// Release represents a GitHub release
type Release struct {
	TagName string  `json:"tag_name"`
	Name    string  `json:"name"`
	Assets  []Asset `json:"assets"`
}

// Asset represents a file attached to a release
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               int64  `json:"size"`

	raw interface{}
}

const assetSchema = `{
  "type": "object",
  "required": ["name", "browser_download_url"],
  "properties": {
    "name": {"type": "string"},
    "browser_download_url": {"type": "string", "minLength": 1},
    "size": {"type": "integer", "minimum": 0}
  }
}`

var compileAssetSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(assetSchema))
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("asset.json", doc); err != nil {
		return nil, err
	}
	return c.Compile("asset.json")
})

// ParseRelease decodes a release manifest. Failures wrap ErrInvalidJSON,
// ErrAssetsNotFound, ErrAssetsEmpty or ErrMalformedAsset. Individual assets
// are checked later with Validate.
func ParseRelease(data []byte) (*Release, error) {
	raw, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if isEmpty(raw) {
		return nil, fmt.Errorf("%w: document is empty", ErrInvalidJSON)
	}

	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil, ErrAssetsNotFound
	}
	assets, ok := obj["assets"]
	if !ok || assets == nil {
		return nil, ErrAssetsNotFound
	}
	if isEmpty(assets) {
		return nil, ErrAssetsEmpty
	}
	list, ok := assets.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: assets is not a list", ErrMalformedAsset)
	}

	release := &Release{}
	release.TagName, _ = obj["tag_name"].(string)
	release.Name, _ = obj["name"].(string)
	for _, item := range list {
		release.Assets = append(release.Assets, newAsset(item))
	}
	return release, nil
}

// newAsset reads the known fields of a decoded asset, leaving mistyped ones empty
func newAsset(v interface{}) Asset {
	a := Asset{raw: v}
	m, _ := v.(map[string]interface{})
	a.Name, _ = m["name"].(string)
	a.BrowserDownloadURL, _ = m["browser_download_url"].(string)
	if n, ok := m["size"].(json.Number); ok {
		a.Size, _ = n.Int64()
	}
	return a
}

// Validate checks a parsed asset against the asset schema. Assets not
// produced by ParseRelease always pass.
func (a Asset) Validate() error {
	if a.raw == nil {
		return nil
	}
	schema, err := compileAssetSchema()
	if err != nil {
		return fmt.Errorf("failed to compile asset schema: %w", err)
	}
	if err := schema.Validate(a.raw); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedAsset, a.Name, err)
	}
	return nil
}

// isEmpty treats null, false, zero, "" and empty containers as empty
func isEmpty(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return !t
	case json.Number:
		f, err := t.Float64()
		return err == nil && f == 0
	case string:
		return t == "" || t == "0"
	case []interface{}:
		return len(t) == 0
	case map[string]interface{}:
		return len(t) == 0
	}
	return false
}

// hasMarker reports whether marker occurs after the first character of name.
func hasMarker(name, marker string) bool {
	return strings.Index(name, marker) > 0
}

// MatchesPlatform reports whether an asset is a Windows ZIP build for the
// requested generation (legacy means the Windows XP build). Signatures of
// such builds never match.
func MatchesPlatform(name string, legacy bool) bool {
	return !strings.HasSuffix(name, SignatureExt) &&
		hasMarker(name, WindowsMarker) &&
		hasMarker(name, ZipMarker) &&
		hasMarker(name, LegacyMarker) == legacy
}

// SelectAsset scans assets and returns the last one matching the platform
func SelectAsset(assets []Asset, legacy bool) (Asset, bool) {
	var selected Asset
	found := false
	for _, asset := range assets {
		if MatchesPlatform(asset.Name, legacy) {
			selected = asset
			found = true
		}
	}
	return selected, found
}

// FindSignature returns the minisign signature published for name, if any
func FindSignature(assets []Asset, name string) (Asset, bool) {
	for _, asset := range assets {
		if asset.Name == name+SignatureExt {
			return asset, true
		}
	}
	return Asset{}, false
}

// TokenFromEnv returns the GitHub token used to lift API rate limits
func TokenFromEnv() string {
	if tok := strings.TrimSpace(os.Getenv("INSTALLER_GITHUB_TOKEN")); tok != "" {
		return tok
	}
	return strings.TrimSpace(os.Getenv("GITHUB_TOKEN"))
}

// UserAgent builds the User-Agent sent with every request
func UserAgent(version string) string {
	return fmt.Sprintf("unreal-installer/%s", version)
}

// IsAPIURL reports whether rawURL points at the GitHub REST API
func IsAPIURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	return err == nil && strings.EqualFold(u.Hostname(), "api.github.com")
}

// IsGitHubURL reports whether rawURL points at GitHub or its API
func IsGitHubURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == "github.com" || host == "api.github.com" || strings.HasSuffix(host, ".github.com")
}
