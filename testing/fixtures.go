package testing

import (
	"encoding/json"
	"testing"
)

// FixtureAsset describes a release asset in a generated manifest
type FixtureAsset struct {
	Name string
	URL  string
	Size int
}

// ReleaseJSON renders a GitHub release document with the given assets
func ReleaseJSON(t *testing.T, tag string, assets ...FixtureAsset) []byte {
	t.Helper()

	list := make([]map[string]interface{}, 0, len(assets))
	for _, a := range assets {
		list = append(list, map[string]interface{}{
			"name":                 a.Name,
			"browser_download_url": a.URL,
			"size":                 a.Size,
		})
	}
	data, err := json.MarshalIndent(map[string]interface{}{
		"tag_name": tag,
		"name":     "Patch " + tag,
		"assets":   list,
	}, "", "  ")
	if err != nil {
		t.Fatalf("failed to render release fixture: %v", err)
	}
	return data
}
