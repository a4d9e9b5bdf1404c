package catalog

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

type sourcesFile struct {
	Sources []Source `yaml:"sources"`
}

// LoadSources reads the curated source list from a YAML file. When the file
// does not exist the built-in default list is returned, so a fresh install
// scans something useful without any configuration.
func LoadSources(path string) ([]Source, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		slog.Info("Sources file not found, using built-in defaults", "path", path, "count", len(defaultSources))
		return defaultSources, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}

	var parsed sourcesFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse sources file: %w", err)
	}

	if len(parsed.Sources) == 0 {
		return nil, fmt.Errorf("sources file %s lists no sources", path)
	}

	for i, source := range parsed.Sources {
		if err := validateSource(source); err != nil {
			return nil, fmt.Errorf("invalid source at index %d: %w", i, err)
		}
	}

	return parsed.Sources, nil
}

func validateSource(source Source) error {
	switch source.Kind {
	case SourcePlaylist, SourceChart, SourceSearch:
	default:
		return fmt.Errorf("unknown kind %q", source.Kind)
	}
	if source.Ref == "" {
		return fmt.Errorf("ref is required")
	}
	if source.Name == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}

// defaultSources mirrors Apple's verified spatial audio playlists plus a few
// search terms that reliably surface Atmos content.
var defaultSources = []Source{
	{Kind: SourcePlaylist, Ref: "pl.ba2404fbc4464b8ba2d60399189cf24e", Name: "Hits in Spatial Audio"},
	{Kind: SourcePlaylist, Ref: "pl.cc74a5aec23942da9cf083c6c4344aee", Name: "Pop in Spatial Audio"},
	{Kind: SourcePlaylist, Ref: "pl.a82d7ac0ee854d8b8a95708c76210023", Name: "Rock in Spatial Audio"},
	{Kind: SourcePlaylist, Ref: "pl.3e9b112e3ffe4287b9fb785251545246", Name: "Hard Rock in Spatial Audio"},
	{Kind: SourcePlaylist, Ref: "pl.9ca5521e31c8408c97377a71030396d1", Name: "Electronic in Spatial Audio"},
	{Kind: SourcePlaylist, Ref: "pl.a0c765aa555e457c9666b2a201de5506", Name: "Hip-Hop in Spatial Audio"},
	{Kind: SourcePlaylist, Ref: "pl.efbd24628ff04ff3b5e416a6e237d753", Name: "Jazz in Spatial Audio"},
	{Kind: SourcePlaylist, Ref: "pl.ffea4bbea2d141cbb0ec67e32059b278", Name: "Classical in Spatial Audio"},
	{Kind: SourcePlaylist, Ref: "pl.924f9f9df2294b9c97f5e40d8862f7e7", Name: "Country in Spatial Audio"},
	{Kind: SourcePlaylist, Ref: "pl.4d2dbe3d55064021870291c2eb29bc72", Name: "K-Pop in Spatial Audio"},
	{Kind: SourcePlaylist, Ref: "pl.04a2d5c0ba2c4afa917241f1e22fa535", Name: "J-Pop in Spatial Audio"},
	{Kind: SourcePlaylist, Ref: "pl.c6287a0994a841e387f7f015948718f3", Name: "Ambient in Dolby Atmos"},
	{Kind: SourceChart, Ref: "pl.d25f5d1181894928af76c85c967f8f31", Name: "Top 100: USA"},
	{Kind: SourceChart, Ref: "pl.d3d10c32fbc540b38e266367dc8cb00c", Name: "Top 100: Global"},
	{Kind: SourceSearch, Ref: "dolby atmos", Name: "Atmos search"},
	{Kind: SourceSearch, Ref: "spatial audio", Name: "Spatial audio search"},
}
