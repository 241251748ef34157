package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rmuhamedgaliev/arcana/internal/story"
)

// storyFile is the declarative on-disk schema for one game. The same
// shape is accepted as YAML and as JSON.
type storyFile struct {
	ID                string            `yaml:"id" json:"id"`
	DefaultLanguage   string            `yaml:"default_language" json:"defaultLanguage"`
	Title             map[string]string `yaml:"title" json:"title"`
	Description       map[string]string `yaml:"description" json:"description"`
	InitialAttributes map[string]int    `yaml:"initial_attributes" json:"initialAttributes"`
	Attributes        map[string]string `yaml:"attributes" json:"attributes"`
	StartScene        string            `yaml:"start_scene" json:"startScene"`
	Scenes            []sceneFile       `yaml:"scenes" json:"scenes"`
}

type sceneFile struct {
	ID      string            `yaml:"id" json:"id"`
	Text    map[string]string `yaml:"text" json:"text"`
	End     bool              `yaml:"end" json:"end"`
	Effects map[string]string `yaml:"effects" json:"effects"`
	Options []optionFile      `yaml:"options" json:"options"`
}

type optionFile struct {
	Text      map[string]string `yaml:"text" json:"text"`
	Next      string            `yaml:"next" json:"next"`
	Condition string            `yaml:"condition" json:"condition"`
}

// LoadDir loads every story file (*.yaml, *.yml, *.json) in dir into a
// catalog. A malformed file is logged and skipped so one broken game
// cannot take down the rest; the error is non-nil only when the
// directory itself cannot be read.
func LoadDir(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("catalog: read dir %q: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml", ".json":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var games []*story.Game
	for _, name := range names {
		path := filepath.Join(dir, name)
		g, err := LoadFile(path)
		if err != nil {
			slog.Warn("catalog: skipping story file", "path", path, "err", err)
			continue
		}
		games = append(games, g)
		slog.Info("catalog: loaded game", "id", g.ID, "scenes", g.SceneCount(), "path", path)
	}
	return New(games), nil
}

// LoadFile loads and validates a single story file.
func LoadFile(path string) (*story.Game, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %q: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return LoadJSON(f)
	default:
		return LoadYAML(f)
	}
}

// LoadYAML decodes one YAML story from r. Decoding is strict: unknown
// fields are an error, which catches schema typos at load time.
func LoadYAML(r io.Reader) (*story.Game, error) {
	var sf storyFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&sf); err != nil {
		return nil, fmt.Errorf("catalog: decode yaml: %w", err)
	}
	return build(sf)
}

// LoadJSON decodes one JSON story from r. JSON is the original wire
// shape; unknown fields are tolerated.
func LoadJSON(r io.Reader) (*story.Game, error) {
	var sf storyFile
	if err := json.NewDecoder(r).Decode(&sf); err != nil {
		return nil, fmt.Errorf("catalog: decode json: %w", err)
	}
	return build(sf)
}

// build converts the file schema into an immutable game graph and
// validates its integrity.
func build(sf storyFile) (*story.Game, error) {
	if sf.ID == "" {
		return nil, fmt.Errorf("catalog: story id is required")
	}
	if len(sf.Scenes) == 0 {
		return nil, fmt.Errorf("catalog: story %q has no scenes", sf.ID)
	}

	defaultLang := story.ParseLanguage(sf.DefaultLanguage)

	g := story.NewGame(sf.ID,
		localize(sf.Title, defaultLang),
		localize(sf.Description, defaultLang),
		sf.StartScene,
	)
	for k, v := range sf.InitialAttributes {
		g.InitialAttributes[k] = v
	}
	for k, v := range sf.Attributes {
		g.Attributes[k] = v
	}

	for _, sc := range sf.Scenes {
		if sc.ID == "" {
			return nil, fmt.Errorf("catalog: story %q has a scene without an id", sf.ID)
		}
		effects, effErrs := story.ParseEffects(sc.Effects)
		for _, err := range effErrs {
			// Per-key failure: skip the single effect, keep the scene.
			slog.Warn("catalog: skipping malformed effect", "game", sf.ID, "scene", sc.ID, "err", err)
		}

		options := make([]story.Option, 0, len(sc.Options))
		for _, of := range sc.Options {
			options = append(options, story.NewOption(localize(of.Text, defaultLang), of.Next, of.Condition))
		}

		g.AddScene(&story.Scene{
			ID:      sc.ID,
			Text:    localize(sc.Text, defaultLang),
			Options: options,
			End:     sc.End,
			Effects: effects,
		})
	}

	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("catalog: story %q: %w", sf.ID, err)
	}
	return g, nil
}

// localize converts a language-code→text map into a LocalizedText.
// Entries for unsupported languages are dropped with a warning rather
// than silently claiming another locale's slot.
func localize(texts map[string]string, defaultLang story.Language) *story.LocalizedText {
	lt := story.NewLocalizedText(defaultLang)
	for code, text := range texts {
		lang := story.Language(strings.ToLower(strings.TrimSpace(code)))
		if !lang.IsValid() {
			slog.Warn("catalog: dropping text for unsupported language", "language", code)
			continue
		}
		lt.Set(lang, text)
	}
	return lt
}
