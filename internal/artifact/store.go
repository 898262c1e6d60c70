// internal/artifact/store.go
//
// When a run succeeds, the loop hands the accepted candidate here. The
// store writes the parser source next to a YAML check manifest recording
// the inputs it was verified against, so the parser can be re-verified
// later without regenerating it.

package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Manifest records how an accepted parser was produced and checked.
type Manifest struct {
	Target    string    `yaml:"target"`
	RunID     string    `yaml:"run_id"`
	Provider  string    `yaml:"provider"`
	Attempts  int       `yaml:"attempts"`
	CreatedAt time.Time `yaml:"created"`
	DocPath   string    `yaml:"document"`
	TablePath string    `yaml:"table"`
	Parser    string    `yaml:"parser"`
}

// Store persists accepted parsers under a single directory.
type Store struct {
	dir string
	now func() time.Time
}

// StoreOption customizes a Store during construction.
type StoreOption func(*Store)

// WithClock overrides the clock used for manifest timestamps.
func WithClock(clock func() time.Time) StoreOption {
	return func(s *Store) {
		if clock != nil {
			s.now = clock
		}
	}
}

// NewStore builds a store rooted at dir.
func NewStore(dir string, opts ...StoreOption) *Store {
	store := &Store{dir: dir, now: time.Now}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// ParserPath returns where the accepted parser for a target lives.
func (s *Store) ParserPath(target string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_parser.go", sanitize(target)))
}

// ManifestPath returns where the check manifest for a target lives.
func (s *Store) ManifestPath(target string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_check.yaml", sanitize(target)))
}

// SaveAccepted writes the parser source and its manifest. The manifest's
// Parser and CreatedAt fields are filled in here.
func (s *Store) SaveAccepted(manifest Manifest, source string) (string, error) {
	if strings.TrimSpace(manifest.Target) == "" {
		return "", fmt.Errorf("artifact: target is required")
	}
	if strings.TrimSpace(source) == "" {
		return "", fmt.Errorf("artifact: refusing to save empty parser for %s", manifest.Target)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("artifact: ensure parsers dir: %w", err)
	}
	parserPath := s.ParserPath(manifest.Target)
	if !strings.HasSuffix(source, "\n") {
		source += "\n"
	}
	if err := os.WriteFile(parserPath, []byte(source), 0o644); err != nil {
		return "", fmt.Errorf("artifact: write parser: %w", err)
	}

	manifest.Parser = parserPath
	manifest.CreatedAt = s.now().UTC()
	encoded, err := yaml.Marshal(manifest)
	if err != nil {
		return "", fmt.Errorf("artifact: encode manifest: %w", err)
	}
	if err := os.WriteFile(s.ManifestPath(manifest.Target), encoded, 0o644); err != nil {
		return "", fmt.Errorf("artifact: write manifest: %w", err)
	}
	return parserPath, nil
}

// LoadManifest reads the check manifest for a target.
func (s *Store) LoadManifest(target string) (Manifest, error) {
	path := s.ManifestPath(target)
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("artifact: read manifest %s: %w", path, err)
	}
	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return Manifest{}, fmt.Errorf("artifact: parse manifest %s: %w", path, err)
	}
	if manifest.Target == "" || manifest.Parser == "" {
		return Manifest{}, fmt.Errorf("artifact: manifest %s is incomplete", path)
	}
	return manifest, nil
}

// LoadParser reads the accepted parser source recorded in a manifest.
func (s *Store) LoadParser(manifest Manifest) (string, error) {
	data, err := os.ReadFile(manifest.Parser)
	if err != nil {
		return "", fmt.Errorf("artifact: read parser %s: %w", manifest.Parser, err)
	}
	return string(data), nil
}

func sanitize(target string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '_'
		}
	}, strings.TrimSpace(target))
	return cleaned
}
