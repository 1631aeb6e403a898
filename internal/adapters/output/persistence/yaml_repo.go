package persistence

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"gopkg.in/yaml.v3"

	"hs-as-ct/internal/domain/model"
)

// YAMLConfigRepository stores light definitions in a YAML file. JSON files
// written by older versions are valid YAML and load as well. Environment
// placeholders are expanded on read and not preserved by Save.
type YAMLConfigRepository struct {
	filepath string
	mu       sync.RWMutex
}

func NewYAMLConfigRepository(filepath string) *YAMLConfigRepository {
	return &YAMLConfigRepository{filepath: filepath}
}

// Get reads the file, expanding ${VAR} and ${VAR:default}. A missing file
// yields an empty configuration.
func (r *YAMLConfigRepository) Get(ctx context.Context) (*model.Config, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data, err := os.ReadFile(r.filepath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &model.Config{Lights: []*model.LightConfig{}}, nil
		}
		return nil, err
	}

	var doc document
	if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), &doc); err != nil {
		return nil, err
	}

	return doc.config(), nil
}

// Save writes config as YAML with mode 0600. Values are written as given:
// a file that used ${VAR} placeholders is rewritten with the expanded values,
// secrets included.
func (r *YAMLConfigRepository) Save(ctx context.Context, config *model.Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(r.filepath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	// Holds the access token
	return os.WriteFile(r.filepath, data, 0o600)
}

// document also accepts the single light form:
//
//	entity_id: light.desk_rgb
//	name: Desk
type document struct {
	model.Config `yaml:",inline"`

	EntityID string `yaml:"entity_id"`
	Name     string `yaml:"name"`
}

func (d document) config() *model.Config {
	cfg := d.Config
	if cfg.Lights == nil {
		cfg.Lights = []*model.LightConfig{}
	}
	if d.EntityID != "" && len(cfg.Lights) == 0 {
		cfg.Lights = append(cfg.Lights, &model.LightConfig{
			Name:     d.Name,
			EntityID: d.EntityID,
		})
	}
	return &cfg
}

var envPattern = regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

// expandEnvVars expands ${VAR} or ${VAR:default}.
func expandEnvVars(input string) string {
	return envPattern.ReplaceAllStringFunc(input, func(match string) string {
		parts := envPattern.FindStringSubmatch(match)
		if value, ok := os.LookupEnv(parts[1]); ok {
			return value
		}
		return parts[2]
	})
}
