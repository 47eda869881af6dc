package sailfish

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

// Config holds the compile-time options recognized globally.
// Grounded on pongo2's pongo2Options/Options split
// (pongo2_options.go): a package-level default plus per-template
// overrides, generalized from pongo2's single debug flag to the full
// delimiter/escape/whitespace/template-root surface a template compiler needs.
type Config struct {
	Delimiter    rune
	Escape       bool
	RMWhitespace bool
	RMNewline    bool
	TemplateDirs []string
	Debug        bool
}

// DefaultConfig returns the documented defaults: delimiter '%', escaping
// on, whitespace/newline stripping off.
func DefaultConfig() *Config {
	return &Config{
		Delimiter: DefaultDelimiter,
		Escape:    true,
	}
}

// TemplateConfig attaches to a single template type at the derive-attribute
// boundary, and overrides whichever fields it sets; a nil field falls
// through to the global Config.
type TemplateConfig struct {
	Delimiter    *rune
	Escape       *bool
	RMWhitespace *bool
	RMNewline    *bool
}

// Resolve merges t's overrides onto g, returning a new, fully-resolved
// Config. A nil t resolves to a copy of g unchanged.
func (g *Config) Resolve(t *TemplateConfig) *Config {
	resolved := *g
	if t == nil {
		return &resolved
	}
	if t.Delimiter != nil {
		resolved.Delimiter = *t.Delimiter
	}
	if t.Escape != nil {
		resolved.Escape = *t.Escape
	}
	if t.RMWhitespace != nil {
		resolved.RMWhitespace = *t.RMWhitespace
	}
	if t.RMNewline != nil {
		resolved.RMNewline = *t.RMNewline
	}
	return &resolved
}

// fileConfig mirrors the on-disk sailfish.yml/sailfish.yaml schema.
type fileConfig struct {
	TemplateDirs  []string `yaml:"template_dirs"`
	Delimiter     string   `yaml:"delimiter"`
	Escape        *bool    `yaml:"escape"`
	Optimizations struct {
		RMWhitespace *bool `yaml:"rm_whitespace"`
	} `yaml:"optimizations"`
}

// LoadConfigFile walks from anchor toward the filesystem root, merging
// each directory's sailfish.yml (or, if that is absent, its sailfish.yaml)
// into base -- the directory closest to anchor is applied last and so wins.
func LoadConfigFile(base *Config, anchor string) (*Config, error) {
	dirs, err := candidateDirs(anchor)
	if err != nil {
		return nil, WrapIOError(err)
	}

	merged := *base
	for i := len(dirs) - 1; i >= 0; i-- {
		fc, found, err := readConfigFile(dirs[i])
		if err != nil {
			return nil, err
		}
		if found {
			applyFileConfig(&merged, fc)
		}
	}
	return &merged, nil
}

func candidateDirs(anchor string) ([]string, error) {
	abs, err := filepath.Abs(anchor)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for dir := abs; ; {
		dirs = append(dirs, dir)
		parent := filepath.Dir(dir)
		if parent == dir {
			return dirs, nil
		}
		dir = parent
	}
}

func readConfigFile(dir string) (*fileConfig, bool, error) {
	for _, name := range [...]string{"sailfish.yml", "sailfish.yaml"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, false, WrapIOError(err)
		}
		var fc fileConfig
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, false, ConfigErrorf("%s: %v", filepath.Join(dir, name), err)
		}
		return &fc, true, nil
	}
	return nil, false, nil
}

func applyFileConfig(c *Config, fc *fileConfig) {
	for _, d := range fc.TemplateDirs {
		c.TemplateDirs = append(c.TemplateDirs, expandEnv(d))
	}
	if fc.Delimiter != "" {
		if r := []rune(fc.Delimiter); len(r) > 0 {
			c.Delimiter = r[0]
		}
	}
	if fc.Escape != nil {
		c.Escape = *fc.Escape
	}
	if fc.Optimizations.RMWhitespace != nil {
		c.RMWhitespace = *fc.Optimizations.RMWhitespace
	}
}

// expandEnv expands "${NAME}" environment-variable references found in a
// template_dirs entry.
func expandEnv(s string) string {
	return os.Expand(s, os.Getenv)
}

// integrationTestEnvVar opts a test run into an extra template root, for
// fixture-backed integration tests that need real files on disk.
const integrationTestEnvVar = "SAILFISH_INTEGRATION_TESTS"

// IntegrationTestRoot returns fixtureDir when SAILFISH_INTEGRATION_TESTS=1
// is set, or "" otherwise.
func IntegrationTestRoot(fixtureDir string) string {
	if os.Getenv(integrationTestEnvVar) == "1" {
		return fixtureDir
	}
	return ""
}
