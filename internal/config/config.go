// Package config loads the YAML gateway configuration.
//
// Values of the form ${VAR} and ${VAR:-default} are replaced with
// environment variables before parsing; $$ escapes a dollar sign.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrNoSubschemas is returned for a configuration without subschemas.
var ErrNoSubschemas = errors.New("config: at least one subschema is required")

type Config struct {
	Server     Server      `yaml:"server"`
	Log        Log         `yaml:"log"`
	Otel       Otel        `yaml:"otel"`
	Subschemas []Subschema `yaml:"subschemas"`
	Links      []Link      `yaml:"links"`

	// dir resolves relative sdlFile paths.
	dir string
}

type Server struct {
	Addr           string   `yaml:"addr"`
	Timeout        Duration `yaml:"timeout"`
	Pretty         bool     `yaml:"pretty"`
	GraphiQL       bool     `yaml:"graphiql"`
	MaxBodyBytes   int64    `yaml:"maxBodyBytes"`
	CORS           []string `yaml:"cors"`
	ForwardHeaders []string `yaml:"forwardHeaders"`
	// DocumentCache is the number of parsed documents kept in memory.
	DocumentCache int `yaml:"documentCache"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

type Otel struct {
	Endpoint string `yaml:"endpoint"`
	Service  string `yaml:"service"`
}

type Subschema struct {
	Name     string `yaml:"name"`
	Endpoint string `yaml:"endpoint"`
	// SDL or SDLFile provide the schema. The endpoint is introspected when
	// both are empty.
	SDL        string            `yaml:"sdl"`
	SDLFile    string            `yaml:"sdlFile"`
	Timeout    Duration          `yaml:"timeout"`
	Headers    map[string]string `yaml:"headers"`
	Breaker    *Breaker          `yaml:"breaker"`
	Transforms []Transform       `yaml:"transforms"`
}

type Breaker struct {
	Threshold int      `yaml:"threshold"`
	Timeout   Duration `yaml:"timeout"`
}

// Transform is one step of a subschema's transform chain. Exactly one field
// is set.
type Transform struct {
	RenameTypes  map[string]string            `yaml:"renameTypes"`
	RenameFields map[string]map[string]string `yaml:"renameFields"`
	FilterFields map[string][]string          `yaml:"filterFields"`
	HoistField   *Hoist                       `yaml:"hoistField"`
	HoistFields  *Hoist                       `yaml:"hoistFields"`
}

type Hoist struct {
	Type   string   `yaml:"type"`
	Target string   `yaml:"target"`
	Path   []string `yaml:"path"`
}

type Link struct {
	Type      string `yaml:"type"`
	Field     string `yaml:"field"`
	Subschema string `yaml:"subschema"`
	RootField string `yaml:"rootField"`
	KeyField  string `yaml:"keyField"`
	Argument  string `yaml:"argument"`
	List      bool   `yaml:"list"`
}

// Load reads, parses and validates the configuration file at path.
func Load(path string) (*Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %s: %w", path, err)
	}
	data, err := os.ReadFile(abs) //nolint:gosec // operator supplied path
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c.dir = filepath.Dir(abs)
	return c, nil
}

// Parse parses and validates a configuration document and applies defaults.
func Parse(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal([]byte(substituteEnv(string(data))), &c); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	c.setDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) setDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.Timeout == 0 {
		c.Server.Timeout = Duration(10 * time.Second)
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = 1 << 20
	}
	if c.Server.DocumentCache == 0 {
		c.Server.DocumentCache = 1000
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Log.Output == "" {
		c.Log.Output = "stderr"
	}
	if c.Otel.Service == "" {
		c.Otel.Service = "graphstitch"
	}
	for i := range c.Subschemas {
		s := &c.Subschemas[i]
		if s.Timeout == 0 {
			s.Timeout = Duration(5 * time.Second)
		}
		if s.Breaker != nil && s.Breaker.Timeout == 0 {
			s.Breaker.Timeout = Duration(30 * time.Second)
		}
	}
}

// Validate checks the configuration. Errors name the offending entry.
func (c *Config) Validate() error {
	if len(c.Subschemas) == 0 {
		return ErrNoSubschemas
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format: unknown format %q", c.Log.Format)
	}
	switch c.Log.Output {
	case "stdout", "stderr":
	default:
		return fmt.Errorf("log.output: unknown output %q", c.Log.Output)
	}

	names := map[string]bool{}
	for i, s := range c.Subschemas {
		where := fmt.Sprintf("subschemas[%d]", i)
		if s.Name == "" {
			return fmt.Errorf("%s: name is required", where)
		}
		where = fmt.Sprintf("subschemas[%d] (%s)", i, s.Name)
		if names[s.Name] {
			return fmt.Errorf("%s: duplicate name", where)
		}
		names[s.Name] = true
		if s.Endpoint == "" {
			return fmt.Errorf("%s: endpoint is required", where)
		}
		if s.SDL != "" && s.SDLFile != "" {
			return fmt.Errorf("%s: sdl and sdlFile are mutually exclusive", where)
		}
		if s.Breaker != nil && s.Breaker.Threshold <= 0 {
			return fmt.Errorf("%s: breaker.threshold must be positive", where)
		}
		for j, t := range s.Transforms {
			if err := t.validate(); err != nil {
				return fmt.Errorf("%s: transforms[%d]: %w", where, j, err)
			}
		}
	}

	for i, l := range c.Links {
		where := fmt.Sprintf("links[%d]", i)
		if l.Type != "" && l.Field != "" {
			where = fmt.Sprintf("links[%d] (%s.%s)", i, l.Type, l.Field)
		}
		for _, req := range []struct{ name, value string }{
			{"type", l.Type},
			{"field", l.Field},
			{"subschema", l.Subschema},
			{"rootField", l.RootField},
			{"keyField", l.KeyField},
			{"argument", l.Argument},
		} {
			if req.value == "" {
				return fmt.Errorf("%s: %s is required", where, req.name)
			}
		}
		if !names[l.Subschema] {
			return fmt.Errorf("%s: unknown subschema %q", where, l.Subschema)
		}
	}
	return nil
}

// ReadSDL returns the configured SDL of the i-th subschema, reading sdlFile
// relative to the configuration file. An empty result means the schema is
// to be introspected.
func (c *Config) ReadSDL(i int) (string, error) {
	s := c.Subschemas[i]
	if s.SDLFile == "" {
		return s.SDL, nil
	}
	path := s.SDLFile
	if !filepath.IsAbs(path) && c.dir != "" {
		path = filepath.Join(c.dir, path)
	}
	data, err := os.ReadFile(path) //nolint:gosec // operator supplied path
	if err != nil {
		return "", fmt.Errorf("subschema %s: failed to read sdl file: %w", s.Name, err)
	}
	return string(data), nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

const escapedDollar = "\x00ESCAPED_DOLLAR\x00"

func substituteEnv(content string) string {
	content = strings.ReplaceAll(content, "$$", escapedDollar)
	content = envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		sub := envVarPattern.FindStringSubmatch(match)
		if v, ok := os.LookupEnv(sub[1]); ok {
			return v
		}
		return sub[2]
	})
	return strings.ReplaceAll(content, escapedDollar, "$")
}
