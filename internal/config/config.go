// Package config loads project settings for the story CLI.
//
// Settings come from, highest priority first:
// 1. CLI flags
// 2. The project file (.story.yaml) in the working directory
// 3. Defaults
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/chriserin/story/internal/keywords"
)

const FileName = ".story.yaml"

// File is the on-disk shape of .story.yaml.
type File struct {
	// Dir holds the story documents, relative to the project root.
	Dir string `yaml:"dir,omitempty"`

	// Extension selects story files by suffix. Default: ".story"
	Extension string `yaml:"extension,omitempty"`

	// Database is the index path, relative to the project root.
	Database string `yaml:"database,omitempty"`

	// Locale picks the keyword table, e.g. "de" or "pt-BR", or names a
	// keyword table file ending in .yaml.
	Locale string `yaml:"locale,omitempty"`

	// Keywords overrides single keywords of the locale table by yaml key.
	Keywords map[string]string `yaml:"keywords,omitempty"`

	// Replace rewrites literal text in every document before parsing.
	Replace map[string]string `yaml:"replace,omitempty"`

	// Tables is the directory examples table paths resolve against.
	// Default: Dir
	Tables string `yaml:"tables,omitempty"`
}

// Config is the resolved runtime configuration. Paths are cleaned and
// joined onto Root unless absolute.
type Config struct {
	Root      string
	Dir       string
	Extension string
	Database  string
	Locale    string
	Keywords  map[string]string
	Replace   map[string]string
	Tables    string
	Verbose   bool
}

// Flags carries the CLI overrides.
type Flags struct {
	ConfigPath string
	Locale     string
	Verbose    bool
}

func Default(root string) *Config {
	return &Config{
		Root:      root,
		Dir:       "stories",
		Extension: ".story",
		Database:  filepath.Join("stories", "story.db"),
		Locale:    "en",
		Keywords:  map[string]string{},
		Replace:   map[string]string{},
	}
}

// Load resolves configuration for root. A missing default config file is not
// an error; a missing file named by flags is.
func Load(root string, flags Flags) (*Config, error) {
	cfg := Default(root)

	path := flags.ConfigPath
	required := path != ""
	if path == "" {
		path = filepath.Join(root, FileName)
	}
	f, err := readFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist) && !required:
	case err != nil:
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	default:
		cfg.apply(f)
	}

	if flags.Locale != "" {
		cfg.Locale = flags.Locale
	}
	if flags.Verbose {
		cfg.Verbose = true
	}
	if cfg.Tables == "" {
		cfg.Tables = cfg.Dir
	}
	return cfg, nil
}

func readFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing: %w", err)
	}
	return &f, nil
}

func (c *Config) apply(f *File) {
	if f.Dir != "" {
		c.Dir = f.Dir
		if f.Database == "" {
			c.Database = filepath.Join(f.Dir, "story.db")
		}
	}
	if f.Extension != "" {
		c.Extension = f.Extension
	}
	if f.Database != "" {
		c.Database = f.Database
	}
	if f.Locale != "" {
		c.Locale = f.Locale
	}
	if f.Tables != "" {
		c.Tables = f.Tables
	}
	for k, v := range f.Keywords {
		c.Keywords[k] = v
	}
	for k, v := range f.Replace {
		c.Replace[k] = v
	}
}

// Path joins p onto the project root unless p is absolute.
func (c *Config) Path(p string) string {
	if filepath.IsAbs(p) || c.Root == "" {
		return filepath.Clean(p)
	}
	return filepath.Join(c.Root, p)
}

func (c *Config) StoriesDir() string   { return c.Path(c.Dir) }
func (c *Config) DatabasePath() string { return c.Path(c.Database) }
func (c *Config) TablesDir() string    { return c.Path(c.Tables) }

// KeywordTable returns the locale table with the configured overrides. A
// locale ending in .yaml names a custom keyword table file.
func (c *Config) KeywordTable() (*keywords.Keywords, error) {
	k, err := c.localeTable()
	if err != nil {
		return nil, err
	}
	if len(c.Keywords) == 0 {
		return k, nil
	}
	k, err = k.WithOverrides(c.Keywords)
	if err != nil {
		return nil, fmt.Errorf("keyword overrides: %w", err)
	}
	return k, nil
}

func (c *Config) localeTable() (*keywords.Keywords, error) {
	if !strings.HasSuffix(c.Locale, ".yaml") {
		return keywords.ForLocale(c.Locale)
	}
	f, err := os.Open(c.Path(c.Locale))
	if err != nil {
		return nil, fmt.Errorf("opening keyword table: %w", err)
	}
	defer f.Close()
	return keywords.Load(f)
}
