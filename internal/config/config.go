package config

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
)

// DefaultPath is the configuration file looked up in the working directory.
const DefaultPath = "bookbuilder.yaml"

// Config is the complete build configuration for one book project.
type Config struct {
	// ProjectRoot is the directory all relative paths resolve against.
	// Relative values are taken relative to the configuration file.
	ProjectRoot string        `yaml:"project_root,omitempty"`
	Book        BookConfig    `yaml:"book"`
	Site        SiteConfig    `yaml:"site"`
	Archive     ArchiveConfig `yaml:"archive"`
	Merge       MergeConfig   `yaml:"merge"`
	Convert     ConvertConfig `yaml:"convert"`
	Publish     PublishConfig `yaml:"publish"`
}

// BookConfig identifies the book and its table of contents.
type BookConfig struct {
	Name    string `yaml:"name,omitempty"` // falls back to package.json, then the root dir name
	Summary string `yaml:"summary"`        // root index document listing the chapters
}

// SiteConfig describes the external site compiler.
type SiteConfig struct {
	Skip      bool     `yaml:"skip,omitempty"`
	Command   string   `yaml:"command"`
	Args      []string `yaml:"args,omitempty"`
	OutputDir string   `yaml:"output_dir"`
}

// ArchiveConfig controls packaging of code samples.
type ArchiveConfig struct {
	Skip   bool          `yaml:"skip,omitempty"`
	Engine ArchiveEngine `yaml:"engine"`
	Source string        `yaml:"source"` // tree path holding the samples
	Ref    string        `yaml:"ref"`
	// PerDirectory writes one zip per immediate subdirectory of Source.
	// When false the whole Source tree becomes a single <book>.zip.
	PerDirectory *bool `yaml:"per_directory,omitempty"`
}

// SplitPerDirectory reports whether one archive per sample directory is written.
func (a ArchiveConfig) SplitPerDirectory() bool {
	return a.PerDirectory == nil || *a.PerDirectory
}

// MergeConfig controls the single-file concatenation of all chapters.
type MergeConfig struct {
	Output           string `yaml:"output,omitempty"` // file name inside the output dir, default <book>.md
	IncludeRoot      bool   `yaml:"include_root,omitempty"`
	StripFrontmatter bool   `yaml:"strip_frontmatter,omitempty"`
	// PlainInternalLabels renders stripped chapter links as the bare label
	// instead of *label* (deprecated output variant).
	PlainInternalLabels bool `yaml:"plain_internal_labels,omitempty"`
	PlainExternalLinks  bool `yaml:"plain_external_links,omitempty"`
}

// ConvertConfig describes conversion of the merged document.
type ConvertConfig struct {
	Engine       ConvertEngine `yaml:"engine"`
	Command      string        `yaml:"command,omitempty"`
	Format       string        `yaml:"format"`
	DataDir      string        `yaml:"data_dir,omitempty"`
	ReferenceDoc string        `yaml:"reference_doc,omitempty"`
	ExtraArgs    []string      `yaml:"extra_args,omitempty"`
}

// PublishConfig describes where the generated site is pushed.
type PublishConfig struct {
	Skip    bool         `yaml:"skip,omitempty"`
	Remote  string       `yaml:"remote,omitempty"` // defaults to the project's origin
	Branch  string       `yaml:"branch"`
	Domain  string       `yaml:"domain,omitempty"` // written to CNAME when set
	Message string       `yaml:"message"`
	Author  AuthorConfig `yaml:"author"`
	Auth    *AuthConfig  `yaml:"auth,omitempty"`
}

// AuthorConfig is the commit identity used for published commits.
type AuthorConfig struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

// Load reads, expands, defaults and validates the configuration at path.
// Environment files next to the configuration are loaded first.
func Load(path string) (*Config, error) {
	baseDir := filepath.Dir(path)
	if _, err := loadEnvFiles(baseDir); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "configuration file not found").
				UserAction().
				WithContext("path", path).
				Build()
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read configuration").
			WithContext("path", path).
			Build()
	}
	return Parse(data, baseDir)
}

// Parse decodes configuration data. ${VAR} references are expanded from the
// environment before decoding and unknown keys are rejected.
func Parse(data []byte, baseDir string) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to parse configuration").
			UserAction().
			Build()
	}
	if err := cfg.finalize(baseDir); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a validated configuration with every value defaulted,
// rooted at root. It is used when no configuration file exists.
func Default(root string) (*Config, error) {
	if _, err := loadEnvFiles(root); err != nil {
		return nil, err
	}
	cfg := &Config{ProjectRoot: root}
	if err := cfg.finalize("."); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) finalize(baseDir string) error {
	root := c.ProjectRoot
	if root == "" {
		root = "."
	}
	if !filepath.IsAbs(root) {
		root = filepath.Join(baseDir, root)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "failed to resolve project root").
			WithContext("path", root).
			Build()
	}
	c.ProjectRoot = abs

	if c.Book.Name == "" {
		name, err := ResolveBookName(c.ProjectRoot)
		if err != nil {
			return err
		}
		c.Book.Name = name
	}

	if err := applyDefaults(c); err != nil {
		return err
	}
	return Validate(c)
}

// Path resolves p against the project root; absolute paths are returned cleaned.
func (c *Config) Path(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(c.ProjectRoot, p)
}

// SummaryPath is the absolute path of the root index document.
func (c *Config) SummaryPath() string { return c.Path(c.Book.Summary) }

// OutputDir is the absolute path of the generated site directory.
func (c *Config) OutputDir() string { return c.Path(c.Site.OutputDir) }

// CombinedPath is where the merged markdown document is written.
func (c *Config) CombinedPath() string {
	return filepath.Join(c.OutputDir(), c.Merge.Output)
}

// ConvertedPath is where the converted document is written.
func (c *Config) ConvertedPath() string {
	return filepath.Join(c.OutputDir(), c.Book.Name+"."+c.Convert.Format)
}
