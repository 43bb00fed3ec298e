package config

import (
	"fmt"
	"path/filepath"
	"strings"

	ferrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
)

// Validate checks a defaulted configuration and canonicalizes enum values.
// The first problem found is returned as a classified validation error.
func Validate(c *Config) error {
	checks := []func(*Config) error{
		validateBook,
		validateSite,
		validateArchive,
		validateMerge,
		validateConvert,
		validatePublish,
	}
	for _, check := range checks {
		if err := check(c); err != nil {
			return err
		}
	}
	return nil
}

func invalid(field, format string, args ...any) error {
	return ferrors.ValidationError(fmt.Sprintf(format, args...)).
		WithContext("field", field).
		Build()
}

func validateBook(c *Config) error {
	if strings.TrimSpace(c.Book.Name) == "" {
		return invalid("book.name", "book name cannot be empty")
	}
	if strings.ContainsAny(c.Book.Name, `/\`) {
		return invalid("book.name", "book name %q must not contain path separators", c.Book.Name)
	}
	if strings.TrimSpace(c.Book.Summary) == "" {
		return invalid("book.summary", "summary path cannot be empty")
	}
	return nil
}

func validateSite(c *Config) error {
	if c.Site.OutputDir == "" {
		return invalid("site.output_dir", "output directory cannot be empty")
	}
	if filepath.Clean(c.OutputDir()) == filepath.Clean(c.ProjectRoot) {
		return invalid("site.output_dir", "output directory must differ from the project root")
	}
	if !c.Site.Skip && strings.TrimSpace(c.Site.Command) == "" {
		return invalid("site.command", "site command cannot be empty")
	}
	return nil
}

func validateArchive(c *Config) error {
	engine, err := archiveEngines.Parse(string(c.Archive.Engine))
	if err != nil {
		return invalid("archive.engine", "%v", err)
	}
	c.Archive.Engine = engine
	if c.Archive.Skip {
		return nil
	}
	if filepath.IsAbs(c.Archive.Source) {
		return invalid("archive.source", "archive source %q must be relative to the repository root", c.Archive.Source)
	}
	if strings.HasPrefix(filepath.ToSlash(filepath.Clean(c.Archive.Source)), "..") {
		return invalid("archive.source", "archive source %q escapes the repository", c.Archive.Source)
	}
	return nil
}

func validateMerge(c *Config) error {
	if c.Merge.Output == "" || strings.ContainsAny(c.Merge.Output, `/\`) {
		return invalid("merge.output", "merged document name %q must be a plain file name", c.Merge.Output)
	}
	return nil
}

func validateConvert(c *Config) error {
	engine, err := convertEngines.Parse(string(c.Convert.Engine))
	if err != nil {
		return invalid("convert.engine", "%v", err)
	}
	c.Convert.Engine = engine
	if engine == ConvertEngineNative && c.Convert.Format != "docx" {
		return invalid("convert.format", "native converter only writes docx, got %q", c.Convert.Format)
	}
	if c.ConvertedPath() == c.CombinedPath() {
		return invalid("convert.format", "converted document would overwrite the merged document")
	}
	return nil
}

func validatePublish(c *Config) error {
	if c.Publish.Skip {
		return nil
	}
	if strings.TrimSpace(c.Publish.Branch) == "" {
		return invalid("publish.branch", "publish branch cannot be empty")
	}
	if strings.ContainsAny(c.Publish.Domain, " /\t\n") {
		return invalid("publish.domain", "custom domain %q must be a bare host name", c.Publish.Domain)
	}
	if c.Publish.Auth != nil {
		if err := c.Publish.Auth.Validate(); err != nil {
			return err
		}
	}
	return nil
}
