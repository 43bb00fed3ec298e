package config

import "strings"

// Default values for a project laid out like a gitbook repository.
const (
	DefaultSummary       = "docs/README.md"
	DefaultSiteCommand   = "gitbook"
	DefaultOutputDir     = "_book"
	DefaultArchiveSource = "codes"
	DefaultArchiveRef    = "HEAD"
	DefaultConvertFormat = "docx"
	DefaultPandoc        = "pandoc"
	DefaultDataDir       = "docs"
	DefaultPublishBranch = "gh-pages"
	DefaultPublishMsg    = "Updates"
	DefaultAuthorName    = "bookbuilder"
	DefaultAuthorEmail   = "bookbuilder@localhost"
)

func applyDefaults(c *Config) error {
	if c.Book.Summary == "" {
		c.Book.Summary = DefaultSummary
	}

	if c.Site.Command == "" {
		c.Site.Command = DefaultSiteCommand
		if len(c.Site.Args) == 0 {
			c.Site.Args = []string{"build"}
		}
	}
	if c.Site.OutputDir == "" {
		c.Site.OutputDir = DefaultOutputDir
	}

	if c.Archive.Engine == "" {
		c.Archive.Engine = ArchiveEngineGit
	}
	if c.Archive.Source == "" {
		c.Archive.Source = DefaultArchiveSource
	}
	if c.Archive.Ref == "" {
		c.Archive.Ref = DefaultArchiveRef
	}

	if c.Merge.Output == "" {
		c.Merge.Output = c.Book.Name + ".md"
	}

	if c.Convert.Engine == "" {
		c.Convert.Engine = ConvertEnginePandoc
	}
	if c.Convert.Format == "" {
		c.Convert.Format = DefaultConvertFormat
	}
	c.Convert.Format = strings.ToLower(strings.TrimPrefix(c.Convert.Format, "."))
	if c.Convert.Command == "" {
		c.Convert.Command = DefaultPandoc
	}
	if c.Convert.DataDir == "" {
		c.Convert.DataDir = DefaultDataDir
	}

	if c.Publish.Branch == "" {
		c.Publish.Branch = DefaultPublishBranch
	}
	if c.Publish.Message == "" {
		c.Publish.Message = DefaultPublishMsg
	}
	if c.Publish.Author.Name == "" {
		c.Publish.Author.Name = DefaultAuthorName
	}
	if c.Publish.Author.Email == "" {
		c.Publish.Author.Email = DefaultAuthorEmail
	}
	return nil
}
