package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
)

const initHeader = `# bookbuilder configuration.
# Values may reference environment variables as ${VAR}; .env and .env.local
# next to this file are loaded first.
#
# Set publish.domain to write a CNAME file, and publish.auth to push over
# HTTPS, e.g.:
#   auth:
#     type: token
#     token: ${BOOKBUILDER_PUBLISH_TOKEN}
`

// Example returns the configuration written by Init.
func Example() Config {
	perDir := true
	return Config{
		Book: BookConfig{Summary: DefaultSummary},
		Site: SiteConfig{
			Command:   DefaultSiteCommand,
			Args:      []string{"build"},
			OutputDir: DefaultOutputDir,
		},
		Archive: ArchiveConfig{
			Engine:       ArchiveEngineGit,
			Source:       DefaultArchiveSource,
			Ref:          DefaultArchiveRef,
			PerDirectory: &perDir,
		},
		Convert: ConvertConfig{
			Engine:  ConvertEnginePandoc,
			Format:  DefaultConvertFormat,
			DataDir: DefaultDataDir,
		},
		Publish: PublishConfig{
			Branch:  DefaultPublishBranch,
			Message: DefaultPublishMsg,
			Author:  AuthorConfig{Name: DefaultAuthorName, Email: DefaultAuthorEmail},
		},
	}
}

// Init writes an example configuration file.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return ferrors.ConfigError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", path)).
			WithContext("path", path).
			Build()
	}

	var buf bytes.Buffer
	buf.WriteString(initHeader)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	example := Example()
	if err := enc.Encode(&example); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "failed to encode example configuration").Build()
	}
	if err := enc.Close(); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "failed to encode example configuration").Build()
	}

	// #nosec G306 -- configuration is meant to be world readable
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write configuration").
			WithContext("path", path).
			Build()
	}
	return nil
}
