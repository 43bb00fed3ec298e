package auth

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"git.home.luguber.info/inful/bookbuilder/internal/config"
)

// Provider builds a transport.AuthMethod for one authentication type.
type Provider interface {
	// Type returns the authentication type this provider handles.
	Type() config.AuthType
	// Validate checks the configuration before any network access.
	Validate(cfg *config.AuthConfig) error
	// Method returns nil, nil when no authentication is needed.
	Method(cfg *config.AuthConfig) (transport.AuthMethod, error)
}

type noneProvider struct{}

func (noneProvider) Type() config.AuthType { return config.AuthTypeNone }

func (noneProvider) Validate(*config.AuthConfig) error { return nil }

func (noneProvider) Method(*config.AuthConfig) (transport.AuthMethod, error) {
	return nil, nil
}

type tokenProvider struct{}

func (tokenProvider) Type() config.AuthType { return config.AuthTypeToken }

func (tokenProvider) Validate(cfg *config.AuthConfig) error {
	if cfg.Token == "" {
		return fmt.Errorf("token authentication requires a token")
	}
	return nil
}

// Method uses "token" as the username unless one is configured; hosting
// services accept any non-empty name alongside a personal access token.
func (tokenProvider) Method(cfg *config.AuthConfig) (transport.AuthMethod, error) {
	user := cfg.Username
	if user == "" {
		user = "token"
	}
	return &http.BasicAuth{Username: user, Password: cfg.Token}, nil
}

type basicProvider struct{}

func (basicProvider) Type() config.AuthType { return config.AuthTypeBasic }

func (basicProvider) Validate(cfg *config.AuthConfig) error {
	if cfg.Username == "" {
		return fmt.Errorf("basic authentication requires a username")
	}
	if cfg.Password == "" {
		return fmt.Errorf("basic authentication requires a password")
	}
	return nil
}

func (basicProvider) Method(cfg *config.AuthConfig) (transport.AuthMethod, error) {
	return &http.BasicAuth{Username: cfg.Username, Password: cfg.Password}, nil
}

type sshProvider struct{}

func (sshProvider) Type() config.AuthType { return config.AuthTypeSSH }

func (sshProvider) Validate(cfg *config.AuthConfig) error {
	keyPath := sshKeyPath(cfg)
	if _, err := os.Stat(keyPath); err != nil {
		return fmt.Errorf("SSH key file %s: %w", keyPath, err)
	}
	return nil
}

func (sshProvider) Method(cfg *config.AuthConfig) (transport.AuthMethod, error) {
	keyPath := sshKeyPath(cfg)
	user := cfg.Username
	if user == "" {
		user = "git"
	}
	keys, err := ssh.NewPublicKeysFromFile(user, keyPath, cfg.Passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to load SSH key from %s: %w", keyPath, err)
	}
	return keys, nil
}

func sshKeyPath(cfg *config.AuthConfig) string {
	if cfg.KeyPath != "" {
		return cfg.KeyPath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.Getenv("HOME")
	}
	return filepath.Join(home, ".ssh", "id_rsa")
}
