// Package auth turns publish authentication settings into go-git auth methods.
package auth

import (
	"github.com/go-git/go-git/v5/plumbing/transport"

	"git.home.luguber.info/inful/bookbuilder/internal/config"
	ferrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
)

// Registry maps authentication types to providers.
type Registry struct {
	providers map[config.AuthType]Provider
}

// NewRegistry returns a registry holding the none, token, basic and ssh providers.
func NewRegistry() *Registry {
	r := &Registry{providers: make(map[config.AuthType]Provider)}
	r.Register(noneProvider{})
	r.Register(tokenProvider{})
	r.Register(basicProvider{})
	r.Register(sshProvider{})
	return r
}

// Register adds or replaces the provider for its type.
func (r *Registry) Register(p Provider) {
	r.providers[p.Type()] = p
}

// Method resolves the auth method for cfg. A nil or empty configuration
// means no authentication.
func (r *Registry) Method(cfg *config.AuthConfig) (transport.AuthMethod, error) {
	if cfg.IsZero() {
		return nil, nil
	}
	p, ok := r.providers[cfg.Type]
	if !ok {
		return nil, ferrors.AuthError("unsupported authentication type").
			WithContext("type", string(cfg.Type)).
			Build()
	}
	if err := p.Validate(cfg); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryAuth, "invalid authentication configuration").
			UserAction().
			WithContext("type", string(cfg.Type)).
			Build()
	}
	m, err := p.Method(cfg)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryAuth, "failed to create authentication").
			UserAction().
			WithContext("type", string(cfg.Type)).
			Build()
	}
	return m, nil
}

var defaultRegistry = NewRegistry()

// Method resolves cfg with the default registry.
func Method(cfg *config.AuthConfig) (transport.AuthMethod, error) {
	return defaultRegistry.Method(cfg)
}
