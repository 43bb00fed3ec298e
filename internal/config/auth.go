package config

import (
	ferrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/foundation/normalization"
)

// AuthType enumerates supported authentication methods (stringly for YAML compatibility).
type AuthType string

const (
	AuthTypeNone  AuthType = "none"
	AuthTypeSSH   AuthType = "ssh"
	AuthTypeToken AuthType = "token"
	AuthTypeBasic AuthType = "basic"
)

var authTypes = normalization.NewEnum("auth type", AuthTypeNone,
	AuthTypeNone, AuthTypeSSH, AuthTypeToken, AuthTypeBasic)

// AuthConfig represents authentication against the publish remote.
type AuthConfig struct {
	Type       AuthType `yaml:"type"` // ssh|token|basic|none
	Username   string   `yaml:"username,omitempty"`
	Password   string   `yaml:"password,omitempty"`
	Token      string   `yaml:"token,omitempty"`
	KeyPath    string   `yaml:"key_path,omitempty"`
	Passphrase string   `yaml:"passphrase,omitempty"`
}

// IsZero reports whether no auth method specified.
func (a *AuthConfig) IsZero() bool { return a == nil || a.Type == "" || a.Type == AuthTypeNone }

// Validate canonicalizes the auth type and checks the fields it requires.
func (a *AuthConfig) Validate() error {
	t, err := authTypes.Parse(string(a.Type))
	if err != nil {
		return invalid("publish.auth.type", "%v", err)
	}
	a.Type = t
	switch t {
	case AuthTypeToken:
		if a.Token == "" {
			return missingAuthField("publish.auth.token", "token authentication requires a token")
		}
	case AuthTypeBasic:
		if a.Username == "" || a.Password == "" {
			return missingAuthField("publish.auth", "basic authentication requires username and password")
		}
	case AuthTypeNone, AuthTypeSSH:
	}
	return nil
}

func missingAuthField(field, msg string) error {
	return ferrors.AuthError(msg).WithContext("field", field).Build()
}
