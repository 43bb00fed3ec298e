package publish

import (
	"errors"
	"strings"

	ferrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
)

// ErrNoRemote indicates no push target could be determined.
var ErrNoRemote = errors.New("no publish remote")

// classify turns a publish failure into a warning-severity classified error.
// Auth problems keep the auth category so the report points at credentials.
func classify(err error, op, remote string) error {
	if err == nil {
		return nil
	}
	if _, ok := ferrors.AsClassified(err); ok {
		return err
	}

	l := strings.ToLower(err.Error())
	category := ferrors.CategoryPublish
	switch {
	case strings.Contains(l, "authentication") || strings.Contains(l, "authorization") ||
		strings.Contains(l, "not authorized") || strings.Contains(l, "invalid credentials"):
		category = ferrors.CategoryAuth
	case strings.Contains(l, "repository not found") || strings.Contains(l, "does not exist"):
		category = ferrors.CategoryNotFound
	}

	return ferrors.WrapError(err, category, "publish failed").
		Warning().
		WithContext("op", op).
		WithContext("url", remote).
		Build()
}
