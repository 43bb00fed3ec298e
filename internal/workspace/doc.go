// Package workspace manages the ephemeral staging directories a build uses
// outside the project tree, such as the checkout a publish commits from.
package workspace
