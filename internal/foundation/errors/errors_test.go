package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "bookbuilder.yaml").
			Build()

		if err.Category() != CategoryConfig {
			t.Errorf("expected category %s, got %s", CategoryConfig, err.Category())
		}
		if err.Severity() != SeverityFatal {
			t.Errorf("expected severity %s, got %s", SeverityFatal, err.Severity())
		}
		if err.Message() != "invalid configuration" {
			t.Errorf("expected message 'invalid configuration', got %s", err.Message())
		}

		file, exists := err.Context().GetString("file")
		if !exists || file != "bookbuilder.yaml" {
			t.Errorf("expected context file=bookbuilder.yaml, got %v", file)
		}
	})

	t.Run("Error detection through wrapping", func(t *testing.T) {
		inner := ConfigError("test error").Build()
		err := fmt.Errorf("load: %w", inner)

		if !IsClassified(err) {
			t.Error("expected wrapped error to be classified")
		}
		if !HasCategory(err, CategoryConfig) {
			t.Error("expected error to have config category")
		}
		if !HasSeverity(err, SeverityFatal) {
			t.Error("expected error to have fatal severity")
		}
		if inner.CanRetry() {
			t.Error("expected config error to not be retryable")
		}
		if !inner.IsFatal() {
			t.Error("expected config error to be fatal")
		}
	})

	t.Run("Unclassified defaults", func(t *testing.T) {
		err := errors.New("plain")
		if IsClassified(err) {
			t.Error("expected plain error to be unclassified")
		}
		if GetCategory(err) != CategoryInternal {
			t.Errorf("expected internal category, got %s", GetCategory(err))
		}
	})
}

func TestErrorBuilder(t *testing.T) {
	t.Run("Fluent API", func(t *testing.T) {
		originalErr := errors.New("original error")
		err := WrapError(originalErr, CategoryGit, "push failed").
			Warning().
			Retryable().
			WithContext("remote", "origin").
			WithContext("attempt", 1).
			Build()

		if err.Category() != CategoryGit {
			t.Errorf("expected category %s, got %s", CategoryGit, err.Category())
		}
		if err.Severity() != SeverityWarning {
			t.Errorf("expected severity %s, got %s", SeverityWarning, err.Severity())
		}
		if err.RetryStrategy() != RetryBackoff {
			t.Errorf("expected retry strategy %s, got %s", RetryBackoff, err.RetryStrategy())
		}
		if !errors.Is(err, originalErr) {
			t.Error("expected error to wrap original error")
		}

		remote, _ := err.Context().GetString("remote")
		if remote != "origin" {
			t.Errorf("expected remote context 'origin', got %s", remote)
		}
	})

	t.Run("Category override", func(t *testing.T) {
		err := GitError("clone").WithCategory(CategoryAuth).Build()
		if err.Category() != CategoryAuth {
			t.Errorf("expected category %s, got %s", CategoryAuth, err.Category())
		}
	})

	t.Run("Convenience constructors", func(t *testing.T) {
		tests := []struct {
			name     string
			builder  *ErrorBuilder
			category ErrorCategory
			severity ErrorSeverity
			retry    RetryStrategy
		}{
			{"ConfigError", ConfigError("test"), CategoryConfig, SeverityFatal, RetryUserAction},
			{"ValidationError", ValidationError("test"), CategoryValidation, SeverityFatal, RetryUserAction},
			{"AuthError", AuthError("test"), CategoryAuth, SeverityError, RetryUserAction},
			{"GitError", GitError("test"), CategoryGit, SeverityError, RetryNever},
			{"PublishError", PublishError("test"), CategoryPublish, SeverityWarning, RetryBackoff},
			{"BuildError", BuildError("test"), CategoryBuild, SeverityFatal, RetryNever},
			{"ToolError", ToolError("test"), CategoryTool, SeverityFatal, RetryNever},
			{"FileSystemError", FileSystemError("test"), CategoryFileSystem, SeverityFatal, RetryNever},
			{"InternalError", InternalError("test"), CategoryInternal, SeverityFatal, RetryNever},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := tt.builder.Build()
				if err.Category() != tt.category {
					t.Errorf("expected category %s, got %s", tt.category, err.Category())
				}
				if err.Severity() != tt.severity {
					t.Errorf("expected severity %s, got %s", tt.severity, err.Severity())
				}
				if err.RetryStrategy() != tt.retry {
					t.Errorf("expected retry strategy %s, got %s", tt.retry, err.RetryStrategy())
				}
			})
		}
	})
}

func TestErrorContext(t *testing.T) {
	ctx1 := make(ErrorContext)
	ctx1 = ctx1.Set("key1", "value1")
	ctx1 = ctx1.Set("shared", "original")

	ctx2 := make(ErrorContext)
	ctx2 = ctx2.Set("key2", "value2")
	ctx2 = ctx2.Set("shared", "overridden")

	merged := ctx1.Merge(ctx2)

	value1, _ := merged.GetString("key1")
	value2, _ := merged.GetString("key2")
	shared, _ := merged.GetString("shared")

	if value1 != "value1" {
		t.Errorf("expected key1=value1, got %s", value1)
	}
	if value2 != "value2" {
		t.Errorf("expected key2=value2, got %s", value2)
	}
	if shared != "overridden" {
		t.Errorf("expected shared=overridden, got %s", shared)
	}
	if _, exists := merged.Get("nonexistent"); exists {
		t.Error("expected nonexistent key to not exist")
	}
}
