package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyChapter    = "chapter"
	KeyLabel      = "label"
	KeyTool       = "tool"
	KeyExitCode   = "exit_code"
	KeyName       = "name"
	KeyURL        = "url"
	KeyBranch     = "branch"
	KeyRef        = "ref"
	KeyCount      = "count"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Chapter(p string) slog.Attr      { return slog.String(KeyChapter, p) }
func Label(l string) slog.Attr        { return slog.String(KeyLabel, l) }
func Tool(name string) slog.Attr      { return slog.String(KeyTool, name) }
func ExitCode(code int) slog.Attr     { return slog.Int(KeyExitCode, code) }
func Name(n string) slog.Attr         { return slog.String(KeyName, n) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Branch(b string) slog.Attr       { return slog.String(KeyBranch, b) }
func Ref(r string) slog.Attr          { return slog.String(KeyRef, r) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
