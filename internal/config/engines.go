package config

import "git.home.luguber.info/inful/bookbuilder/internal/foundation/normalization"

// ArchiveEngine selects how code-sample archives are produced.
type ArchiveEngine string

const (
	// ArchiveEngineGit reads the committed tree in-process.
	ArchiveEngineGit ArchiveEngine = "git"
	// ArchiveEngineCommand shells out to `git archive`.
	ArchiveEngineCommand ArchiveEngine = "command"
)

// ConvertEngine selects how the merged document is converted.
type ConvertEngine string

const (
	ConvertEnginePandoc ConvertEngine = "pandoc"
	ConvertEngineNative ConvertEngine = "native"
	ConvertEngineNone   ConvertEngine = "none"
)

var archiveEngines = normalization.NewEnum("archive engine", ArchiveEngineGit,
	ArchiveEngineGit, ArchiveEngineCommand).
	WithAlias("go-git", ArchiveEngineGit).
	WithAlias("git-archive", ArchiveEngineCommand)

var convertEngines = normalization.NewEnum("convert engine", ConvertEnginePandoc,
	ConvertEnginePandoc, ConvertEngineNative, ConvertEngineNone).
	WithAlias("disabled", ConvertEngineNone).
	WithAlias("off", ConvertEngineNone)
