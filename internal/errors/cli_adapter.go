package errors

import (
	"fmt"
	"log/slog"
	"os"
)

// CLIErrorAdapter handles error presentation and exit code determination for CLI applications.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	if bce, ok := err.(*BuildControlError); ok {
		return a.exitCodeFromKind(bce)
	}

	return 1
}

// exitCodeFromKind maps BuildControlError kinds to exit codes.
func (a *CLIErrorAdapter) exitCodeFromKind(err *BuildControlError) int {
	switch err.Kind {
	case KindFileMissing:
		return 7 // Configuration target absent
	case KindMalformedDocument, KindSchemaViolation,
		KindUnresolvedInclusion, KindInclusionCycle,
		KindUnknownNode, KindInvalidAttribute:
		return 2 // Invalid configuration
	case KindNetwork:
		return 8 // External system error
	case KindDaemon:
		return 12 // Runtime error
	case KindInternal:
		return 10 // Internal error
	default:
		return 1 // General error
	}
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	if bce, ok := err.(*BuildControlError); ok {
		if a.verbose {
			return bce.Error()
		}
		return fmt.Sprintf("%s: %s", bce.Kind, bce.Message)
	}

	return fmt.Sprintf("Error: %v", err)
}

// HandleError processes an error and exits the program with appropriate code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}

	exitCode := a.ExitCodeFor(err)
	message := a.FormatError(err)

	if a.shouldLog(err) {
		a.logError(err)
	}

	fmt.Fprintf(os.Stderr, "%s\n", message)
	os.Exit(exitCode)
}

// shouldLog determines if an error should be logged.
func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}

	if bce, ok := err.(*BuildControlError); ok {
		return bce.Kind == KindInternal ||
			bce.Kind == KindDaemon ||
			bce.Severity == SeverityFatal
	}

	return true
}

// logError logs an error with appropriate level and context.
func (a *CLIErrorAdapter) logError(err error) {
	if bce, ok := err.(*BuildControlError); ok {
		level := a.slogLevelFromSeverity(bce.Severity)
		attrs := []slog.Attr{
			slog.String("kind", string(bce.Kind)),
		}
		if bce.Retryable {
			attrs = append(attrs, slog.Bool("retryable", true))
		}

		a.logger.LogAttrs(nil, level, bce.Message, attrs...)
		return
	}

	a.logger.Error("Unclassified error", "error", err)
}

// slogLevelFromSeverity converts BuildControlError severity to slog level.
func (a *CLIErrorAdapter) slogLevelFromSeverity(severity ErrorSeverity) slog.Level {
	switch severity {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	case SeverityFatal:
		return slog.LevelError
	default:
		return slog.LevelError
	}
}
