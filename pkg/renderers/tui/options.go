package tui

import (
	"log/slog"

	"github.com/goliatone/go-releaseform/pkg/render"
)

// Theme captures optional message prefixes the session applies when printing.
// Keep minimal to avoid coupling session logic to ANSI specifics.
type Theme struct {
	InfoPrefix  string
	ErrorPrefix string
}

// Option configures a Session.
type Option func(*Session)

// WithPromptDriver overrides the prompt driver used by the session.
func WithPromptDriver(driver PromptDriver) Option {
	return func(s *Session) {
		if driver != nil {
			s.driver = driver
		}
	}
}

// WithFileReader overrides how file paths typed by the user are loaded.
func WithFileReader(reader FileReader) Option {
	return func(s *Session) {
		if reader != nil {
			s.readFile = reader
		}
	}
}

// WithTheme applies optional message prefixes.
func WithTheme(theme Theme) Option {
	return func(s *Session) {
		s.theme = theme
	}
}

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSummary renders the final state through r after a successful submit and
// prints it via the driver.
func WithSummary(r render.Renderer) Option {
	return func(s *Session) {
		s.summary = r
	}
}
