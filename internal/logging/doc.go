// Package logging constructs the process-wide slog logger used by every
// lightbox component. It offers a console handler for interactive use, a JSON
// handler for machine consumption, and small attr helpers so call sites stay
// terse.
package logging
