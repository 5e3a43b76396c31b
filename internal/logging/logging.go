// Package logging provides the leveled logger used throughout kiln.
//
// Five levels exist, ordered debug < steps < info < warning < error. They map
// onto slog levels, with LevelSteps sitting between debug and info. Loggers
// are passed explicitly or carried in a context.Context.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/agilira/go-errors"
	"github.com/charmbracelet/lipgloss"
)

// ErrCodeVerbosity reports a verbosity outside 0..4.
const ErrCodeVerbosity errors.ErrorCode = "LOG_INVALID_VERBOSITY"

const (
	LevelDebug   = slog.LevelDebug
	LevelSteps   = slog.Level(-2)
	LevelInfo    = slog.LevelInfo
	LevelWarning = slog.LevelWarn
	LevelError   = slog.LevelError
)

// DefaultVerbosity selects LevelSteps.
const DefaultVerbosity = 1

var verbosityLevels = []slog.Level{LevelDebug, LevelSteps, LevelInfo, LevelWarning, LevelError}

// FromVerbosity maps a verbosity number (0 = debug ... 4 = error) to a level.
func FromVerbosity(n int) (slog.Level, error) {
	if n < 0 || n >= len(verbosityLevels) {
		return 0, errors.New(ErrCodeVerbosity, fmt.Sprintf("invalid verbosity %d, expected 0..%d", n, len(verbosityLevels)-1))
	}
	return verbosityLevels[n], nil
}

var (
	debugStyle = lipgloss.NewStyle().Faint(true)
	stepsStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4"))
	infoStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	warnStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3"))
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
)

func prefix(l slog.Level) string {
	switch {
	case l >= LevelError:
		return errorStyle.Render("ERR")
	case l >= LevelWarning:
		return warnStyle.Render("WRN")
	case l >= LevelInfo:
		return infoStyle.Render("==>")
	case l >= LevelSteps:
		return stepsStyle.Render("-->")
	default:
		return debugStyle.Render("---")
	}
}

// Handler writes one line per record: a level marker, the message and any
// attributes as key=value pairs.
type Handler struct {
	mu     *sync.Mutex
	w      io.Writer
	level  slog.Leveler
	attrs  []slog.Attr
	groups []string
}

// NewHandler returns a Handler writing records at or above level to w.
func NewHandler(w io.Writer, level slog.Leveler) *Handler {
	if level == nil {
		level = LevelSteps
	}
	return &Handler{mu: &sync.Mutex{}, w: w, level: level}
}

func (h *Handler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(prefix(r.Level))
	b.WriteByte(' ')
	b.WriteString(r.Message)

	for _, a := range h.attrs {
		writeAttr(&b, "", a)
	}
	group := strings.Join(h.groups, ".")
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, group, a)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	n := *h
	group := strings.Join(h.groups, ".")
	n.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	n.attrs = append(n.attrs, h.attrs...)
	for _, a := range attrs {
		if group != "" {
			a.Key = group + "." + a.Key
		}
		n.attrs = append(n.attrs, a)
	}
	return &n
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	n := *h
	n.groups = append(append([]string{}, h.groups...), name)
	return &n
}

func writeAttr(b *strings.Builder, group string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	key := a.Key
	if group != "" {
		key = group + "." + key
	}
	val := a.Value.String()
	if strings.ContainsAny(val, " \t\n\"=") || val == "" {
		val = strconv.Quote(val)
	}
	b.WriteByte(' ')
	b.WriteString(key)
	b.WriteByte('=')
	b.WriteString(val)
}

// New returns a logger writing to w at the given level.
func New(w io.Writer, level slog.Leveler) *slog.Logger {
	return slog.New(NewHandler(w, level))
}

// Discard returns a logger dropping every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

type ctxKey struct{}

// WithLogger returns a context carrying l.
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger carried by ctx, or slog.Default.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}
