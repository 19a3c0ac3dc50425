package logger

import (
	"io"
	"log/slog"

	"github.com/go-chi/httplog/v3"
)

type Options struct {
	App     string
	Version string
	Env     string
	Level   slog.Level
}

// New returns a JSON logger whose attributes follow the ECS schema used by
// the request logger. Development output keeps the verbose form.
func New(w io.Writer, opts Options) *slog.Logger {
	logFormat := httplog.SchemaECS.Concise(opts.Env != "development")

	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       opts.Level,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", opts.App),
		slog.String("version", opts.Version),
		slog.String("env", opts.Env),
	)
}
