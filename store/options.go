package store

import "log/slog"

// Option configures a repository.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger used by a repository.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
