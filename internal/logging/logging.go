// Package logging constructs the single *zap.Logger instance each
// component receives through its constructor, following
// unified-rag-service/main.go's zap.NewProduction()/NewDevelopment()
// selection. No package-level logger: every component takes one in.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/smartrag/smartrag-core/internal/loki"
)

// Options configures logger construction.
type Options struct {
	Development  bool
	ServiceName  string
	LokiEndpoint string // optional, from SMARTRAG_LOKI_ENDPOINT
}

// New builds a *zap.Logger. When opts.LokiEndpoint is set, log entries are
// additionally shipped to a Loki push endpoint via a lightweight tee core.
func New(opts Options) (*zap.Logger, error) {
	var base *zap.Logger
	var err error
	if opts.Development {
		base, err = zap.NewDevelopment()
	} else {
		base, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	base = base.With(zap.String("service", opts.ServiceName))

	endpoint := opts.LokiEndpoint
	if endpoint == "" {
		endpoint = os.Getenv("SMARTRAG_LOKI_ENDPOINT")
	}
	if endpoint == "" {
		return base, nil
	}

	client := loki.New(endpoint, map[string]string{"service": opts.ServiceName})
	tee := zapcore.NewTee(base.Core(), newLokiCore(client, zapcore.InfoLevel))
	return zap.New(tee), nil
}

// lokiCore is a minimal zapcore.Core that forwards encoded entries to Loki.
type lokiCore struct {
	zapcore.LevelEnabler
	client *loki.Client
	fields []zapcore.Field
}

func newLokiCore(client *loki.Client, level zapcore.LevelEnabler) zapcore.Core {
	return &lokiCore{LevelEnabler: level, client: client}
}

func (c *lokiCore) With(fields []zapcore.Field) zapcore.Core {
	merged := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	merged = append(merged, c.fields...)
	merged = append(merged, fields...)
	return &lokiCore{LevelEnabler: c.LevelEnabler, client: c.client, fields: merged}
}

func (c *lokiCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *lokiCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range append(c.fields, fields...) {
		f.AddTo(enc)
	}
	labels := map[string]string{"level": ent.Level.String()}
	return c.client.Push(loki.Batch{Entries: []loki.Entry{{
		Timestamp: ent.Time,
		Line:      ent.Message,
		Labels:    labels,
	}}})
}

func (c *lokiCore) Sync() error { return nil }
