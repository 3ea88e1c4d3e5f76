package telemetry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// InitSlog installs a text handler writing to `out` as the default slog logger.
func InitSlog(out io.Writer, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: level,
	})))
}

// SlogAPI implements API using the log/slog package, counts are
// additionally recorded as otel gauges so they reach the metric exporter.
type SlogAPI struct {
	meter metric.Meter
}

func NewSlogAPI() SlogAPI {
	return SlogAPI{meter: otel.Meter("ebird-pages")}
}

func (SlogAPI) formatParams(out *[]any, params []any) {
	for i, p := range params {
		*out = append(
			*out,
			fmt.Sprintf("params.%d", i),
			p,
		)
	}
}

func (s SlogAPI) ReportBroken(id string, params ...any) {
	remainingPairs := []any{"id", id}
	s.formatParams(&remainingPairs, params)
	slog.Error("broken component", remainingPairs...)
}

func (s SlogAPI) ReportWarning(id string, params ...any) {
	remainingPairs := []any{"id", id}
	s.formatParams(&remainingPairs, params)
	slog.Warn("warning", remainingPairs...)
}

func (s SlogAPI) ReportDebug(message string, params ...any) {
	remainingPairs := []any{}
	s.formatParams(&remainingPairs, params)
	slog.Debug(message, remainingPairs...)
}

// scoped ids look like "namespace: id", otel instrument names cannot hold spaces
var metricName = strings.NewReplacer(": ", ".", " ", "_")

func (s SlogAPI) ReportCount(id string, count int64) {
	slog.Info("count", "id", id, "n", count)
	if s.meter == nil {
		return
	}
	gauge, err := s.meter.Int64Gauge(metricName.Replace(id))
	if err != nil {
		return
	}
	gauge.Record(context.Background(), count)
}
