package observability

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/shopspring/decimal"
	otellog "go.opentelemetry.io/otel/log"
	otelglobal "go.opentelemetry.io/otel/log/global"

	"github.com/riskibarqy/prediction-league/internal/platform/logging"
)

const (
	logMirrorInstrumentation = "prediction-league/internal/platform/logging"
	maxLogValueDepth         = 3
)

// Access logs for these paths stay on stdout only.
var quietPaths = map[string]struct{}{
	"/healthz":                     {},
	"/v1/internal/jobs/metrics":    {},
	"/v1/internal/jobs/dispatches": {},
}

type logMirror struct {
	logger otellog.Logger
}

func newUptraceLogMirror(serviceVersion string) logging.MirrorFunc {
	m := logMirror{
		logger: otelglobal.Logger(logMirrorInstrumentation, otellog.WithInstrumentationVersion(serviceVersion)),
	}
	return m.emit
}

func (m logMirror) emit(ctx context.Context, level logging.Level, msg string, args ...any) {
	if isQuietAccessLog(msg, args) {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	severity := severityFor(level)
	if !m.logger.Enabled(ctx, otellog.EnabledParameters{Severity: severity, EventName: msg}) {
		return
	}

	now := time.Now().UTC()
	var record otellog.Record
	record.SetTimestamp(now)
	record.SetObservedTimestamp(now)
	record.SetSeverity(severity)
	record.SetSeverityText(strings.ToUpper(level.String()))
	record.SetEventName(msg)
	record.SetBody(otellog.StringValue(msg))
	if attrs := logAttributes(args); len(attrs) > 0 {
		record.AddAttributes(attrs...)
	}

	m.logger.Emit(ctx, record)
}

func isQuietAccessLog(msg string, args []any) bool {
	if msg != "http request" {
		return false
	}
	for i := 0; i+1 < len(args); i += 2 {
		if key, ok := args[i].(string); !ok || key != "path" {
			continue
		}
		path, ok := args[i+1].(string)
		if !ok {
			return false
		}
		_, quiet := quietPaths[path]
		return quiet
	}
	return false
}

func logAttributes(args []any) []otellog.KeyValue {
	if len(args) == 0 {
		return nil
	}

	attrs := make([]otellog.KeyValue, 0, (len(args)+1)/2)
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok || strings.TrimSpace(key) == "" {
			key = fmt.Sprintf("arg_%d", i/2)
		}
		if i+1 >= len(args) {
			attrs = append(attrs, otellog.Empty(key))
			continue
		}
		attrs = append(attrs, otellog.KeyValue{Key: key, Value: logValue(args[i+1], 0)})
	}
	return attrs
}

func severityFor(level logging.Level) otellog.Severity {
	switch level {
	case logging.LevelDebug:
		return otellog.SeverityDebug
	case logging.LevelInfo:
		return otellog.SeverityInfo
	case logging.LevelWarn:
		return otellog.SeverityWarn
	case logging.LevelError:
		return otellog.SeverityError
	}
	if level < logging.LevelDebug {
		return otellog.SeverityTrace
	}
	return otellog.SeverityFatal
}

// logValue converts the shapes this service logs: scalars, decimals, market id
// lists and string-keyed maps. Anything else is rendered as JSON text.
func logValue(value any, depth int) otellog.Value {
	switch v := value.(type) {
	case nil:
		return otellog.Value{}
	case string:
		return otellog.StringValue(v)
	case bool:
		return otellog.BoolValue(v)
	case int:
		return otellog.IntValue(v)
	case int64:
		return otellog.Int64Value(v)
	case float64:
		return otellog.Float64Value(v)
	case decimal.Decimal:
		return otellog.StringValue(v.String())
	case time.Time:
		return otellog.StringValue(v.UTC().Format(time.RFC3339Nano))
	case time.Duration:
		return otellog.StringValue(v.String())
	case error:
		return otellog.StringValue(v.Error())
	case fmt.Stringer:
		return otellog.StringValue(v.String())
	}

	if depth < maxLogValueDepth {
		switch v := value.(type) {
		case []string:
			return sliceValue(v, depth)
		case []any:
			return sliceValue(v, depth)
		case map[string]any:
			keys := slices.Sorted(maps.Keys(v))
			kvs := make([]otellog.KeyValue, 0, len(keys))
			for _, key := range keys {
				kvs = append(kvs, otellog.KeyValue{Key: key, Value: logValue(v[key], depth+1)})
			}
			return otellog.MapValue(kvs...)
		}
	}

	text, err := sonic.MarshalString(value)
	if err != nil {
		return otellog.StringValue(fmt.Sprint(value))
	}
	return otellog.StringValue(text)
}

func sliceValue[T any](items []T, depth int) otellog.Value {
	values := make([]otellog.Value, 0, len(items))
	for _, item := range items {
		values = append(values, logValue(item, depth+1))
	}
	return otellog.SliceValue(values...)
}
