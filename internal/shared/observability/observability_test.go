package observability

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestMetricsRegistered(t *testing.T) {
	before := testutil.ToFloat64(VariablesExcludedTotal.WithLabelValues("builtin"))
	VariablesExcludedTotal.WithLabelValues("builtin").Add(3)
	assert.Equal(t, before+3, testutil.ToFloat64(VariablesExcludedTotal.WithLabelValues("builtin")))

	before = testutil.ToFloat64(RolesProcessedTotal.WithLabelValues("ok"))
	RolesProcessedTotal.WithLabelValues("ok").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(RolesProcessedTotal.WithLabelValues("ok")))
}

func TestInitTracing_RequiresEndpoint(t *testing.T) {
	_, err := InitTracing(context.Background(), TracingConfig{ServiceName: "argspec"})
	require.Error(t, err)
}

func TestNewResource(t *testing.T) {
	res := newResource(TracingConfig{ServiceName: "argspec", Version: "1.2.3"})
	got := map[attribute.Key]string{}
	for _, kv := range res.Attributes() {
		got[kv.Key] = kv.Value.AsString()
	}
	assert.Equal(t, "argspec", got["service.name"])
	assert.Equal(t, "1.2.3", got["service.version"])
}

func TestTracerStartsSpans(t *testing.T) {
	ctx, span := Tracer.Start(context.Background(), "test")
	defer span.End()
	assert.NotNil(t, ctx)
}
