package dispatch

import (
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"

	"github.com/vyrodovalexey/avroute/internal/observability"
)

// counterValue returns the value of the counter series with exactly the
// given labels, or 0 when the series does not exist.
func counterValue(t *testing.T, m *observability.Metrics, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			if labelsMatch(metric.GetLabel(), labels) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func labelsMatch(pairs []*dto.LabelPair, want map[string]string) bool {
	if len(pairs) != len(want) {
		return false
	}
	for _, pair := range pairs {
		if want[pair.GetName()] != pair.GetValue() {
			return false
		}
	}
	return true
}

func attributeInt(key string, value int) attribute.KeyValue {
	return attribute.Int(key, value)
}

func attributeString(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}
