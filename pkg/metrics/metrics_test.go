package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegister(t *testing.T) {
	assert.Equal(t, prometheus.DefaultRegisterer, GetRegisterer())

	r := prometheus.NewRegistry()
	Register(r)
	Register(r)
	assert.Equal(t, prometheus.Registerer(r), GetRegisterer())

	MapperExportTotal.WithLabelValues("Ping", EncodedLabel).Inc()
	MapperEncodedBytes.WithLabelValues("Ping").Observe(12)
	CodecFrameTotal.WithLabelValues(OutboundLabel, EncodedLabel).Inc()

	assert.Equal(t, float64(1), testutil.ToFloat64(MapperExportTotal.WithLabelValues("Ping", EncodedLabel)))
	assert.Equal(t, 1, testutil.CollectAndCount(MapperEncodedBytes))

	families, err := r.Gather()
	assert.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "protomap_mapper_export_total")
	assert.Contains(t, names, "protomap_codec_frame_total")
}
