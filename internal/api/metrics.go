package api

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spectriclabs/spc-data-service/internal/spc"
)

// Decode results used as the "result" label.
const (
	resultOK          = "ok"
	resultCorrupt     = "corrupt"
	resultUnknown     = "unknown_format"
	resultUnsupported = "unsupported_format"
	resultHeuristic   = "heuristic_failed"
	resultError       = "error"
)

// Metrics holds the decode counters of the data service.
type Metrics struct {
	Decodes     *prometheus.CounterVec
	DecodeBytes prometheus.Counter
	Subfiles    prometheus.Counter
}

// NewMetrics creates and registers all metrics with the provided registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	decodes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sds_spc_decodes_total",
		Help: "SPC decodes by variant and result",
	}, []string{"variant", "result"})

	decodeBytes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sds_spc_decode_bytes_total",
		Help: "Total bytes handed to the SPC decoder",
	})

	subfiles := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sds_spc_subfiles_total",
		Help: "Total subfiles decoded",
	})

	reg.MustRegister(decodes, decodeBytes, subfiles)

	return &Metrics{
		Decodes:     decodes,
		DecodeBytes: decodeBytes,
		Subfiles:    subfiles,
	}
}

// ObserveDecode records one call to the decoder.
func (m *Metrics) ObserveDecode(f *spc.File, size int, err error) {
	m.DecodeBytes.Add(float64(size))
	if err != nil {
		m.Decodes.WithLabelValues("none", decodeResult(err)).Inc()
		return
	}
	m.Decodes.WithLabelValues(f.Variant.String(), resultOK).Inc()
	m.Subfiles.Add(float64(len(f.Subfiles)))
}

func decodeResult(err error) string {
	switch {
	case errors.Is(err, spc.ErrCorruptFile):
		return resultCorrupt
	case errors.Is(err, spc.ErrUnknownFormat):
		return resultUnknown
	case errors.Is(err, spc.ErrUnsupportedFormat):
		return resultUnsupported
	case errors.Is(err, spc.ErrHeuristicFailed):
		return resultHeuristic
	default:
		return resultError
	}
}
