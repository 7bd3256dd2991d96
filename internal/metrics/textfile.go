// Package metrics renders run records in the Prometheus text exposition
// format for the node_exporter textfile collector.
package metrics

import (
	"bytes"
	"fmt"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/nagsync/nagsync/internal/fsops"
	"github.com/nagsync/nagsync/internal/state"
)

const namespace = "nagsync"

// Families converts a run record into metric families, in a stable order.
func Families(record *state.RunRecord) []*dto.MetricFamily {
	status := gaugeFamily("resource_status",
		"Outcome of the last run per resource; 1 for the reported status.")
	steps := gaugeFamily("resource_steps",
		"Operations executed for the resource in the last run.")

	for _, res := range record.Resources {
		status.Metric = append(status.Metric, gauge(1,
			label("resource", res.Name), label("status", res.Status)))
		steps.Metric = append(steps.Metric, gauge(float64(res.Steps),
			label("resource", res.Name)))
	}

	converged := 0.0
	if record.Converged {
		converged = 1
	}

	families := []*dto.MetricFamily{
		withValue(gaugeFamily("last_run_timestamp_seconds",
			"Unix time the last run finished."),
			float64(record.FinishedAt.UnixNano())/1e9, label("mode", record.Mode)),
		withValue(gaugeFamily("last_run_duration_seconds",
			"Wall time of the last run."),
			record.Duration().Seconds(), label("mode", record.Mode)),
		withValue(gaugeFamily("last_run_converged",
			"1 when no resource failed in the last run."),
			converged, label("mode", record.Mode)),
	}
	if len(status.Metric) > 0 {
		families = append(families, status, steps)
	}
	return families
}

// Render writes the families for record as exposition text.
func Render(record *state.RunRecord) ([]byte, error) {
	var buf bytes.Buffer
	for _, mf := range Families(record) {
		if _, err := expfmt.MetricFamilyToText(&buf, mf); err != nil {
			return nil, fmt.Errorf("encode %s: %w", mf.GetName(), err)
		}
	}
	return buf.Bytes(), nil
}

// WriteTextfile renders record and atomically replaces path with it, so the
// collector never scrapes a partial file.
func WriteTextfile(fs fsops.FS, path string, record *state.RunRecord) error {
	data, err := Render(record)
	if err != nil {
		return err
	}
	if err := fs.AtomicWrite(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

func gaugeFamily(name, help string) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: proto.String(namespace + "_" + name),
		Help: proto.String(help),
		Type: dto.MetricType_GAUGE.Enum(),
	}
}

func withValue(mf *dto.MetricFamily, v float64, labels ...*dto.LabelPair) *dto.MetricFamily {
	mf.Metric = append(mf.Metric, gauge(v, labels...))
	return mf
}

func gauge(v float64, labels ...*dto.LabelPair) *dto.Metric {
	return &dto.Metric{
		Label: labels,
		Gauge: &dto.Gauge{Value: proto.Float64(v)},
	}
}

func label(name, value string) *dto.LabelPair {
	return &dto.LabelPair{Name: proto.String(name), Value: proto.String(value)}
}
