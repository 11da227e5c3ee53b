// Package metrics exports drift reports as Prometheus gauges in the
// node_exporter textfile format.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360studio/yagnidrift/drift"
)

const namespace = "yagnidrift"

// Collector holds the gauges for the reports of one run.
type Collector struct {
	registry     *prometheus.Registry
	filesChanged *prometheus.GaugeVec
	newFiles     *prometheus.GaugeVec
	newDirs      *prometheus.GaugeVec
	findings     *prometheus.GaugeVec
	score        *prometheus.GaugeVec
}

// NewCollector creates a collector with its own registry.
func NewCollector() *Collector {
	gauge := func(name, help string, labels ...string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, labels)
	}

	c := &Collector{
		registry:     prometheus.NewRegistry(),
		filesChanged: gauge("files_changed", "Changed files counted against the policy.", "task_id"),
		newFiles:     gauge("new_files", "New files counted against the policy.", "task_id"),
		newDirs:      gauge("new_dirs", "Distinct parent directories of new files.", "task_id"),
		findings:     gauge("findings", "Findings by kind.", "task_id", "kind"),
		score:        gauge("score", "Report score: 0 green, 1 yellow, 2 red.", "task_id"),
	}
	c.registry.MustRegister(c.filesChanged, c.newFiles, c.newDirs, c.findings, c.score)
	return c
}

// Observe records a report, replacing earlier values for the same task.
func (c *Collector) Observe(r drift.Report) {
	c.filesChanged.WithLabelValues(r.TaskID).Set(float64(r.Telemetry.FilesChanged))
	c.newFiles.WithLabelValues(r.TaskID).Set(float64(r.Telemetry.NewFiles))
	c.newDirs.WithLabelValues(r.TaskID).Set(float64(r.Telemetry.NewDirs))
	c.score.WithLabelValues(r.TaskID).Set(ScoreValue(r.Score))

	c.findings.DeletePartialMatch(prometheus.Labels{"task_id": r.TaskID})
	counts := make(map[drift.Kind]int)
	for _, f := range r.Findings {
		counts[f.Kind]++
	}
	for kind, n := range counts {
		c.findings.WithLabelValues(r.TaskID, string(kind)).Set(float64(n))
	}
}

// Gatherer exposes the underlying registry.
func (c *Collector) Gatherer() prometheus.Gatherer {
	return c.registry
}

// WriteTextfile writes all gauges to path atomically.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.Gatherer()); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// ScoreValue maps a score onto the gauge scale.
func ScoreValue(s drift.Score) float64 {
	switch s {
	case drift.ScoreYellow:
		return 1
	case drift.ScoreRed:
		return 2
	default:
		return 0
	}
}
