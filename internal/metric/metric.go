package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	storeOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventcal_store_operations_total",
		Help: "Record store operations by kind and outcome",
	}, []string{"op", "result"})

	saveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "eventcal_store_save_duration_seconds",
		Help:    "Time spent writing the full collection to the backing store",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
	})

	events = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "eventcal_events",
		Help: "Number of events in the collection by completion status",
	}, []string{"status"})

	csvRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventcal_csv_rows_total",
		Help: "Rows converted by the CSV bridge",
	}, []string{"direction"})

	backups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventcal_backups_total",
		Help: "Scheduled CSV snapshots by outcome",
	}, []string{"result"})
)

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// StoreOp counts one record store operation.
func StoreOp(op string, err error) {
	storeOperations.WithLabelValues(op, result(err)).Inc()
}

// SaveDuration records how long a full save took.
func SaveDuration(d time.Duration) {
	saveDuration.Observe(d.Seconds())
}

// Events publishes the current collection size.
func Events(total, completed int) {
	events.WithLabelValues("completed").Set(float64(completed))
	events.WithLabelValues("pending").Set(float64(total - completed))
}

// CSVRows counts rows read ("import") or written ("export").
func CSVRows(direction string, n int) {
	csvRows.WithLabelValues(direction).Add(float64(n))
}

// Backup counts one scheduled snapshot.
func Backup(err error) {
	backups.WithLabelValues(result(err)).Inc()
}
