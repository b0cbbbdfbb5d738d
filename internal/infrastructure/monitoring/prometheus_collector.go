package monitoring

import (
	"time"

	"livecast/internal/core/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type PrometheusCollector struct {
	// Counters
	viewersConnectedTotal prometheus.Gauge
	livestreamsLiveTotal  prometheus.Gauge
	commentsAppendedTotal prometheus.Counter
	tombstonesTotal       prometheus.Counter
	bansTotal             prometheus.Counter
	eventsPublishedTotal  prometheus.Counter
	deliveryDropsTotal    prometheus.Counter
	busyRejectionsTotal   prometheus.Counter

	// Histograms
	mutationHoldDuration prometheus.Histogram
	fanOutSize           prometheus.Histogram

	// Per-livestream metrics
	viewerCount *prometheus.GaugeVec
}

func NewPrometheusCollector() *PrometheusCollector {
	return &PrometheusCollector{
		viewersConnectedTotal: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "livecast_viewers_connected_total",
			Help: "Total number of connected viewers across all rooms",
		}),

		livestreamsLiveTotal: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "livecast_livestreams_live_total",
			Help: "Number of livestreams currently in the live state",
		}),

		commentsAppendedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "livecast_comments_appended_total",
			Help: "Total number of comments appended",
		}),

		tombstonesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "livecast_comment_tombstones_total",
			Help: "Total number of comments tombstoned by moderators",
		}),

		bansTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "livecast_bans_total",
			Help: "Total number of ban actions applied",
		}),

		eventsPublishedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "livecast_events_published_total",
			Help: "Total number of events handed to the broadcaster",
		}),

		deliveryDropsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "livecast_delivery_drops_total",
			Help: "Events not delivered to a connection (slow or gone)",
		}),

		busyRejectionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "livecast_busy_rejections_total",
			Help: "Mutations rejected because the serialization point was contended",
		}),

		mutationHoldDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "livecast_mutation_hold_duration_seconds",
			Help:    "Time the per-livestream serialization point was held per mutation",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),

		fanOutSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "livecast_fan_out_size",
			Help:    "Number of connections per published event",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),

		viewerCount: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "livecast_viewer_count",
			Help: "Number of viewers in each livestream room",
		}, []string{"livestream_id"}),
	}
}

func (p *PrometheusCollector) RecordViewerJoined(livestreamID domain.LivestreamID) {
	p.viewersConnectedTotal.Inc()
	p.viewerCount.WithLabelValues(string(livestreamID)).Inc()
}

func (p *PrometheusCollector) RecordViewerLeft(livestreamID domain.LivestreamID) {
	p.viewersConnectedTotal.Dec()
	p.viewerCount.WithLabelValues(string(livestreamID)).Dec()
}

func (p *PrometheusCollector) RecordLivestreamStarted(livestreamID domain.LivestreamID) {
	p.livestreamsLiveTotal.Inc()
}

func (p *PrometheusCollector) RecordLivestreamEnded(livestreamID domain.LivestreamID) {
	p.livestreamsLiveTotal.Dec()
	p.viewerCount.DeleteLabelValues(string(livestreamID))
}

func (p *PrometheusCollector) RecordCommentAppended() {
	p.commentsAppendedTotal.Inc()
}

func (p *PrometheusCollector) RecordTombstone() {
	p.tombstonesTotal.Inc()
}

func (p *PrometheusCollector) RecordBan() {
	p.bansTotal.Inc()
}

func (p *PrometheusCollector) RecordEventPublished(fanOut int) {
	p.eventsPublishedTotal.Inc()
	p.fanOutSize.Observe(float64(fanOut))
}

func (p *PrometheusCollector) RecordDeliveryDrop() {
	p.deliveryDropsTotal.Inc()
}

func (p *PrometheusCollector) RecordBusyRejection() {
	p.busyRejectionsTotal.Inc()
}

func (p *PrometheusCollector) RecordMutationHold(duration time.Duration) {
	p.mutationHoldDuration.Observe(duration.Seconds())
}
