// Package metrics records league activity. Services depend on the Metrics
// interface; Service is the Prometheus implementation and Mock the test one.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics interface {
	IncMembersRegistered()
	IncMatchesRecorded()
	IncMatchesDeleted()
	// ObserveArchive records one archive sweep. success is false when the
	// sweep was rolled back after its last retry.
	ObserveArchive(success bool, d time.Duration, snapshots, purged int)
	IncArchiveRetries()
}

var _ Metrics = (*Service)(nil)

type Service struct {
	MembersRegistered prometheus.Counter
	MatchesRecorded   prometheus.Counter
	MatchesDeleted    prometheus.Counter
	ArchiveRuns       *prometheus.CounterVec
	ArchiveRetries    prometheus.Counter
	ArchiveDuration   prometheus.Histogram
	SnapshotsWritten  prometheus.Counter
	MembersPurged     prometheus.Counter
}

// NewService creates the collectors and registers them with reg
// (prometheus.DefaultRegisterer when nil).
func NewService(reg prometheus.Registerer) *Service {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	s := &Service{
		MembersRegistered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "club_members_registered_total",
			Help: "Members registered.",
		}),
		MatchesRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "club_matches_recorded_total",
			Help: "League matches recorded.",
		}),
		MatchesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "club_matches_deleted_total",
			Help: "League matches deleted and rolled back.",
		}),
		ArchiveRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "club_season_archive_runs_total",
			Help: "Season archive sweeps by result.",
		}, []string{"result"}),
		ArchiveRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "club_season_archive_retries_total",
			Help: "Season archive attempts retried after a transient storage failure.",
		}),
		ArchiveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "club_season_archive_duration_seconds",
			Help:    "Wall time of a season archive sweep including retries.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		SnapshotsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "club_history_snapshots_written_total",
			Help: "History snapshots written by the season archive.",
		}),
		MembersPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "club_members_purged_total",
			Help: "Inactive members permanently removed by the season archive.",
		}),
	}

	reg.MustRegister(
		s.MembersRegistered,
		s.MatchesRecorded,
		s.MatchesDeleted,
		s.ArchiveRuns,
		s.ArchiveRetries,
		s.ArchiveDuration,
		s.SnapshotsWritten,
		s.MembersPurged,
	)
	return s
}

// Handler serves the metrics gathered by g (prometheus.DefaultGatherer
// when nil).
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func (s *Service) IncMembersRegistered() { s.MembersRegistered.Inc() }
func (s *Service) IncMatchesRecorded()   { s.MatchesRecorded.Inc() }
func (s *Service) IncMatchesDeleted()    { s.MatchesDeleted.Inc() }
func (s *Service) IncArchiveRetries()    { s.ArchiveRetries.Inc() }

func (s *Service) ObserveArchive(success bool, d time.Duration, snapshots, purged int) {
	result := "success"
	if !success {
		result = "failure"
	}
	s.ArchiveRuns.WithLabelValues(result).Inc()
	s.ArchiveDuration.Observe(d.Seconds())
	s.SnapshotsWritten.Add(float64(snapshots))
	s.MembersPurged.Add(float64(purged))
}
