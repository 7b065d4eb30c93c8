package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewService(reg)

	s.IncMatchesRecorded()
	s.IncMatchesRecorded()
	s.IncMatchesDeleted()
	s.ObserveArchive(true, 120*time.Millisecond, 14, 2)
	s.ObserveArchive(false, time.Second, 0, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(s.MatchesRecorded))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.MatchesDeleted))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.ArchiveRuns.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.ArchiveRuns.WithLabelValues("failure")))
	assert.Equal(t, 14.0, testutil.ToFloat64(s.SnapshotsWritten))
	assert.Equal(t, 2.0, testutil.ToFloat64(s.MembersPurged))
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewService(reg)
	s.IncMembersRegistered()

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "club_members_registered_total 1")
}

func TestMock(t *testing.T) {
	m := NewMock()
	m.ObserveArchive(true, 0, 3, 1)
	m.ObserveArchive(false, 0, 0, 0)
	m.IncArchiveRetries()

	ok, failed := m.ArchiveRuns()
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 1, m.ArchiveRetries())
	assert.Equal(t, 3, m.Snapshots())
}
