package metrics

import (
	"testing"
	"time"

	"user-hub/internal/domain"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

var _ domain.ResolutionRecorder = Recorder{}

func TestRecorder_RecordResolution(t *testing.T) {
	ok := ResolutionsTotal.WithLabelValues(domain.ServiceUser, domain.SourceCache, "ok")
	failed := ResolutionsTotal.WithLabelValues(domain.ServiceUser, domain.SourceNetwork, "networkError")
	beforeOK := testutil.ToFloat64(ok)
	beforeFailed := testutil.ToFloat64(failed)

	var r Recorder
	r.RecordResolution(domain.ServiceUser, domain.SourceCache, nil)
	r.RecordResolution(domain.ServiceUser, domain.SourceNetwork, domain.NewNetworkError("oh dear"))

	assert.Equal(t, beforeOK+1, testutil.ToFloat64(ok))
	assert.Equal(t, beforeFailed+1, testutil.ToFloat64(failed))
}

func TestRecorder_RecordFetch(t *testing.T) {
	counter := FetchesTotal.WithLabelValues(domain.ServiceFavorites, "decodingError")
	before := testutil.ToFloat64(counter)

	Recorder{}.RecordFetch(domain.ServiceFavorites, 20*time.Millisecond, domain.NewDecodingError("bad", nil))

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestSetPooledSessions(t *testing.T) {
	SetPooledSessions(3)
	assert.Equal(t, float64(3), testutil.ToFloat64(PooledSessions))
}
