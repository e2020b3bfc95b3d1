package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveLedger(t *testing.T) {
	before := testutil.CollectAndCount(LedgerRequestDuration)
	ObserveLedger("suix_getBalance", time.Now(), nil)
	ObserveLedger("suix_getBalance", time.Now(), errors.New("boom"))
	assert.Equal(t, before+2, testutil.CollectAndCount(LedgerRequestDuration))
}

func TestCounters(t *testing.T) {
	ClaimsSigned.WithLabelValues("claim").Inc()
	assert.Equal(t, float64(1), testutil.ToFloat64(ClaimsSigned.WithLabelValues("claim")))
}
