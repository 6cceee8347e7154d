package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegisterIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}

func TestObservePrediction(t *testing.T) {
	before := testutil.ToFloat64(PredictionsTotal.WithLabelValues("pest", "ok"))
	ObservePrediction("pest", "ok", time.Now().Add(-20*time.Millisecond))
	assert.Equal(t, before+1, testutil.ToFloat64(PredictionsTotal.WithLabelValues("pest", "ok")))
	assert.GreaterOrEqual(t, testutil.CollectAndCount(PredictionDurationSeconds), 1)
}

func TestObserveLLM(t *testing.T) {
	ok := testutil.ToFloat64(LLMRequestsTotal.WithLabelValues("chat", "ok"))
	failed := testutil.ToFloat64(LLMRequestsTotal.WithLabelValues("chat", "error"))

	ObserveLLM("chat", nil)
	ObserveLLM("chat", errors.New("boom"))

	assert.Equal(t, ok+1, testutil.ToFloat64(LLMRequestsTotal.WithLabelValues("chat", "ok")))
	assert.Equal(t, failed+1, testutil.ToFloat64(LLMRequestsTotal.WithLabelValues("chat", "error")))
}
