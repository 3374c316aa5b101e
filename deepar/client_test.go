package deepar

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInferenceResponse(t *testing.T) {
	body := []byte(`{"predictions":[{"quantiles":{"0.1":[0.1,0.2],"0.5":[0.3,0.4],"0.9":[0.5,0.6]}}]}`)

	fc, err := ParseInferenceResponse(body)
	require.Nil(t, err)
	assert.Equal(t, []float64{0.1, 0.2}, fc.P10)
	assert.Equal(t, []float64{0.3, 0.4}, fc.P50)
	assert.Equal(t, []float64{0.5, 0.6}, fc.P90)
}

func TestParseInferenceResponseMalformed(t *testing.T) {
	testData := map[string]struct {
		body string
	}{
		"not json":           {"plainly not json"},
		"no predictions":     {`{"predictions":[]}`},
		"missing quantile":   {`{"predictions":[{"quantiles":{"0.5":[0.3]}}]}`},
		"misaligned lengths": {`{"predictions":[{"quantiles":{"0.1":[0.1],"0.5":[0.3,0.4],"0.9":[0.5,0.6]}}]}`},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			_, err := ParseInferenceResponse([]byte(td.body))
			require.NotNil(t, err)

			var svcErr *ServiceError
			assert.True(t, errors.As(err, &svcErr))
		})
	}
}

func TestServiceErrorMessage(t *testing.T) {
	withReason := &ServiceError{Op: "training", Reason: "AlgorithmError: bad channel"}
	assert.Contains(t, withReason.Error(), "AlgorithmError")

	wrapped := errors.New("throttled")
	withErr := &ServiceError{Op: "invoke endpoint", Err: wrapped}
	assert.Contains(t, withErr.Error(), "throttled")
	assert.ErrorIs(t, withErr, wrapped)
}
