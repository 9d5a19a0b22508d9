package anthropic

import (
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/targeting-cli/internal/resilience"
)

func TestClassifyError_TagsRetryableStatuses(t *testing.T) {
	for _, code := range []int{429, 500, 529} {
		err := classifyError(&sdk.Error{StatusCode: code})

		var te *resilience.TransientError
		require.ErrorAs(t, err, &te, "status %d", code)
		assert.Equal(t, code, te.StatusCode)
		assert.True(t, resilience.IsTransient(err))
	}
}

func TestClassifyError_LeavesPermanentErrorsAlone(t *testing.T) {
	apiErr := &sdk.Error{StatusCode: 400}
	assert.False(t, resilience.IsTransient(classifyError(apiErr)))

	plain := eris.New("request marshal failed")
	assert.Same(t, plain, classifyError(plain))
}

func TestEstimateCost_KnownModels(t *testing.T) {
	usage := TokenUsage{InputTokens: 1_000_000, OutputTokens: 1_000_000}

	sonnet := usage.EstimateCost("claude-sonnet-4-5-20250929")
	haiku := usage.EstimateCost("claude-haiku-4-5-20251001")

	assert.Greater(t, sonnet, 0.0)
	assert.Greater(t, haiku, 0.0)
	assert.Less(t, haiku, sonnet, "the haiku tier prices below sonnet")
}
