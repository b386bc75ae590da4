package registrar

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderErrorRetryability(t *testing.T) {
	tests := []struct {
		category ErrorCategory
		retry    bool
	}{
		{ErrorTimeout, true},
		{ErrorOutage, true},
		{ErrorRateLimited, true},
		{ErrorAuthentication, false},
		{ErrorBadData, false},
		{ErrorNotFound, false},
		{ErrorBusiness, false},
		{ErrorInternal, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			err := fmt.Errorf("wrapped: %w", NewProviderError(tt.category, "mock", "renew", "boom", nil))
			assert.Equal(t, tt.retry, IsRetryable(err))
			assert.Equal(t, tt.category, CategoryOf(err))
		})
	}
}

func TestCategoryOf(t *testing.T) {
	assert.Equal(t, ErrorCategory(""), CategoryOf(nil))
	assert.Equal(t, ErrorTimeout, CategoryOf(fmt.Errorf("call: %w", context.DeadlineExceeded)))
	assert.Equal(t, ErrorBadData, CategoryOf(ValidateYears(0)))
	assert.Equal(t, ErrorInternal, CategoryOf(errors.New("mystery")))
}

func TestNormalize(t *testing.T) {
	assert.NoError(t, Normalize("mock", "renew", nil))

	ve := ValidateYears(0)
	assert.Same(t, ve, Normalize("mock", "renew", ve))

	err := Normalize("mock", "renew", context.DeadlineExceeded)
	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrorTimeout, pe.Category)
	assert.Equal(t, "renew", pe.Operation)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFailResultCarriesErrors(t *testing.T) {
	res, err := Fail[Renewal]("mock", ValidateRenew("bad_name.com", 0))
	require.Error(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "mock", res.Registrar)
	assert.Len(t, res.Errors, 2)
	assert.False(t, res.Timestamp.IsZero())

	ok := OK("mock", Renewal{Domain: "example.com"}, "")
	assert.True(t, ok.Success)
	assert.Empty(t, ok.Errors)
}
