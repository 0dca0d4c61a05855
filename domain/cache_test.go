package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalParams_OrderInsensitive(t *testing.T) {
	a, err := CanonicalParams(map[string]any{"academic_year_id": 1, "months": 3})
	require.NoError(t, err)
	b, err := CanonicalParams(map[string]any{"months": 3, "academic_year_id": 1})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, `{"academic_year_id":1,"months":3}`, a)
}

func TestCanonicalParams_Empty(t *testing.T) {
	key, err := CanonicalParams(nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", key)

	key, err = CanonicalParams(map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "{}", key)
}

func TestCanonicalParams_DistinctValuesDistinctKeys(t *testing.T) {
	a, err := CanonicalParams(map[string]any{"academic_year_id": 1})
	require.NoError(t, err)
	b, err := CanonicalParams(map[string]any{"academic_year_id": 2})
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}
