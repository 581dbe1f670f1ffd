package role

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveEquivalentQueries(t *testing.T) {
	t.Parallel()

	queries := []string{
		"Key Expert 1",
		"key expert 1",
		"key expert1",
		"KE 1",
		"KE1",
		"(Key Expert 1)",
		"  Key   Expert\t1 ",
		"Expert 1",
	}

	for _, q := range queries {
		q := q
		t.Run(q, func(t *testing.T) {
			t.Parallel()
			id := Resolve(q)
			require.NotNil(t, id.Number, "expected number-based identifier")
			assert.Equal(t, 1, *id.Number)
			assert.Equal(t, []string{"expert 1", "ke 1", "ke1", "key expert 1"}, id.Aliases)
			assert.Equal(t, "Key Expert 1", id.String())
		})
	}
}

func TestResolveNameBased(t *testing.T) {
	id := Resolve("Team Leader (Procurement)")

	assert.False(t, id.NumberBased())
	assert.Nil(t, id.Number)
	assert.Equal(t, "team leader procurement", id.Normalized)
	assert.Equal(t, []string{"team leader procurement"}, id.Aliases)
	assert.Equal(t, "Team Leader (Procurement)", id.Raw)
}

func TestResolveMultiDigit(t *testing.T) {
	id := Resolve("Key Expert 12 - Legal")
	require.NotNil(t, id.Number)
	assert.Equal(t, 12, *id.Number)
}

func TestResolveEmpty(t *testing.T) {
	id := Resolve("   ")
	assert.Nil(t, id.Number)
	assert.Empty(t, id.Aliases)
	assert.Equal(t, "", id.String())
}
