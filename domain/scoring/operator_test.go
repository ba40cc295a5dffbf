package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate_Numeric(t *testing.T) {
	cases := []struct {
		op       Operator
		actual   any
		compJSON string
		want     bool
	}{
		{OpEquals, float64(10), `10`, true},
		{OpEquals, float64(10), `11`, false},
		{OpNotEquals, float64(10), `11`, true},
		{OpGreaterThan, float64(10), `5`, true},
		{OpGreaterThan, float64(10), `10`, false},
		{OpGreaterOrEq, float64(10), `10`, true},
		{OpLessThan, float64(5), `10`, true},
		{OpLessOrEq, float64(10), `10`, true},
	}

	for _, c := range cases {
		got, err := evaluate(c.op, c.actual, []byte(c.compJSON))
		require.NoError(t, err)
		assert.Equal(t, c.want, got, "op=%s actual=%v comp=%s", c.op, c.actual, c.compJSON)
	}
}

func TestEvaluate_String(t *testing.T) {
	ok, err := evaluate(OpEquals, "alice@x", []byte(`"alice@x"`))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = evaluate(OpContains, "alice@example.com", []byte(`"example"`))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvaluate_In(t *testing.T) {
	ok, err := evaluate(OpIn, "US", []byte(`["US", "CA", "MX"]`))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = evaluate(OpIn, "FR", []byte(`["US", "CA", "MX"]`))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluate_TypeMismatchIsFalseNotError(t *testing.T) {
	ok, err := evaluate(OpGreaterThan, "not-a-number", []byte(`10`))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluate_UnknownOperator(t *testing.T) {
	_, err := evaluate(Operator("bogus"), 1, []byte(`1`))
	assert.Error(t, err)
}
