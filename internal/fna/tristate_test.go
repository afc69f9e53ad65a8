package fna

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriStateOf(t *testing.T) {
	yes, no := true, false
	assert.Equal(t, Unknown, TriStateOf(nil))
	assert.Equal(t, Yes, TriStateOf(&yes))
	assert.Equal(t, No, TriStateOf(&no))
}

func TestTriStateBool(t *testing.T) {
	_, ok := Unknown.Bool()
	assert.False(t, ok)

	v, ok := Yes.Bool()
	assert.True(t, ok)
	assert.True(t, v)

	v, ok = No.Bool()
	assert.True(t, ok)
	assert.False(t, v)
}

func TestTriStateValue(t *testing.T) {
	v, err := Unknown.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = No.Value()
	require.NoError(t, err)
	assert.Equal(t, false, v)
}

func TestTriStateScan(t *testing.T) {
	cases := []struct {
		src  any
		want TriState
	}{
		{nil, Unknown},
		{true, Yes},
		{false, No},
		{int64(1), Yes},
		{int64(0), No},
		{[]byte("t"), Yes},
		{"false", No},
		{"", Unknown},
	}
	for _, tc := range cases {
		var got TriState
		require.NoError(t, got.Scan(tc.src), "%v", tc.src)
		assert.Equal(t, tc.want, got, "%v", tc.src)
	}

	var ts TriState
	assert.Error(t, ts.Scan("maybe"))
	assert.Error(t, ts.Scan(3.5))
}
