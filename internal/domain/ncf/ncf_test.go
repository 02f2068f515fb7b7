package ncf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat_AnchoFijo(t *testing.T) {
	cases := []struct {
		code   string
		number int64
		want   string
	}{
		{"B", 1, "B0000000001"},
		{"B", 5, "B0000000005"},
		{"B01", 1, "B0100000001"},
		{"B02", 12345678, "B0212345678"},
		{"E310", 42, "E3100000042"},
	}
	for _, c := range cases {
		got, err := Format(c.code, c.number)
		require.NoError(t, err)
		assert.Equal(t, c.want, got)
		assert.Len(t, got, Width)
	}
}

func TestFormat_NumeroNoCabe(t *testing.T) {
	_, err := Format("B01", 100000000)
	assert.Error(t, err)
	_, err = Format("B01", 0)
	assert.Error(t, err)
	assert.Equal(t, int64(99999999), MaxNumber("B01"))
}

func TestValidateCode(t *testing.T) {
	assert.NoError(t, ValidateCode("B01"))
	assert.Error(t, ValidateCode(""))
	assert.Error(t, ValidateCode("B0123456789"))
	assert.Error(t, ValidateCode("B-1"))
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "B01", NormalizeCode("  b01 "))
}
