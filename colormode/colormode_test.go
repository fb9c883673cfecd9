package colormode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"dark", Dark, false},
		{" Dark ", Dark, false},
		{"light", Light, false},
		{"", Light, true},
		{"true", Light, true},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if tt.wantErr {
			require.Error(t, err, tt.in)
		} else {
			require.NoError(t, err, tt.in)
		}
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestToggleFlipsMode(t *testing.T) {
	assert.Equal(t, Dark, Light.Toggle())
	assert.Equal(t, Light, Dark.Toggle())
	assert.Equal(t, Dark, Mode("").Toggle())
	assert.Equal(t, Light, Light.Toggle().Toggle())
}

func TestClass(t *testing.T) {
	assert.Equal(t, DarkClass, Dark.Class())
	assert.Empty(t, Light.Class())
	assert.True(t, Dark.IsDark())
	assert.False(t, Light.IsDark())
}

func TestHeadScriptUsesSharedNames(t *testing.T) {
	s := HeadScript()
	assert.Contains(t, s, `localStorage.getItem("colorMode")`)
	assert.Contains(t, s, `c.add("dark-mode")`)
	assert.Contains(t, s, `c.remove("dark-mode")`)
	assert.NotContains(t, s, "is-dark")
}
