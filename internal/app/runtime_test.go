package app

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTestModeParsesTruthyValues(t *testing.T) {
	for _, v := range []string{"1", "true", "TRUE"} {
		t.Setenv(testModeEnv, v)
		RefreshTestMode()
		require.True(t, InTestMode(), "value %q", v)
	}

	for _, v := range []string{"", "0", "off"} {
		t.Setenv(testModeEnv, v)
		RefreshTestMode()
		require.False(t, InTestMode(), "value %q", v)
	}
}
