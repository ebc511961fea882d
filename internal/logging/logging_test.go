package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	cases := []struct {
		verbose, json bool
		want          zapcore.Level
	}{
		{false, false, zapcore.WarnLevel},
		{false, true, zapcore.InfoLevel},
		{true, false, zapcore.DebugLevel},
		{true, true, zapcore.DebugLevel},
	}
	for _, tc := range cases {
		logger, err := New(tc.verbose, tc.json)
		require.NoError(t, err)
		assert.True(t, logger.Core().Enabled(tc.want), "verbose=%v json=%v", tc.verbose, tc.json)
		if tc.want > zapcore.DebugLevel {
			assert.False(t, logger.Core().Enabled(tc.want-1), "verbose=%v json=%v", tc.verbose, tc.json)
		}
	}
}
