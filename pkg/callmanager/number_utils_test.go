package callmanager_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arzzra/call_manager/pkg/callmanager"
)

func TestIsEmergencyNumber(t *testing.T) {
	cases := []struct {
		number string
		want   bool
	}{
		{"112", true},
		{"911", true},
		{"08", true},
		{"+15551234", false},
		{"9111", false},
	}
	for _, tc := range cases {
		got, err := callmanager.IsEmergencyNumber(tc.number, 0)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "номер %s", tc.number)
	}

	_, err := callmanager.IsEmergencyNumber("", 0)
	require.Error(t, err)
	_, err = callmanager.IsEmergencyNumber("112", -1)
	require.Error(t, err)
}
