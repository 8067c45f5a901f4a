package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOffset(t *testing.T) {
	loc := Offset(3)
	instant := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	require.Equal(t, 15, instant.In(loc).Hour())

	_, seconds := instant.In(loc).Zone()
	require.Equal(t, 3*3600, seconds)

	require.Equal(t, "UTC", Offset(0).String())
	require.Equal(t, "UTC-5", Offset(-5).String())
}
