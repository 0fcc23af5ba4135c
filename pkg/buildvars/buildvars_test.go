package buildvars

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseBuildDate(t *testing.T) {
	require.Nil(t, parseBuildDate(""))
	require.Nil(t, parseBuildDate("yesterday"))

	ts := parseBuildDate("1700000000")
	require.NotNil(t, ts)
	require.True(t, ts.Equal(time.Unix(1700000000, 0)))
}
