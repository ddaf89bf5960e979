package cli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Watch mode runs the mooring and ctd unifications back to back on every
// debounce event, so acquiring the metrics set a second time must reuse the
// first registration instead of hitting the default registry again.
func TestProcessMetricsSharedAcrossRuns(t *testing.T) {
	first := processMetrics()
	require.NotNil(t, first)

	require.NotPanics(t, func() {
		require.Same(t, first, processMetrics())
	})
}
