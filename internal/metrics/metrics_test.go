package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecordHelpersIncrement(t *testing.T) {
	before := testutil.ToFloat64(invitationsTotal.WithLabelValues("created"))
	RecordInvitation("created")
	require.Equal(t, before+1, testutil.ToFloat64(invitationsTotal.WithLabelValues("created")))

	before = testutil.ToFloat64(orderingConflictsTotal.WithLabelValues("sets"))
	RecordOrderingConflict("sets")
	RecordOrderingConflict("sets")
	require.Equal(t, before+2, testutil.ToFloat64(orderingConflictsTotal.WithLabelValues("sets")))
}
