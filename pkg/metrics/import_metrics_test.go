package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestImportMetrics_RecordAndWriteTextfile(t *testing.T) {
	m := NewImport(prometheus.NewRegistry())
	m.AddCreated("location", 2)
	m.AddCreated("location", 0)
	m.SetOrphans("location", 1)
	m.ObserveStage("loading", 150*time.Millisecond)
	m.RunFinished("full", "completed", true)

	require.Equal(t, float64(2), testutil.ToFloat64(m.entitiesTotal.WithLabelValues("location")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.orphans.WithLabelValues("location")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.lastRunSuccess))

	path := filepath.Join(t.TempDir(), "vault.prom")
	require.NoError(t, m.WriteTextfile(path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(b), "vault_import_runs_total"))
}
