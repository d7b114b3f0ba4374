package metrics_test

import (
	"context"
	"os"
	"path/filepath"
	"subhunt/pkg/metrics"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_WriteTextfile(t *testing.T) {
	m, err := metrics.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })

	m.SubdomainsFound.WithLabelValues("example.com", "quick").Set(3)
	m.Discoveries.WithLabelValues("ok").Inc()

	counter, err := m.MeterProvider.Meter("subhunt/test").Int64Counter("crtsh.requests")
	require.NoError(t, err)
	counter.Add(context.Background(), 1)

	path := filepath.Join(t.TempDir(), "subhunt.prom")
	require.NoError(t, m.WriteTextfile(path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(b)
	require.Contains(t, content, `subhunt_subdomains_found{domain="example.com",mode="quick"} 3`)
	require.Contains(t, content, `subhunt_discoveries_total{outcome="ok"} 1`)
	require.Contains(t, content, "crtsh_requests")
}

func TestWriteTextfile_BadPath(t *testing.T) {
	m, err := metrics.New()
	require.NoError(t, err)

	err = m.WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "subhunt.prom"))
	require.Error(t, err)
}
