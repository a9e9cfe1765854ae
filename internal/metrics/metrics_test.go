package metrics_test

import (
	"context"
	"database/sql"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/mutker/fanctl/internal/condition"
	"codeberg.org/mutker/fanctl/internal/fixnum"
	"codeberg.org/mutker/fanctl/internal/frame"
	"codeberg.org/mutker/fanctl/internal/logger"
	"codeberg.org/mutker/fanctl/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func sampleFrame() frame.Frame {
	f := frame.New(frame.LayoutWithCondition)
	f.TempIn = fixnum.FromRaw[int16, fixnum.D1](215)
	f.RHIn = fixnum.FromRaw[int8, fixnum.D0](55)
	f.TempOut = fixnum.FromRaw[int16, fixnum.D1](-32)
	f.RHOut = fixnum.FromRaw[int8, fixnum.D0](90)
	f.Cond = condition.Damp
	f.Voltage = fixnum.FromRaw[int16, fixnum.D1](121)
	f.FanPower = frame.FlagOf(true)
	f.FanRPM = fixnum.FromRaw[int32, fixnum.D0](36000)
	f.Seal()
	return *f
}

func testConfig(t *testing.T) metrics.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := metrics.DefaultConfig()
	cfg.Enabled = true
	cfg.DBPath = filepath.Join(dir, "db", "history.db")
	cfg.BackupDir = filepath.Join(dir, "backups")
	cfg.BatchSize = 4
	cfg.BatchTimeout = 0
	return cfg
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, metrics.DefaultConfig().Validate())

	cfg := metrics.DefaultConfig()
	cfg.Enabled = true
	cfg.DBPath = ""
	assert.Error(t, cfg.Validate())
}

func TestRepositoryRoundTrip(t *testing.T) {
	cfg := testConfig(t)
	repo, err := metrics.NewRepository(cfg, logger.Get())
	require.NoError(t, err)

	cleared := frame.New(frame.LayoutCompact)

	require.NoError(t, repo.Record(&metrics.Snapshot{
		Timestamp: t0,
		Source:    metrics.SourceLocal,
		Valid:     true,
		Frame:     sampleFrame(),
		Status:    0xFD,
	}))
	require.NoError(t, repo.Record(&metrics.Snapshot{
		Timestamp: t0.Add(5 * time.Second),
		Source:    metrics.SourcePeer,
		Valid:     false,
		Frame:     *cleared,
	}))

	got, err := repo.Recent(10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, metrics.SourcePeer, got[0].Source)
	assert.False(t, got[0].Valid)
	assert.Equal(t, *cleared, got[0].Frame)
	assert.True(t, got[0].Timestamp.Equal(t0.Add(5*time.Second)))

	assert.Equal(t, metrics.SourceLocal, got[1].Source)
	assert.True(t, got[1].Valid)
	assert.Equal(t, sampleFrame(), got[1].Frame)
	assert.Equal(t, uint8(0xFD), got[1].Status)

	got, err = repo.Recent(1)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	require.NoError(t, repo.Close())
}

func TestRepositoryKeepsDataAcrossReopen(t *testing.T) {
	cfg := testConfig(t)

	repo, err := metrics.NewRepository(cfg, logger.Get())
	require.NoError(t, err)
	require.NoError(t, repo.Record(&metrics.Snapshot{Timestamp: t0, Source: metrics.SourceLocal, Valid: true, Frame: sampleFrame()}))
	require.NoError(t, repo.Close())

	repo, err = metrics.NewRepository(cfg, logger.Get())
	require.NoError(t, err)
	defer repo.Close()

	got, err := repo.Recent(10)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSchemaMismatchBacksUp(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755))

	db, err := sql.Open("sqlite3", cfg.DBPath)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE schema_versions (version INTEGER PRIMARY KEY, applied_at TEXT NOT NULL);
		INSERT INTO schema_versions VALUES (99, datetime('now'));`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	repo, err := metrics.NewRepository(cfg, logger.Get())
	require.NoError(t, err)
	defer repo.Close()

	backups, err := filepath.Glob(filepath.Join(cfg.BackupDir, "history_v99_*.db"))
	require.NoError(t, err)
	assert.Len(t, backups, 1)

	db, err = sql.Open("sqlite3", cfg.DBPath)
	require.NoError(t, err)
	defer db.Close()
	version, err := metrics.GetSchemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, metrics.SchemaVersion, version)
}

func TestServiceDisabled(t *testing.T) {
	reg := prometheus.NewRegistry()
	gauges := metrics.NewGauges(reg)

	svc, err := metrics.NewService(metrics.DefaultConfig(), gauges, logger.Get())
	require.NoError(t, err)

	require.NoError(t, svc.Record(context.Background(), &metrics.Snapshot{
		Timestamp: t0,
		Source:    metrics.SourceLocal,
		Valid:     true,
		Frame:     sampleFrame(),
		Status:    2,
	}))
	assert.Error(t, svc.Record(context.Background(), nil))

	got, err := svc.Recent(10)
	require.NoError(t, err)
	assert.Empty(t, got)

	assert.InDelta(t, 21.5, testutil.ToFloat64(gauges.Temperature.WithLabelValues("local", "indoor")), 1e-9)
	assert.InDelta(t, 36000, testutil.ToFloat64(gauges.FanRPM.WithLabelValues("local")), 1e-9)
	assert.Equal(t, 1.0, testutil.ToFloat64(gauges.FanPower.WithLabelValues("local")))
	assert.Equal(t, 1.0, testutil.ToFloat64(gauges.Condition.WithLabelValues("local", condition.Damp.String())))
	assert.Equal(t, 0.0, testutil.ToFloat64(gauges.Condition.WithLabelValues("local", condition.Dry.String())))
	assert.Equal(t, 2.0, testutil.ToFloat64(gauges.LinkStatus))
	assert.Equal(t, 1.0, testutil.ToFloat64(gauges.Frames.WithLabelValues("local", "ok")))

	require.NoError(t, svc.Close())
}

func TestServiceCancelled(t *testing.T) {
	svc, err := metrics.NewService(metrics.DefaultConfig(), nil, logger.Get())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, svc.Record(ctx, &metrics.Snapshot{}))
}

func TestGaugesUnavailable(t *testing.T) {
	gauges := metrics.NewGauges(prometheus.NewRegistry())
	cleared := frame.New(frame.LayoutWithCondition)

	gauges.Observe(&metrics.Snapshot{Source: metrics.SourcePeer, Frame: *cleared})

	assert.True(t, math.IsNaN(testutil.ToFloat64(gauges.Temperature.WithLabelValues("peer", "outdoor"))))
	assert.Equal(t, 1.0, testutil.ToFloat64(gauges.Frames.WithLabelValues("peer", "corrupt")))
	assert.Equal(t, 1.0, testutil.ToFloat64(gauges.Condition.WithLabelValues("peer", condition.Unknown.String())))
}
