package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fekuna/omnipos-stock-sync-service/config"
	"github.com/fekuna/omnipos-stock-sync-service/internal/stock/dto"
	"github.com/fekuna/omnipos-stock-sync-service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqliteConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.LoadEnv()
	cfg.Database.Driver = "sqlite3"
	cfg.Database.SQLitePath = ":memory:"
	cfg.Redis.Addr = ""
	cfg.Kafka.Brokers = nil
	cfg.Elastic.Addresses = nil
	cfg.Retailer.GLN = "4399902421386"

	path := filepath.Join(t.TempDir(), "suppliers.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"supplier_id": 87, "supplier_gln": "4042834000005", "supplier_name": "Josef Seibel"}]`), 0o600))
	cfg.Sync.SuppliersConfigPath = path
	return cfg
}

func TestNew_WiresLocalStack(t *testing.T) {
	cfg := sqliteConfig(t)
	a, err := New(context.Background(), cfg, logger.NewNop())
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, "sqlite3", a.DB.DriverName())
	assert.Nil(t, a.Redis)
	assert.Equal(t, "4399902421386", a.Retailer.GLN)

	suppliers, err := a.Directory.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, suppliers, 1)

	stats, err := a.UseCase.GetStatistics(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.PairCount)
}

func TestNew_RejectsUnknownDriver(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.Database.Driver = "oracle"

	_, err := New(context.Background(), cfg, logger.NewNop())
	assert.ErrorContains(t, err, "unsupported DB_DRIVER")
}

func TestApp_FetchOptions(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.Sync.BatchSize = 0
	cfg.Sync.MaxWorkers = 4

	a := &App{Config: cfg}
	assert.Equal(t, dto.FetchOptions{BatchSize: dto.DefaultBatchSize, MaxWorkers: 4}, a.FetchOptions())
}
