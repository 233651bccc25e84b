package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/parisxmas/OxiDB/OxiForms/internal/config"
)

func TestGormLoggerRoutesToZap(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	gl := newGormLogger(zap.New(core), logger.Warn)
	sql := func() (string, int64) { return "SELECT 1", 0 }

	gl.Trace(context.Background(), time.Now(), sql, errors.New("boom"))
	gl.Trace(context.Background(), time.Now(), sql, gorm.ErrRecordNotFound)
	gl.Trace(context.Background(), time.Now().Add(-time.Second), sql, nil)
	gl.Trace(context.Background(), time.Now(), sql, nil)
	gl.Info(context.Background(), "ignored %d", 1)

	failed := logs.FilterMessage("query failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "gorm", failed[0].LoggerName)
	assert.Equal(t, "SELECT 1", failed[0].ContextMap()["sql"])
	assert.Equal(t, 1, logs.FilterMessage("slow query").Len())
	assert.Equal(t, 2, logs.Len())

	logs.TakeAll()
	gl.LogMode(logger.Silent).Trace(context.Background(), time.Now(), sql, errors.New("boom"))
	assert.Zero(t, logs.Len())
}

func TestOpenSQLiteLogsThroughZap(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	cfg := &config.Config{Store: "sqlite", DBDSN: filepath.Join(t.TempDir(), "open.db"), DBMaxConns: 1}

	backend, err := Open(context.Background(), cfg, zap.New(core))
	require.NoError(t, err)
	defer backend.Close()
	require.NoError(t, backend.Ping(context.Background()))
	require.NoError(t, backend.Stores.EnsureIndexes(context.Background()))

	_, err = backend.Stores.Forms.FindByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Zero(t, logs.FilterMessage("query failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("connected to database").Len())
}

func TestOpenRejectsUnknownStore(t *testing.T) {
	_, err := Open(context.Background(), &config.Config{Store: "excel"}, zap.NewNop())
	assert.Error(t, err)
}
