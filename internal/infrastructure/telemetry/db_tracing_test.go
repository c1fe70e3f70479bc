package telemetry_test

import (
	"context"
	"testing"

	"github.com/erp/orderstats/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type tracedRow struct {
	ID   uint
	Name string
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&tracedRow{}))
	return db
}

func TestRegisterDBTracing_Disabled(t *testing.T) {
	db := openTestDB(t)

	err := telemetry.RegisterDBTracing(db, telemetry.DefaultDBTracingConfig(), zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, db.Callback().Query().Get("orderstats:after_query"))
}

func TestRegisterDBTracing_RecordsSpans(t *testing.T) {
	sr := setupTestTracer(t)
	db := openTestDB(t)

	cfg := telemetry.DefaultDBTracingConfig()
	cfg.Enabled = true
	require.NoError(t, telemetry.RegisterDBTracing(db, cfg, zap.NewNop()))

	ctx, span := telemetry.StartSpan(context.Background(), "seed")
	require.NoError(t, db.WithContext(ctx).Create(&tracedRow{Name: "alice"}).Error)
	var rows []tracedRow
	require.NoError(t, db.WithContext(ctx).Find(&rows).Error)
	span.End()

	assert.Len(t, rows, 1)
	assert.Greater(t, len(sr.Ended()), 1)
}
