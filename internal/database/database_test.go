package database

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"testing"

	"ordersvc/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestOpen_SQLiteMigratesSchema(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := Open(context.Background(), DriverSQLite, dsn)
	require.NoError(t, err)
	defer Close(db)

	for _, table := range []string{"customers", "products", "orders", "order_items"} {
		assert.True(t, db.Migrator().HasTable(table), "expected table %s", table)
	}
}

func TestOpen_RejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "dsn")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestOpen_RejectsEmptyDSN(t *testing.T) {
	_, err := Open(context.Background(), DriverPostgres, "  ")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "DSN is empty")
}

func TestOpen_TranslatesUniqueViolations(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := Open(context.Background(), DriverSQLite, dsn)
	require.NoError(t, err)
	defer Close(db)

	first := models.Product{ID: uuid.NewString(), Name: "Mouse", Price: decimal.NewFromInt(25), Quantity: 1}
	second := models.Product{ID: uuid.NewString(), Name: "Mouse", Price: decimal.NewFromInt(30), Quantity: 1}
	require.NoError(t, db.Create(&first).Error)
	assert.ErrorIs(t, db.Create(&second).Error, gorm.ErrDuplicatedKey)
}

func TestOpen_LogsThroughLogrusWithoutNotFoundNoise(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := Open(context.Background(), DriverSQLite, dsn)
	require.NoError(t, err)
	defer Close(db)

	var product models.Product
	err = db.First(&product, "name = ?", "Monitor").Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.NotContains(t, buf.String(), "record not found")

	// Real failures still reach the logrus output.
	_ = db.Exec("SELECT * FROM missing_table").Error
	assert.Contains(t, buf.String(), "missing_table")
}
