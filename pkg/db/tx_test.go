package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type counter struct {
	ID    int64  `gorm:"primaryKey"`
	Name  string `gorm:"uniqueIndex"`
	Value int64
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, conn.AutoMigrate(&counter{}))
	return conn
}

func countRows(t *testing.T, conn *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(&counter{}).Count(&n).Error)
	return n
}

func TestTransactCommits(t *testing.T) {
	conn := openTestDB(t)

	err := Transact(context.Background(), conn, func(ctx context.Context, tx *gorm.DB) error {
		_, ok := TxFromContext(ctx)
		assert.True(t, ok)
		return tx.Create(&counter{ID: 1, Name: "a"}).Error
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), countRows(t, conn))
}

func TestTransactRollsBack(t *testing.T) {
	conn := openTestDB(t)
	boom := errors.New("boom")

	err := Transact(context.Background(), conn, func(ctx context.Context, tx *gorm.DB) error {
		require.NoError(t, tx.Create(&counter{ID: 1, Name: "a"}).Error)
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int64(0), countRows(t, conn))
}

func TestNestedTransactJoinsOuter(t *testing.T) {
	conn := openTestDB(t)
	boom := errors.New("boom")

	err := Transact(context.Background(), conn, func(ctx context.Context, tx *gorm.DB) error {
		if err := Transact(ctx, conn, func(ctx context.Context, inner *gorm.DB) error {
			return inner.Create(&counter{ID: 1, Name: "inner"}).Error
		}); err != nil {
			return err
		}
		// Conn resolves to the same transaction, so this write is visible here.
		var n int64
		require.NoError(t, Conn(ctx, conn).Model(&counter{}).Count(&n).Error)
		assert.Equal(t, int64(1), n)
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int64(0), countRows(t, conn))
}

func TestConnWithoutTransaction(t *testing.T) {
	conn := openTestDB(t)

	_, ok := TxFromContext(context.Background())
	assert.False(t, ok)

	require.NoError(t, Conn(context.Background(), conn).Create(&counter{ID: 1, Name: "a"}).Error)
	assert.Equal(t, int64(1), countRows(t, conn))
}

func TestIsDuplicateKeyErr(t *testing.T) {
	conn := openTestDB(t)
	require.NoError(t, conn.Create(&counter{ID: 1, Name: "a"}).Error)
	err := conn.Create(&counter{ID: 2, Name: "a"}).Error
	require.Error(t, err)
	assert.True(t, IsDuplicateKeyErr(err))

	assert.True(t, IsDuplicateKeyErr(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.True(t, IsDuplicateKeyErr(errors.New(`duplicate key value violates unique constraint "ux_orders_receipt_locator"`)))
	assert.False(t, IsDuplicateKeyErr(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsDuplicateKeyErr(nil))
	assert.False(t, IsDuplicateKeyErr(errors.New("connection reset")))
}
