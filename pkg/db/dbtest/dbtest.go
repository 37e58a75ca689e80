// Package dbtest opens throwaway sqlite databases carrying the full schema.
package dbtest

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/orderflow-backend/pkg/db"
	"github.com/angelmondragon/orderflow-backend/pkg/db/models"
)

// Open returns a migrated sqlite connection backed by a file in t.TempDir().
// Writers take the database lock at BEGIN so concurrent transactions
// serialize instead of failing on upgrade.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "orderflow.db")
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_txlock=immediate&_foreign_keys=1", path)
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}

// Client wraps Open in the shared db.Client so services get WithTx.
func Client(t testing.TB) *db.Client {
	t.Helper()
	return db.NewFromConn(Open(t))
}

// SeedProduct inserts a product with the given available stock.
func SeedProduct(t testing.TB, conn *gorm.DB, sku string, priceCents int64, available int) *models.Product {
	t.Helper()
	product := &models.Product{SKU: sku, Name: sku, PriceCents: priceCents}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("seed product %s: %v", sku, err)
	}
	item := &models.InventoryItem{ProductID: product.ID, AvailableQty: available}
	if err := conn.Create(item).Error; err != nil {
		t.Fatalf("seed inventory %s: %v", sku, err)
	}
	return product
}

// Available reads the current available quantity for productID.
func Available(t testing.TB, conn *gorm.DB, productID any) int {
	t.Helper()
	var item models.InventoryItem
	if err := conn.Where("product_id = ?", productID).Take(&item).Error; err != nil {
		t.Fatalf("read inventory: %v", err)
	}
	return item.AvailableQty
}
