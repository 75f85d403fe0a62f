// Package storetest opens in-memory SQLite databases carrying the store
// schema for package tests.
package storetest

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var dbSeq atomic.Int64

var schema = []string{
	`CREATE TABLE products (
		id BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		sku TEXT NOT NULL UNIQUE,
		price NUMERIC(12,2) NOT NULL,
		discount_price NUMERIC(12,2),
		stock BIGINT NOT NULL DEFAULT 0,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		description TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE coupons (
		id BIGINT PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		description TEXT,
		discount_type TEXT NOT NULL,
		discount NUMERIC(12,2) NOT NULL,
		valid_from DATETIME NOT NULL,
		valid_to DATETIME NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE payment_methods (
		id BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		code TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		instructions TEXT NOT NULL DEFAULT '',
		requires_proof BOOLEAN NOT NULL DEFAULT FALSE,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		sort_order INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE orders (
		id BIGINT PRIMARY KEY,
		order_number TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL,
		user_id BIGINT,
		customer_name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL,
		ip_address TEXT,
		notes TEXT NOT NULL DEFAULT '',
		coupon_id BIGINT REFERENCES coupons(id) ON DELETE SET NULL,
		payment_method_id BIGINT REFERENCES payment_methods(id) ON DELETE SET NULL,
		payment_proof TEXT,
		discount_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
		total_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE order_items (
		id BIGINT PRIMARY KEY,
		order_id BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		product_id BIGINT NOT NULL REFERENCES products(id) ON DELETE RESTRICT,
		product_name TEXT NOT NULL,
		sku TEXT NOT NULL,
		unit_price NUMERIC(12,2) NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		subtotal NUMERIC(12,2) NOT NULL
	)`,
	`CREATE TABLE order_notes (
		id BIGINT PRIMARY KEY,
		order_id BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		user_id BIGINT,
		message TEXT NOT NULL,
		is_customer_note BOOLEAN NOT NULL DEFAULT FALSE,
		metadata TEXT,
		created_at DATETIME NOT NULL
	)`,
}

// Open returns a fresh shared-cache in-memory database with the store schema.
// The sqlite dialect renders locking clauses as nothing, so connections are
// capped at one and concurrent transactions serialize the way row locks would
// on PostgreSQL.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:storetest_%d_%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", time.Now().UnixNano(), dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

// Node returns a snowflake generator for test ids.
func Node(t testing.TB) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	return node
}

// ProductSeed describes a product row inserted by SeedProduct.
type ProductSeed struct {
	Name          string
	SKU           string
	Price         string
	DiscountPrice string
	Stock         int64
	Inactive      bool
}

// SeedProduct inserts a product and returns its id.
func SeedProduct(t testing.TB, db *gorm.DB, node *snowflake.Node, p ProductSeed) int64 {
	t.Helper()

	id := node.Generate().Int64()
	var discount decimal.NullDecimal
	if p.DiscountPrice != "" {
		discount = decimal.NewNullDecimal(decimal.RequireFromString(p.DiscountPrice))
	}
	now := time.Now().UTC()
	err := db.Exec(
		`INSERT INTO products (id, name, slug, sku, price, discount_price, stock, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, p.Name, strings.ToLower(p.SKU), p.SKU, decimal.RequireFromString(p.Price), discount, p.Stock, !p.Inactive, now, now,
	).Error
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return id
}

// Stock reads the current stock of a product.
func Stock(t testing.TB, db *gorm.DB, productID int64) int64 {
	t.Helper()
	var stock int64
	if err := db.Raw(`SELECT stock FROM products WHERE id = ?`, productID).Scan(&stock).Error; err != nil {
		t.Fatalf("read stock: %v", err)
	}
	return stock
}

// Count runs a COUNT query and returns the result.
func Count(t testing.TB, db *gorm.DB, query string, args ...any) int64 {
	t.Helper()
	var count int64
	if err := db.Raw(query, args...).Scan(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return count
}
