package repositories

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err, "open sqlite")
	return db
}

func mustExec(t *testing.T, db *gorm.DB, q string, args ...interface{}) {
	t.Helper()
	require.NoError(t, db.Exec(q, args...).Error, "exec failed: query=%s", q)
}

func createAgentTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE agents (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		status TEXT NOT NULL,
		risk_tier TEXT NOT NULL,
		public_key TEXT NOT NULL,
		api_key_hash TEXT,
		created_at DATETIME,
		updated_at DATETIME,
		deleted_at DATETIME
	);`)
}

func createPolicyTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE policies (
		id TEXT PRIMARY KEY,
		agent_id TEXT NOT NULL,
		version INTEGER NOT NULL,
		vendor_allowlist TEXT NOT NULL DEFAULT '[]',
		amount_cap INTEGER NOT NULL,
		daily_cap INTEGER NOT NULL,
		risk_tier TEXT NOT NULL,
		direct_rail BOOLEAN NOT NULL DEFAULT 0,
		expires_at DATETIME NOT NULL,
		created_at DATETIME,
		UNIQUE (agent_id, version)
	);`)
}

func createIntentTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE purchase_intents (
		id TEXT PRIMARY KEY,
		agent_id TEXT NOT NULL,
		vendor TEXT NOT NULL,
		amount INTEGER NOT NULL,
		currency TEXT NOT NULL,
		description TEXT,
		metadata TEXT DEFAULT '{}',
		status TEXT NOT NULL,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

func createMandateTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE mandates (
		id TEXT PRIMARY KEY,
		intent_id TEXT NOT NULL UNIQUE,
		agent_id TEXT NOT NULL,
		policy_id TEXT NOT NULL,
		vendor TEXT NOT NULL,
		amount INTEGER NOT NULL,
		currency TEXT NOT NULL,
		signature TEXT NOT NULL,
		hash TEXT NOT NULL,
		public_key TEXT NOT NULL,
		status TEXT NOT NULL,
		issued_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

func createPaymentTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE payments (
		id TEXT PRIMARY KEY,
		mandate_id TEXT NOT NULL,
		agent_id TEXT NOT NULL,
		rail TEXT NOT NULL,
		rail_reason TEXT,
		provider_ref TEXT,
		amount INTEGER NOT NULL,
		currency TEXT NOT NULL,
		status TEXT NOT NULL,
		settled_mandate_id TEXT UNIQUE,
		settled_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

func createReceiptTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE receipts (
		id TEXT PRIMARY KEY,
		payment_id TEXT NOT NULL UNIQUE,
		agent_id TEXT NOT NULL,
		chain_index INTEGER NOT NULL,
		prev_hash TEXT,
		hash TEXT NOT NULL,
		created_at DATETIME,
		UNIQUE (agent_id, chain_index)
	);`)
}

func createIdempotencyTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE idempotency (
		route TEXT NOT NULL,
		key TEXT NOT NULL,
		request_fingerprint TEXT NOT NULL,
		status TEXT NOT NULL,
		status_code INTEGER,
		response_body TEXT,
		created_at DATETIME,
		PRIMARY KEY (route, key)
	);`)
}

func createVendorEndpointTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE vendor_direct_endpoints (
		id TEXT PRIMARY KEY,
		vendor TEXT NOT NULL UNIQUE,
		endpoint_url TEXT NOT NULL,
		vendor_public_key TEXT,
		enabled BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

func createDeadLetterTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE webhook_dead_letters (
		id TEXT PRIMARY KEY,
		rail TEXT NOT NULL,
		event_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		payload TEXT,
		error TEXT,
		created_at DATETIME
	);`)
}

func createAllTables(t *testing.T, db *gorm.DB) {
	createAgentTable(t, db)
	createPolicyTable(t, db)
	createIntentTable(t, db)
	createMandateTable(t, db)
	createPaymentTable(t, db)
	createReceiptTable(t, db)
	createIdempotencyTable(t, db)
	createVendorEndpointTable(t, db)
	createDeadLetterTable(t, db)
}
