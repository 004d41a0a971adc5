package models

import "testing"

func TestInitDBInstallsTracingAndMigrates(t *testing.T) {
	if err := InitDB("sqlite", "file:initdb_test?mode=memory&cache=shared", "silent", DBPoolConfig{MaxOpenConns: 1, MaxIdleConns: 1}); err != nil {
		t.Fatalf("init db failed: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
		DB = nil
	})
	if _, ok := DB.Config.Plugins["otelgorm"]; !ok {
		t.Fatalf("otelgorm plugin should be registered")
	}
	if err := AutoMigrate(); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	if !DB.Migrator().HasTable(&MovementLine{}) || !DB.Migrator().HasTable(&LowStockAlert{}) {
		t.Fatalf("ledger tables should exist after migrate")
	}
}

func TestParseLogLevelFallsBackToWarn(t *testing.T) {
	if parseLogLevel("INFO") == parseLogLevel("bogus") {
		t.Fatalf("info should differ from fallback")
	}
	if parseLogLevel("") != parseLogLevel("warn") {
		t.Fatalf("empty level should fall back to warn")
	}
}

func TestOpenDialectorDrivers(t *testing.T) {
	if _, err := openDialector("oracle", "dsn"); err == nil {
		t.Fatalf("unknown driver should fail")
	}
	for _, driver := range []string{"", "sqlite", "Postgres", "mysql"} {
		if _, err := openDialector(driver, "dsn"); err != nil {
			t.Fatalf("driver %q should be supported: %v", driver, err)
		}
	}
}
