package database

import (
	"net"
	"testing"
	"time"

	"gorm.io/gorm/logger"

	"github.com/farmkit/agrorent/internal/config"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]logger.LogLevel{
		"silent": logger.Silent,
		"ERROR":  logger.Error,
		"info":   logger.Info,
		"":       logger.Warn,
		"loud":   logger.Warn,
	}
	for in, want := range tests {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestConnectSQLiteMigrates(t *testing.T) {
	db, err := Connect(config.DatabaseConfig{Driver: "sqlite", SQLitePath: "file:connect_test?mode=memory&cache=shared", LogLevel: "silent"})
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer db.Close()

	if err := db.AutoMigrate(); err != nil {
		t.Fatalf("AutoMigrate failed: %v", err)
	}
	for _, table := range []string{"profiles", "machines", "bookings", "listings"} {
		if !db.Migrator().HasTable(table) {
			t.Errorf("Expected table %s", table)
		}
	}
}

func TestWaitPortFree(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port

	if err := waitPortFree(port, 0); err == nil {
		t.Error("Expected an error while the port is held")
	}
	ln.Close()
	if err := waitPortFree(port, time.Second); err != nil {
		t.Errorf("Expected the port to be free after close: %v", err)
	}
}
