package database

import (
	"bufio"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/farmkit/agrorent/internal/config"
	"github.com/farmkit/agrorent/internal/models"
)

// embeddedPassword is local to the embedded cluster, which only listens on localhost
const embeddedPassword = "postgres"

// DB wraps gorm.DB and includes a reference to an embedded process if active
type DB struct {
	*gorm.DB
	embedded *embeddedpostgres.EmbeddedPostgres
}

// Connect opens the configured store: SQLite, external PostgreSQL, or an embedded PostgreSQL
// when the host is localhost and no password is set.
func Connect(cfg config.DatabaseConfig) (*DB, error) {
	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(parseLogLevel(cfg.LogLevel)),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	switch {
	case cfg.Driver == "sqlite":
		log.Printf("📦 Mode: [SQLite] - %s", cfg.SQLitePath)
		db, err := OpenSQLite(cfg.SQLitePath, gormCfg)
		if err != nil {
			return nil, err
		}
		return &DB{DB: db}, nil

	case cfg.Host == "localhost" && cfg.Password == "":
		log.Printf("📦 Mode: [Embedded PostgreSQL] - data in %s", cfg.EmbeddedDir)
		embedded, err := startEmbedded(cfg)
		if err != nil {
			return nil, err
		}
		cfg.Port = strconv.Itoa(cfg.EmbeddedPort)
		cfg.Password = embeddedPassword

		db, err := openPostgres(cfg, gormCfg)
		if err != nil {
			_ = embedded.Stop()
			return nil, err
		}
		return &DB{DB: db, embedded: embedded}, nil

	default:
		log.Printf("🌐 Mode: [External PostgreSQL] - Connecting to %s:%s\n", cfg.Host, cfg.Port)
		db, err := openPostgres(cfg, gormCfg)
		if err != nil {
			return nil, err
		}
		return &DB{DB: db}, nil
	}
}

func openPostgres(cfg config.DatabaseConfig, gormCfg *gorm.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Database)

	db, err := gorm.Open(postgres.Open(dsn), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(50)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}
	log.Println("✅ Database connection established")
	return db, nil
}

// OpenSQLite opens a CGO-free SQLite database. A single connection keeps in-memory databases
// consistent and serializes writers.
func OpenSQLite(path string, gormCfg *gorm.Config) (*gorm.DB, error) {
	if gormCfg == nil {
		gormCfg = &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	}
	db, err := gorm.Open(sqlite.Open(path), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// startEmbedded boots the bundled PostgreSQL after clearing what a crashed run left behind
func startEmbedded(cfg config.DatabaseConfig) (*embeddedpostgres.EmbeddedPostgres, error) {
	reapStalePostmaster(cfg.EmbeddedDir)
	if err := waitPortFree(cfg.EmbeddedPort, 3*time.Second); err != nil {
		return nil, err
	}

	pg := embeddedpostgres.NewDatabase(embeddedpostgres.DefaultConfig().
		DataPath(cfg.EmbeddedDir).
		Port(uint32(cfg.EmbeddedPort)).
		Database(cfg.Database).
		Username(cfg.Username).
		Password(embeddedPassword))
	if err := pg.Start(); err != nil {
		return nil, fmt.Errorf("failed to start embedded database: %w", err)
	}
	log.Printf("✅ Embedded PostgreSQL started on port %d", cfg.EmbeddedPort)
	return pg, nil
}

// reapStalePostmaster stops an orphaned postmaster recorded in dir and removes its pid file
func reapStalePostmaster(dir string) {
	pidFile := filepath.Join(dir, "postmaster.pid")
	data, err := os.ReadFile(pidFile)
	if err != nil {
		return
	}

	// The first line is the PID
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	if !scanner.Scan() {
		return
	}
	pid, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
	if err != nil {
		log.Printf("⚠️  Could not parse PID from %s: %v", pidFile, err)
		return
	}
	defer os.Remove(pidFile)

	process, err := os.FindProcess(pid)
	if err != nil || !alive(process) {
		log.Printf("🧹 Removing stale %s (PID %d not running)", pidFile, pid)
		return
	}

	log.Printf("⚠️  Stopping orphaned PostgreSQL (PID %d)...", pid)
	_ = process.Signal(syscall.SIGTERM)
	for deadline := time.Now().Add(5 * time.Second); time.Now().Before(deadline); {
		time.Sleep(500 * time.Millisecond)
		if !alive(process) {
			return
		}
	}
	log.Printf("⚠️  PID %d ignored SIGTERM, killing", pid)
	process.Kill()
	time.Sleep(500 * time.Millisecond)
}

// alive probes with signal 0; FindProcess always succeeds on Unix
func alive(p *os.Process) bool {
	return p.Signal(syscall.Signal(0)) == nil
}

func waitPortFree(port int, wait time.Duration) error {
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	for deadline := time.Now().Add(wait); ; {
		conn, err := net.DialTimeout("tcp", addr, time.Second)
		if err != nil {
			return nil
		}
		conn.Close()
		if time.Now().After(deadline) {
			return fmt.Errorf("port %d is still in use by another process", port)
		}
		time.Sleep(500 * time.Millisecond)
	}
}

// Close ensures the database connection and embedded process are shut down
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err == nil {
		err = sqlDB.Close()
	}
	if db.embedded != nil {
		log.Println("🛑 Stopping Embedded PostgreSQL process...")
		if stopErr := db.embedded.Stop(); stopErr != nil && err == nil {
			err = stopErr
		}
	}
	return err
}

// AutoMigrate synchronizes the schema of every application model
func (db *DB) AutoMigrate() error {
	return Migrate(db.DB)
}

// Migrate runs GORM schema synchronization for models.All, then fills search keys on
// listings written before those columns existed.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return err
	}
	return backfillSearchKeys(db)
}

func backfillSearchKeys(db *gorm.DB) error {
	var stale []models.Listing
	if err := db.Where("name_key = '' OR location_key = ''").Find(&stale).Error; err != nil {
		return err
	}
	for i := range stale {
		stale[i].FillSearchKeys()
		err := db.Model(&stale[i]).UpdateColumns(map[string]interface{}{
			"name_key":     stale[i].NameKey,
			"location_key": stale[i].LocationKey,
		}).Error
		if err != nil {
			return err
		}
	}
	if len(stale) > 0 {
		log.Printf("🔎 Filled search keys for %d listings", len(stale))
	}
	return nil
}

func parseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
