// Package testing provides database setup and fixtures for integration tests
package testing

import (
	"context"
	"fmt"
	"math/rand"
	"net/url"
	"os"
	"strings"
	"sync"
	gotesting "testing"
	"time"

	"github.com/amirphl/Tsukuyomi/migrations"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB is a migrated database private to one test
type TestDB struct {
	DB        *gorm.DB
	Name      string
	URL       string
	serverURL string
}

var (
	serverOnce sync.Once
	serverURL  string
	serverErr  error
)

// testServerURL returns the maintenance URL of the PostgreSQL server used by
// integration tests: TEST_DATABASE_URL, then TEST_DB_* variables, then a
// throwaway container shared by the test binary.
func testServerURL() (string, error) {
	serverOnce.Do(func() {
		if u := os.Getenv("TEST_DATABASE_URL"); u != "" {
			serverURL = u
			return
		}
		if host := os.Getenv("TEST_DB_HOST"); host != "" {
			serverURL = (&url.URL{
				Scheme:   "postgres",
				User:     url.UserPassword(getEnv("TEST_DB_USER", "postgres"), getEnv("TEST_DB_PASSWORD", "postgres")),
				Host:     host + ":" + getEnv("TEST_DB_PORT", "5432"),
				Path:     "/postgres",
				RawQuery: "sslmode=" + getEnv("TEST_DB_SSL_MODE", "disable"),
			}).String()
			return
		}
		serverURL, serverErr = guardPanic(startContainer)
	})
	return serverURL, serverErr
}

const containerName = "tsukuyomi-test-postgres"

// guardPanic runs start and reports a panic as an error. testcontainers panics
// instead of failing when no docker provider can be found.
func guardPanic(start func() (string, error)) (u string, err error) {
	defer func() {
		if r := recover(); r != nil {
			u, err = "", fmt.Errorf("start postgres container: %v", r)
		}
	}()
	return start()
}

// startContainer runs postgres in docker. Every test binary of the module
// attaches to the same named container.
func startContainer() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := tcpostgres.Run(
		ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("postgres"),
		tcpostgres.WithUsername("tsukuyomi"),
		tcpostgres.WithPassword("tsukuyomi"),
		tcpostgres.BasicWaitStrategies(),
		testcontainers.WithReuseByName(containerName),
	)
	if err != nil {
		if container != nil {
			_ = testcontainers.TerminateContainer(container)
		}
		return "", fmt.Errorf("start postgres container: %w", err)
	}
	return container.ConnectionString(ctx, "sslmode=disable")
}

// SetupTestDB creates a uniquely named database, applies the embedded
// migrations and registers its removal with t.Cleanup. The test is skipped
// when no PostgreSQL server can be reached.
func SetupTestDB(t gotesting.TB) *TestDB {
	t.Helper()

	server, err := testServerURL()
	if err != nil {
		t.Skipf("integration database unavailable: %v", err)
	}

	name := fmt.Sprintf("tsukuyomi_test_%d_%d", time.Now().Unix(), rand.Intn(100000))
	if err := execMaintenance(server, "CREATE DATABASE "+name); err != nil {
		t.Skipf("integration database unavailable: %v", err)
	}

	dbURL, err := withDatabase(server, name)
	if err != nil {
		t.Fatalf("build test database url: %v", err)
	}

	tdb := &TestDB{Name: name, URL: dbURL, serverURL: server}
	t.Cleanup(func() {
		if err := tdb.Teardown(); err != nil {
			t.Logf("failed to drop test database %s: %v", name, err)
		}
	})

	if err := migrations.Up(dbURL, zerolog.Nop()); err != nil {
		t.Fatalf("migrate test database %s: %v", name, err)
	}

	tdb.DB, err = gorm.Open(postgres.Open(dbURL), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		t.Fatalf("connect to test database %s: %v", name, err)
	}
	return tdb
}

// Teardown closes the connection and drops the database
func (tdb *TestDB) Teardown() error {
	if tdb.DB != nil {
		if sqlDB, err := tdb.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}

	_ = execMaintenance(tdb.serverURL, fmt.Sprintf(
		"SELECT pg_terminate_backend(pid) FROM pg_stat_activity WHERE datname = '%s' AND pid <> pg_backend_pid()",
		tdb.Name))
	return execMaintenance(tdb.serverURL, "DROP DATABASE IF EXISTS "+tdb.Name)
}

// ClearAllTables removes all rows while preserving the schema
func (tdb *TestDB) ClearAllTables() error {
	tables := []string{
		"audit_log",
		"event_tags",
		"events",
		"tags",
		"calendar_users",
		"calendars",
		"users",
		"locations",
		"regions",
	}
	stmt := "TRUNCATE TABLE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE"
	if err := tdb.DB.Exec(stmt).Error; err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}
	return nil
}

func execMaintenance(serverURL, stmt string) error {
	db, err := gorm.Open(postgres.Open(serverURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return err
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()
	return db.Exec(stmt).Error
}

func withDatabase(serverURL, name string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", err
	}
	u.Path = "/" + name
	return u.String(), nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
