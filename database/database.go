// Package database, veritabanı bağlantısını ve migration sistemini yönetir.
//
// İki driver desteklenir:
//   - "sqlite"   → modernc.org/sqlite (pure-Go, CGO gerekmez), varsayılan, tek dosya
//   - "postgres" → github.com/lib/pq, production kurulumları için
//
// Bağlantı jmoiron/sqlx ile sarılır. sqlx, database/sql'in üstüne struct
// scanning (db tag'leri) ve Rebind ekler: repository'ler sorguları "?"
// placeholder ile yazar, Rebind postgres için bunları $1, $2... yapar.
// Bu sayede aynı SQL iki driver'da da çalışır.
package database

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"  // "postgres" driver'ını kaydeder
	_ "modernc.org/sqlite" // "sqlite" driver'ını kaydeder
)

// Desteklenen driver adları.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

func init() {
	// modernc driver adı "sqlite"; sqlx bu adı "?" bind tipine eşlemeli.
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// recoverableErrors, migration sırasında tolere edilebilen hata pattern'larıdır.
// Yarım kalan bir migration tekrar çalıştırıldığında ALTER TABLE ADD COLUMN
// "duplicate column" hatası verir, kolon zaten eklenmiş demektir.
var recoverableErrors = []string{
	"duplicate column name",
	"already exists",
}

// DB, veritabanı bağlantısını saran struct.
type DB struct {
	Conn   *sqlx.DB
	Driver string
}

// New, yeni bir bağlantı açar ve migration'ları çalıştırır.
//
// sqlite için dsn bir dosya yoludur (":memory:" de olabilir);
// postgres için standart bağlantı URL'idir.
func New(driver, dsn string) (*DB, error) {
	var (
		conn *sqlx.DB
		err  error
	)

	switch driver {
	case DriverSQLite:
		conn, err = openSQLite(dsn)
	case DriverPostgres:
		conn, err = sqlx.Open(DriverPostgres, dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{Conn: conn, Driver: driver}

	migrations, err := MigrationsFor(driver)
	if err != nil {
		conn.Close()
		return nil, err
	}

	if err := db.runMigrations(migrations); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Printf("[database] connected (driver=%s) and migrations applied", driver)
	return db, nil
}

// openSQLite, SQLite bağlantısını pragma'larla açar.
//
//   - foreign_keys(1): FK constraint'leri aktif (SQLite'ta varsayılan kapalı)
//   - journal_mode(WAL): eşzamanlı okuma/yazma
//   - busy_timeout(5000): kilitli DB'de 5sn bekle
//   - _time_format=sqlite: time.Time değerleri sıralanabilir metin olarak yazılır
//
// SQLite tek yazıcılı bir motordur; tek bağlantı ile transaction'lar
// sıraya girer ve SQLITE_BUSY lock upgrade hataları oluşmaz.
func openSQLite(path string) (*sqlx.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_time_format=sqlite"
	conn, err := sqlx.Open(DriverSQLite, dsn)
	if err != nil {
		return nil, err
	}
	conn.SetMaxOpenConns(1)
	return conn, nil
}

// Close, veritabanı bağlantısını kapatır.
func (db *DB) Close() error {
	return db.Conn.Close()
}

// Migrate, migration'ları (tekrar) uygular. CLI'daki "migrate" komutu kullanır;
// New zaten çağırdığı için normalde no-op'tur.
func (db *DB) Migrate() error {
	migrations, err := MigrationsFor(db.Driver)
	if err != nil {
		return err
	}
	return db.runMigrations(migrations)
}

// runMigrations, migration dizinindeki SQL dosyalarını sırayla çalıştırır.
// Dosya isimleri sıralıdır: 001_init.sql, 002_seed.sql, ...
//
// schema_migrations tablosu hangi dosyaların uygulandığını takip eder;
// sonraki başlatmalarda sadece yeni dosyalar çalışır.
func (db *DB) runMigrations(migrationsFS fs.FS) error {
	if _, err := db.Conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename TEXT PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	entries, err := fs.ReadDir(migrationsFS, ".")
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var sqlFiles []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			sqlFiles = append(sqlFiles, entry.Name())
		}
	}
	sort.Strings(sqlFiles)

	var appliedList []string
	if err := db.Conn.Select(&appliedList, "SELECT filename FROM schema_migrations"); err != nil {
		return fmt.Errorf("failed to query schema_migrations: %w", err)
	}
	applied := make(map[string]bool, len(appliedList))
	for _, name := range appliedList {
		applied[name] = true
	}

	for _, file := range sqlFiles {
		if applied[file] {
			continue
		}

		content, err := fs.ReadFile(migrationsFS, file)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file, err)
		}

		if err := db.execStatements(file, string(content)); err != nil {
			return err
		}

		if _, err := db.Conn.Exec(
			db.Conn.Rebind("INSERT INTO schema_migrations (filename) VALUES (?)"), file,
		); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", file, err)
		}

		log.Printf("[database] migration applied: %s", file)
	}

	return nil
}

// execStatements, bir migration dosyasını statement-by-statement çalıştırır.
// Recoverable hatalar loglanıp atlanır.
func (db *DB) execStatements(filename, content string) error {
	for i, stmt := range splitStatements(content) {
		if _, err := db.Conn.Exec(stmt); err != nil {
			errMsg := err.Error()
			recoverable := false
			for _, pattern := range recoverableErrors {
				if strings.Contains(errMsg, pattern) {
					recoverable = true
					break
				}
			}

			if recoverable {
				log.Printf("[database] %s: statement %d skipped (recoverable: %s)", filename, i+1, errMsg)
				continue
			}

			return fmt.Errorf("failed to execute migration %s (statement %d): %w", filename, i+1, err)
		}
	}

	return nil
}

// splitStatements, SQL metnini noktalı virgülden böler; tek tırnaklı string
// literal'lerin içindeki noktalı virgülleri ve "--" satır yorumlarını yoksayar.
func splitStatements(sql string) []string {
	var statements []string
	var current strings.Builder
	inString := false

	for i := 0; i < len(sql); i++ {
		ch := sql[i]

		if !inString && ch == '-' && i+1 < len(sql) && sql[i+1] == '-' {
			for i < len(sql) && sql[i] != '\n' {
				i++
			}
			current.WriteByte('\n')
			continue
		}

		if ch == '\'' {
			if inString && i+1 < len(sql) && sql[i+1] == '\'' {
				current.WriteByte(ch)
				current.WriteByte(sql[i+1])
				i++
				continue
			}
			inString = !inString
		}

		if ch == ';' && !inString {
			if s := strings.TrimSpace(current.String()); s != "" {
				statements = append(statements, s)
			}
			current.Reset()
			continue
		}

		current.WriteByte(ch)
	}

	if s := strings.TrimSpace(current.String()); s != "" {
		statements = append(statements, s)
	}

	return statements
}
