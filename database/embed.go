package database

import (
	"embed"
	"fmt"
	"io/fs"
)

// embeddedMigrations, her driver için ayrı dizinde tutulan SQL dosyalarını
// binary'ye gömer. Deploy edilen binary yanında migration dosyasına ihtiyaç yoktur.
//
//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var embeddedMigrations embed.FS

// MigrationsFor, driver'a ait migration alt dizinini döner.
func MigrationsFor(driver string) (fs.FS, error) {
	sub, err := fs.Sub(embeddedMigrations, "migrations/"+driver)
	if err != nil {
		return nil, fmt.Errorf("no migrations for driver %s: %w", driver, err)
	}
	return sub, nil
}
