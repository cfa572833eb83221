package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var sqlFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

const (
	markerUp        = "-- +goose Up"
	markerDown      = "-- +goose Down"
	markerStmtBegin = "-- +goose StatementBegin"
	markerStmtEnd   = "-- +goose StatementEnd"
)

// Migration is one goose SQL file found on disk.
type Migration struct {
	Version string
	File    string
}

// ListMigrations returns the .sql migrations in dir ordered by version. A
// missing dir yields an empty list.
func ListMigrations(dir string) ([]Migration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read dir %q: %w", dir, err)
	}

	var out []Migration
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		m := sqlFileRe.FindStringSubmatch(e.Name())
		if m == nil {
			return nil, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", e.Name())
		}
		out = append(out, Migration{Version: m[1], File: e.Name()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// ValidateDir checks filenames, version uniqueness and that every file has
// an Up section before its Down section with balanced statement blocks.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("stat dir %q: %w", dir, err)
	}

	migrations, err := ListMigrations(dir)
	if err != nil {
		return err
	}
	for i, m := range migrations {
		if i > 0 && migrations[i-1].Version == m.Version {
			return fmt.Errorf("duplicate migration version %s in %q and %q", m.Version, migrations[i-1].File, m.File)
		}
		b, err := os.ReadFile(filepath.Join(dir, m.File))
		if err != nil {
			return fmt.Errorf("read file %q: %w", m.File, err)
		}
		if err := validateSQL(string(b)); err != nil {
			return fmt.Errorf("migration %q: %w", m.File, err)
		}
	}
	return nil
}

func validateSQL(txt string) error {
	up := strings.Index(txt, markerUp)
	down := strings.Index(txt, markerDown)
	switch {
	case up < 0:
		return fmt.Errorf("missing %q", markerUp)
	case down < 0:
		return fmt.Errorf("missing %q", markerDown)
	case down < up:
		return fmt.Errorf("%q must precede %q", markerUp, markerDown)
	}
	if begins, ends := strings.Count(txt, markerStmtBegin), strings.Count(txt, markerStmtEnd); begins != ends {
		return fmt.Errorf("unbalanced statement blocks: %d begin, %d end", begins, ends)
	}
	return nil
}
