package datasource

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/omnibar/pkg/debug"
	"github.com/vanderheijden86/omnibar/pkg/model"
)

// SQLiteReader provides read access to an images database
type SQLiteReader struct {
	db   *sql.DB
	path string
}

// NewSQLiteReader opens a SQLite database for reading
func NewSQLiteReader(source DataSource) (*SQLiteReader, error) {
	if source.Type != SourceTypeSQLite {
		return nil, fmt.Errorf("source is not SQLite: %s", source.Type)
	}

	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", source.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA cache_size = -16000", // 16MB cache
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			debug.Log("datasource: %s failed: %v", pragma, err)
		}
	}

	return &SQLiteReader{
		db:   db,
		path: source.Path,
	}, nil
}

// Close closes the database connection
func (r *SQLiteReader) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// LoadImages reads every image from the database
func (r *SQLiteReader) LoadImages() ([]model.Image, error) {
	return r.LoadImagesFiltered(nil)
}

// LoadImagesFiltered reads images accepted by filter. Rows that fail to scan
// or validate are skipped.
func (r *SQLiteReader) LoadImagesFiltered(filter func(*model.Image) bool) ([]model.Image, error) {
	const query = `
		SELECT
			name, group_name, scaler, creator, generator,
			used_by, description, version, created_at
		FROM images
		ORDER BY group_name, name
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("query images in %s: %w", r.path, err)
	}
	defer rows.Close()

	var images []model.Image
	for rows.Next() {
		var img model.Image
		var scaler, creator, usedBy, description, version, createdAt sql.NullString
		var generator sql.NullBool

		if err := rows.Scan(
			&img.Name, &img.Group, &scaler, &creator, &generator,
			&usedBy, &description, &version, &createdAt,
		); err != nil {
			debug.Log("datasource: skipping row in %s: %v", r.path, err)
			continue
		}

		img.Scaler = model.Scaler(strings.ToLower(strings.TrimSpace(scaler.String)))
		img.Creator = strings.TrimSpace(creator.String)
		img.Generator = generator.Valid && generator.Bool
		img.UsedBy = parseJSONStringArray(usedBy.String)
		img.Description = description.String
		img.Version = version.String
		if createdAt.Valid {
			img.CreatedAt = parseTimestamp(createdAt.String)
		}

		if err := img.Validate(); err != nil {
			debug.Log("datasource: skipping row in %s: %v", r.path, err)
			continue
		}
		if filter != nil && !filter(&img) {
			continue
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate images in %s: %w", r.path, err)
	}
	return images, nil
}

// CountImages returns the number of rows in the images table
func (r *SQLiteReader) CountImages() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM images").Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// parseJSONStringArray parses a JSON array of strings
func parseJSONStringArray(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" || s == "[]" {
		return nil
	}

	var result []string
	if err := json.Unmarshal([]byte(s), &result); err != nil {
		// Fallback to simple parser for malformed JSON
		s = strings.TrimPrefix(s, "[")
		s = strings.TrimSuffix(s, "]")
		for _, item := range strings.Split(s, ",") {
			item = strings.TrimSpace(item)
			item = strings.Trim(item, `"`)
			if item != "" {
				result = append(result, item)
			}
		}
	}
	return result
}
