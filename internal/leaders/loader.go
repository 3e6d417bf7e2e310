package leaders

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoadFromDataDir loads the leader CSVs from a data directory (best-effort).
// It expects at least leaders.csv; custom_leaders.csv is optional and its
// rows replace catalog rows with the same id.
func LoadFromDataDir(dataDir string) (*Catalog, error) {
	files := []string{
		filepath.Join(dataDir, "leaders.csv"),
		filepath.Join(dataDir, "custom_leaders.csv"),
	}

	var all []Leader
	var found bool
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			// skip missing files
			continue
		}
		found = true
		ls, err := loadSingleCSV(f)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
		all = append(all, ls...)
	}
	if !found {
		return nil, fmt.Errorf("no leader CSVs found in %s", dataDir)
	}
	return NewCatalog(all), nil
}

func parseScope(s string) Scope {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ut", "union territory":
		return ScopeUT
	default:
		return ScopeState
	}
}

func loadSingleCSV(path string) ([]Leader, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fp.Close()

	r := csv.NewReader(fp)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf("csv %s has no header", path)
	}
	cols := map[string]int{}
	for i, h := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := cols["id"]; !ok {
		return nil, fmt.Errorf("csv %s has no id column", path)
	}

	get := func(row []string, name string) string {
		if idx, ok := cols[name]; ok && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	out := []Leader{}
	for _, row := range rows[1:] {
		l := Leader{
			ID:       get(row, "id"),
			Name:     get(row, "name"),
			Scope:    parseScope(get(row, "scope")),
			Region:   get(row, "region"),
			ImageURL: get(row, "image_url"),
		}
		if l.ID == "" {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}
