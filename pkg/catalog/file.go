package catalog

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/songo-bi/songo-engine/pkg/models"
)

// fileCatalog is the YAML shape of a catalog file. Tables reference their
// owning database by name; IDs may be given explicitly or derived
// deterministically from the name so the same file always yields the same
// catalog.
type fileCatalog struct {
	Databases []fileDatabase `yaml:"databases"`
	Tables    []fileTable    `yaml:"tables"`
}

type fileDatabase struct {
	ID           string         `yaml:"id"`
	Name         string         `yaml:"name"`
	Type         string         `yaml:"type"`
	Config       map[string]any `yaml:"config"`
	CacheTimeout int            `yaml:"cache_timeout"`
}

type fileTable struct {
	ID       string       `yaml:"id"`
	Database string       `yaml:"database"`
	Name     string       `yaml:"name"`
	Schema   string       `yaml:"schema"`
	Columns  []fileColumn `yaml:"columns"`
}

type fileColumn struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	IsDatetime bool   `yaml:"is_dttm"`
	Groupby    *bool  `yaml:"groupby"`
	Filterable *bool  `yaml:"filterable"`
	Expression string `yaml:"expression"`
}

// LoadFile reads a catalog definition from a YAML file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return Parse(data)
}

// Parse builds a catalog from YAML bytes.
func Parse(data []byte) (*Catalog, error) {
	var file fileCatalog
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog file: %w", err)
	}

	cat := New()
	dbByName := make(map[string]uuid.UUID, len(file.Databases))

	for _, fd := range file.Databases {
		id, err := parseOrDeriveID(fd.ID, "database:"+fd.Name)
		if err != nil {
			return nil, fmt.Errorf("database %q: %w", fd.Name, err)
		}
		db := &models.Database{
			ID:           id,
			Name:         fd.Name,
			Type:         fd.Type,
			Config:       fd.Config,
			CacheTimeout: fd.CacheTimeout,
		}
		if err := cat.RegisterDatabase(db); err != nil {
			return nil, err
		}
		dbByName[fd.Name] = id
	}

	for _, ft := range file.Tables {
		dbID, ok := dbByName[ft.Database]
		if !ok {
			return nil, fmt.Errorf("table %q references unknown database %q", ft.Name, ft.Database)
		}
		id, err := parseOrDeriveID(ft.ID, "table:"+ft.Database+":"+ft.Schema+":"+ft.Name)
		if err != nil {
			return nil, fmt.Errorf("table %q: %w", ft.Name, err)
		}

		columns := make([]models.Column, 0, len(ft.Columns))
		for _, fc := range ft.Columns {
			columns = append(columns, models.Column{
				Name:       fc.Name,
				Type:       fc.Type,
				IsDatetime: fc.IsDatetime,
				Groupby:    boolOrDefault(fc.Groupby, true),
				Filterable: boolOrDefault(fc.Filterable, true),
				Expression: fc.Expression,
			})
		}

		table := &models.Table{
			ID:         id,
			DatabaseID: dbID,
			Name:       ft.Name,
			Schema:     ft.Schema,
			Columns:    columns,
		}
		if err := cat.RegisterTable(table); err != nil {
			return nil, err
		}
	}

	return cat, nil
}

// parseOrDeriveID parses an explicit UUID, or derives a stable one from the
// seed so catalog files without IDs keep working across restarts.
func parseOrDeriveID(explicit, seed string) (uuid.UUID, error) {
	if explicit != "" {
		id, err := uuid.Parse(explicit)
		if err != nil {
			return uuid.Nil, fmt.Errorf("invalid id %q: %w", explicit, err)
		}
		return id, nil
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)), nil
}

func boolOrDefault(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
