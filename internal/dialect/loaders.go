package dialect

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed fixtures/*.yaml
var fixturesFS embed.FS

// fixtureDoc mirrors the YAML shape of a dialect fixture file.
type fixtureDoc struct {
	Features        Features                      `yaml:"features"`
	BlockedFeatures BlockedFeatures                `yaml:"blocked_features"`
	TypeMap         map[string]TypeEntry           `yaml:"type_map"`
	Diagnostics     map[string]DiagnosticTemplate  `yaml:"diagnostics"`
}

// loadFixture builds an Adapter by name from its embedded
// fixtures/<name>.yaml file, the way config-heavy tools in the
// dependency pack externalize lookup tables instead of hardcoding
// them as Go literals.
func loadFixture(name string) (*Adapter, error) {
	data, err := fixturesFS.ReadFile(fmt.Sprintf("fixtures/%s.yaml", name))
	if err != nil {
		return nil, fmt.Errorf("no fixture for dialect %q: %w", name, err)
	}
	var doc fixtureDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing fixture for dialect %q: %w", name, err)
	}
	return &Adapter{
		Name:            name,
		Features:        doc.Features,
		TypeMap:         TypeMap(doc.TypeMap),
		BlockedFeatures: doc.BlockedFeatures,
		Diagnostics:     DiagnosticCatalog(doc.Diagnostics),
	}, nil
}

// builtinLoaders lists every dialect spec.md names: the core
// PostgreSQL family plus the adjacent dialects spec.md's GLOSSARY
// covers.
var builtinLoaders = map[string]func() (*Adapter, error){
	"postgres":    func() (*Adapter, error) { return loadFixture("postgres") },
	"cockroachdb": func() (*Adapter, error) { return loadFixture("cockroachdb") },
	"dsql":        func() (*Adapter, error) { return loadFixture("dsql") },
	"nile":        func() (*Adapter, error) { return loadFixture("nile") },
	"xata":        func() (*Adapter, error) { return loadFixture("xata") },
	"mysql":       func() (*Adapter, error) { return loadFixture("mysql") },
	"mariadb":     func() (*Adapter, error) { return loadFixture("mariadb") },
	"planetscale": func() (*Adapter, error) { return loadFixture("planetscale") },
	"sqlite":      func() (*Adapter, error) { return loadFixture("sqlite") },
	"turso":       func() (*Adapter, error) { return loadFixture("turso") },
}
