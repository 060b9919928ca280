package enrich

import (
	"os"
	"slices"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/rolocard/enrich-cli/internal/model"
)

// SourcesFile configures source ordering and enablement. The merge
// precedence follows the listed order; sources left out of Order keep
// their default position.
type SourcesFile struct {
	Order    []model.SourceKind `yaml:"order"`
	Disabled []model.SourceKind `yaml:"disabled"`
}

// LoadSourcesFile reads a sources.yaml. A missing path returns the
// defaults rather than an error.
func LoadSourcesFile(path string) (*SourcesFile, error) {
	if path == "" {
		return &SourcesFile{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &SourcesFile{}, nil
		}
		return nil, eris.Wrapf(err, "enrich: read sources file %s", path)
	}

	var sf SourcesFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, eris.Wrapf(err, "enrich: parse sources file %s", path)
	}

	for _, k := range append(slices.Clone(sf.Order), sf.Disabled...) {
		if !slices.Contains(model.DefaultSourceOrder, k) {
			return nil, eris.Errorf("enrich: unknown source %q in %s", k, path)
		}
	}

	return &sf, nil
}

// ResolveOrder returns the effective precedence order: configured
// entries first, remaining defaults after, disabled sources removed.
func (sf *SourcesFile) ResolveOrder() []model.SourceKind {
	order := slices.Clone(sf.Order)
	for _, k := range model.DefaultSourceOrder {
		if !slices.Contains(order, k) {
			order = append(order, k)
		}
	}

	out := order[:0]
	for _, k := range order {
		if !slices.Contains(sf.Disabled, k) {
			out = append(out, k)
		}
	}
	return slices.Clip(out)
}
