package supplier

import (
	"context"
	"fmt"

	"github.com/fekuna/omnipos-stock-sync-service/internal/model"
)

// Directory loads the suppliers a run should process.
type Directory interface {
	Load(ctx context.Context) ([]model.Supplier, error)
}

// ConfigError means the supplier directory could not be used at all. It is
// fatal to the whole run.
type ConfigError struct {
	Source string
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("supplier directory %s: %v", e.Source, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Filter keeps the suppliers whose GLN is listed, in directory order. An
// empty list keeps everything.
func Filter(suppliers []model.Supplier, glns []string) []model.Supplier {
	if len(glns) == 0 {
		return suppliers
	}
	wanted := make(map[string]struct{}, len(glns))
	for _, gln := range glns {
		wanted[gln] = struct{}{}
	}
	filtered := make([]model.Supplier, 0, len(glns))
	for _, s := range suppliers {
		if _, ok := wanted[s.GLN]; ok {
			filtered = append(filtered, s)
		}
	}
	return filtered
}
