package scoring

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wms-platform/slotting-service/internal/domain"
)

// WeightsFile is the on-disk shape of the scoring weight configuration
type WeightsFile struct {
	Weights domain.Weights `yaml:"weights"`
}

// LoadWeights reads scoring weights from a YAML file. An empty path or a
// missing file yields the platform defaults.
func LoadWeights(path string) (domain.Weights, error) {
	if path == "" {
		return domain.DefaultWeights(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.DefaultWeights(), nil
		}
		return domain.Weights{}, fmt.Errorf("reading weights file: %w", err)
	}

	var file WeightsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return domain.Weights{}, fmt.Errorf("parsing weights file: %w", err)
	}

	return file.Weights.Normalized(), nil
}
