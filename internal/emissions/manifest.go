package emissions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"gopkg.in/yaml.v3"
)

// ManifestFile is looked up in the data source before falling back to the
// default layout.
const ManifestFile = "manifest.yaml"

// Manifest lists the dataset file for each emissions sector.
type Manifest struct {
	Sectors []SectorSource `yaml:"sectors"`
}

type SectorSource struct {
	Name string `yaml:"name"`
	File string `yaml:"file"`
}

func (m Manifest) Validate() error {
	if len(m.Sectors) == 0 {
		return errors.New("manifest must list at least one sector")
	}

	seen := make(map[string]bool, len(m.Sectors))
	for i, sector := range m.Sectors {
		if sector.Name == "" {
			return fmt.Errorf("sector %d: name is required", i)
		}
		if sector.File == "" {
			return fmt.Errorf("sector %q: file is required", sector.Name)
		}
		if seen[sector.Name] {
			return fmt.Errorf("sector %q: duplicate name", sector.Name)
		}
		seen[sector.Name] = true
	}

	return nil
}

// DefaultManifest matches the layout the project has shipped with since the
// original challenge submission.
func DefaultManifest() Manifest {
	return Manifest{
		Sectors: []SectorSource{
			{Name: "transport", File: "TransportX2.csv"},
			{Name: "electricity", File: "ElectricityX3.csv"},
			{Name: "agriculture", File: "AgricultureX1.csv"},
		},
	}
}

// LoadManifest reads manifest.yaml from the source, falling back to the
// default layout when the source does not carry one.
func LoadManifest(ctx context.Context, src Source) (Manifest, error) {
	rc, err := src.Open(ctx, ManifestFile)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultManifest(), nil
	}
	if err != nil {
		return Manifest{}, err
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return Manifest{}, err
	}

	var manifest Manifest
	if err := yaml.Unmarshal(raw, &manifest); err != nil {
		return Manifest{}, fmt.Errorf("failed to parse %s: %w", ManifestFile, err)
	}

	if err := manifest.Validate(); err != nil {
		return Manifest{}, fmt.Errorf("invalid %s: %w", ManifestFile, err)
	}

	return manifest, nil
}
