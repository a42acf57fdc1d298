// Package mesh reads and validates UCVM mesh-extraction configuration
// files: the XML document handed to ucvm_mesh_create_mpi.
package mesh

import (
	"encoding/xml"
	"fmt"
	"os"
	"strings"

	"github.com/meihuisu/UCVM-reallyOld/internal/utils"
)

// Dimensions holds the mesh grid size in points along each axis.
type Dimensions struct {
	X int `xml:"x"`
	Y int `xml:"y"`
	Z int `xml:"z"`
}

// InitialPoint is the mesh origin: the bottom-left corner in the given
// projection, with depth_elev selecting depth (0) or elevation (1) mode.
type InitialPoint struct {
	X          float64 `xml:"x"`
	Y          float64 `xml:"y"`
	Z          float64 `xml:"z"`
	DepthElev  int     `xml:"depth_elev"`
	Projection string  `xml:"projection"`
}

// Minimums clamps extracted material properties to physical floors.
type Minimums struct {
	Vp float64 `xml:"vp"`
	Vs float64 `xml:"vs"`
}

// Config mirrors the <root> document of a UCVM mesh configuration file.
type Config struct {
	XMLName      xml.Name     `xml:"root"`
	MeshName     string       `xml:"mesh_name"`
	Dimensions   Dimensions   `xml:"dimensions"`
	InitialPoint InitialPoint `xml:"initial_point"`
	CvmList      string       `xml:"cvm_list"`
	GridType     string       `xml:"grid_type"`
	Spacing      float64      `xml:"spacing"`
	Projection   string       `xml:"projection"`
	Rotation     float64      `xml:"rotation"`
	Format       string       `xml:"format"`
	OutDir       string       `xml:"out_dir"`
	ScratchDir   string       `xml:"scratch_dir"`
	Minimums     *Minimums    `xml:"minimums"`

	// Path the config was loaded from; not part of the document.
	Path string `xml:"-"`
}

// knownFormats are the mesh output formats ucvm_mesh_create_mpi can write.
var knownFormats = map[string]bool{
	"awp":          true,
	"rwg":          true,
	"sord":         true,
	"ijk-12":       true,
	"ijk-20":       true,
	"ijk-32":       true,
	"unstructured": false, // recognized but not extractable in parallel
}

// Load reads and parses a mesh configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, err
	}

	var cfg Config
	if err := xml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedConfig, err)
	}
	cfg.Path = path

	cfg.CvmList = strings.TrimSpace(cfg.CvmList)
	cfg.Format = strings.ToLower(strings.TrimSpace(cfg.Format))
	cfg.GridType = strings.ToLower(strings.TrimSpace(cfg.GridType))

	return &cfg, nil
}

// Models splits the cvm_list into individual model identifiers. UCVM
// separates stacked models with commas; tiling order is preserved.
func (c *Config) Models() []string {
	var models []string
	for _, m := range strings.Split(c.CvmList, ",") {
		m = strings.TrimSpace(m)
		if m != "" {
			models = append(models, m)
		}
	}
	return models
}

// TotalPoints returns the grid point count, guarding against overflow on
// absurd dimension values.
func (c *Config) TotalPoints() (int64, error) {
	x, y, z := int64(c.Dimensions.X), int64(c.Dimensions.Y), int64(c.Dimensions.Z)
	if x <= 0 || y <= 0 || z <= 0 {
		return 0, fmt.Errorf("%w: dimensions %dx%dx%d", ErrInvalidDimensions, x, y, z)
	}
	points := x * y
	if points/x != y {
		return 0, fmt.Errorf("%w: %dx%dx%d", ErrGridTooLarge, x, y, z)
	}
	total := points * z
	if total/points != z {
		return 0, fmt.Errorf("%w: %dx%dx%d", ErrGridTooLarge, x, y, z)
	}
	return total, nil
}

// Validate checks the configuration for everything that would make the
// extraction fail after minutes of queue wait instead of now.
func (c *Config) Validate() error {
	if c.MeshName == "" {
		return fmt.Errorf("%w: mesh_name is empty", ErrInvalidConfig)
	}
	if _, err := c.TotalPoints(); err != nil {
		return err
	}
	if len(c.Models()) == 0 {
		return fmt.Errorf("%w: cvm_list is empty", ErrInvalidConfig)
	}
	if c.Spacing <= 0 {
		return fmt.Errorf("%w: spacing %v must be positive", ErrInvalidConfig, c.Spacing)
	}
	if c.Format == "" {
		return fmt.Errorf("%w: format is empty", ErrInvalidConfig)
	}
	if ok, known := knownFormats[c.Format]; !known {
		return fmt.Errorf("%w: unknown format %q", ErrInvalidConfig, c.Format)
	} else if !ok {
		return fmt.Errorf("%w: format %q cannot be extracted in parallel", ErrInvalidConfig, c.Format)
	}

	if c.OutDir != "" && !utils.DirExists(c.OutDir) {
		if err := utils.EnsureDir(c.OutDir); err != nil {
			return fmt.Errorf("%w: cannot create out_dir %s: %v", ErrInvalidConfig, c.OutDir, err)
		}
	}
	if c.OutDir != "" && !utils.IsWritableDir(c.OutDir) {
		return fmt.Errorf("%w: out_dir %s is not writable", ErrInvalidConfig, c.OutDir)
	}

	return nil
}
