package mesh

import (
	"fmt"

	"github.com/meihuisu/UCVM-reallyOld/internal/utils"
)

// Geometry describes the MPI layout for an extraction run.
type Geometry struct {
	Nodes int // Allocated nodes
	Ppn   int // Processes per node
	Ranks int // Total MPI ranks (Nodes * Ppn)
}

// PlanGeometry computes the rank layout for a mesh and flags layouts that
// ucvm_mesh_create_mpi rejects. The extractor distributes whole z-slices
// (x*y points each) across ranks, so more ranks than slices leaves ranks
// idle and is treated as an error; a slice count that does not divide
// evenly only costs balance, so it just warns.
func PlanGeometry(cfg *Config, nodes, ppn int) (*Geometry, error) {
	if nodes <= 0 || ppn <= 0 {
		return nil, fmt.Errorf("%w: %d nodes x %d ppn", ErrInvalidGeometry, nodes, ppn)
	}

	ranks := nodes * ppn
	slices := cfg.Dimensions.Z

	if slices > 0 && ranks > slices {
		return nil, fmt.Errorf("%w: %d ranks but only %d z-slices to distribute",
			ErrInvalidGeometry, ranks, slices)
	}
	if slices > 0 && slices%ranks != 0 {
		utils.PrintWarning("%d z-slices do not divide evenly across %d ranks; the last ranks will run long",
			slices, ranks)
	}

	return &Geometry{
		Nodes: nodes,
		Ppn:   ppn,
		Ranks: ranks,
	}, nil
}
