package InputParameters

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ghodss/yaml"
)

// Mesh parameters obtained from the YAML input file
type MeshParameters struct {
	Type         string            `json:"Type"` // raster, hex or su2
	Rows         int               `json:"Rows"`
	Cols         int               `json:"Cols"`
	Spacing      float64           `json:"Spacing"`      // m
	File         string            `json:"File"`         // su2 mesh file
	EdgeStatus   map[string]string `json:"EdgeStatus"`   // raster edge name -> node status label
	MarkerStatus map[string]string `json:"MarkerStatus"` // su2 marker -> node status label
}

// Initial conditions for the uniform scenario, zero values take defaults
type InitialParameters struct {
	IceThickness     float64 `json:"IceThickness"`
	BedSlope         float64 `json:"BedSlope"`
	SlidingVelocity  float64 `json:"SlidingVelocity"` // m/a
	MeltRate         float64 `json:"MeltRate"`        // m/a
	SheetThickness   float64 `json:"SheetThickness"`
	PressureFraction float64 `json:"PressureFraction"`
}

// Parameters obtained from the YAML input file. An empty BoundaryPolicy takes
// the scenario's own: outlets for glads, inlets otherwise.
type RunParameters struct {
	Title          string             `json:"Title"`
	Mesh           MeshParameters     `json:"Mesh"`
	TimeStep       float64            `json:"TimeStep"` // s
	Steps          int                `json:"Steps"`
	ReportEvery    int                `json:"ReportEvery"`
	LinearSolver   string             `json:"LinearSolver"`
	BoundaryPolicy string             `json:"BoundaryPolicy"`
	Scenario       string             `json:"Scenario"` // glads or uniform
	Initial        InitialParameters  `json:"Initial"`
	Components     []string           `json:"Components"` // run after the drainage model
	Drainage       map[string]float64 `json:"Drainage"`   // parameter overrides by name
}

func NewRunParameters() *RunParameters {
	return &RunParameters{
		Title:        "glacierflow",
		Mesh:         MeshParameters{Type: "raster", Rows: 20, Cols: 60, Spacing: 400},
		TimeStep:     86400,
		Steps:        10,
		ReportEvery:  1,
		LinearSolver: "auto",
		Scenario:     "uniform",
	}
}

func (rp *RunParameters) Parse(data []byte) (err error) {
	if err = yaml.Unmarshal(data, rp); err != nil {
		return fmt.Errorf("unable to parse input: %w", err)
	}
	return rp.Validate()
}

func (rp *RunParameters) Validate() error {
	rp.Mesh.Type = strings.ToLower(rp.Mesh.Type)
	rp.Scenario = strings.ToLower(rp.Scenario)
	switch rp.Mesh.Type {
	case "raster", "hex":
		if rp.Mesh.Rows < 2 || rp.Mesh.Cols < 2 || !(rp.Mesh.Spacing > 0) {
			return fmt.Errorf("%s mesh needs Rows and Cols of at least 2 and a positive Spacing", rp.Mesh.Type)
		}
	case "su2":
		if rp.Mesh.File == "" {
			return fmt.Errorf("su2 mesh needs a File")
		}
	default:
		return fmt.Errorf("unknown mesh type %q, expected raster, hex or su2", rp.Mesh.Type)
	}
	switch rp.BoundaryPolicy = strings.ToLower(rp.BoundaryPolicy); rp.BoundaryPolicy {
	case "", "inlets", "outlets":
	default:
		return fmt.Errorf("unknown boundary policy %q, expected inlets or outlets", rp.BoundaryPolicy)
	}
	switch rp.Scenario {
	case "glads", "uniform":
	default:
		return fmt.Errorf("unknown scenario %q, expected glads or uniform", rp.Scenario)
	}
	if !(rp.TimeStep > 0) {
		return fmt.Errorf("TimeStep must be positive, have %g", rp.TimeStep)
	}
	if rp.Steps < 0 {
		return fmt.Errorf("Steps must not be negative, have %d", rp.Steps)
	}
	return nil
}

func (rp *RunParameters) Marshal() ([]byte, error) { return yaml.Marshal(rp) }

func (rp *RunParameters) Print(w io.Writer) {
	fmt.Fprintf(w, "\"%s\"\t\t= Title\n", rp.Title)
	fmt.Fprintf(w, "[%s]\t\t= Mesh Type\n", rp.Mesh.Type)
	if rp.Mesh.Type == "su2" {
		fmt.Fprintf(w, "[%s]\t= Mesh File\n", rp.Mesh.File)
	} else {
		fmt.Fprintf(w, "[%d x %d]\t= Rows x Cols\n", rp.Mesh.Rows, rp.Mesh.Cols)
		fmt.Fprintf(w, "%8.5g\t\t= Spacing\n", rp.Mesh.Spacing)
	}
	fmt.Fprintf(w, "%8.5g\t\t= TimeStep\n", rp.TimeStep)
	fmt.Fprintf(w, "[%d]\t\t\t= Steps\n", rp.Steps)
	fmt.Fprintf(w, "[%s]\t\t= Linear Solver\n", rp.LinearSolver)
	fmt.Fprintf(w, "[%s]\t\t= Boundary Policy\n", rp.BoundaryPolicy)
	fmt.Fprintf(w, "[%s]\t\t= Scenario\n", rp.Scenario)
	if len(rp.Components) > 0 {
		fmt.Fprintf(w, "%v\t= Components\n", rp.Components)
	}
	keys := make([]string, 0, len(rp.Drainage))
	for k := range rp.Drainage {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(w, "Drainage[%s] = %v\n", key, rp.Drainage[key])
	}
}
