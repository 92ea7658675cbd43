/*
Package drainage models a distributed water sheet beneath a glacier. Each
step advances the sheet thickness implicitly from cavity opening by sliding
and creep closure, then solves a steady mass balance for the hydraulic
potential with a finite-volume system on the cells of the mesh.
*/
package drainage

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"k8s.io/klog/v2"

	"github.com/notargets/glacierflow/components"
	"github.com/notargets/glacierflow/field"
	"github.com/notargets/glacierflow/fvm"
	"github.com/notargets/glacierflow/linsolve"
	"github.com/notargets/glacierflow/mesh"
	"github.com/notargets/glacierflow/rootfind"
	"github.com/notargets/glacierflow/types"
	"github.com/notargets/glacierflow/utils"
)

type Model struct {
	mesh           *mesh.Mesh
	params         Params
	policy         BoundaryPolicy
	newton         rootfind.Newton
	solver         linsolve.Solver
	parallelDegree int
	assembler      *fvm.Assembler
}

type Option func(*Model)

func WithNewton(n rootfind.Newton) Option {
	return func(md *Model) { md.newton = n }
}

func WithSolver(s linsolve.Solver) Option {
	return func(md *Model) { md.solver = s }
}

func WithBoundaryPolicy(bp BoundaryPolicy) Option {
	return func(md *Model) { md.policy = bp }
}

func WithParallelDegree(np int) Option {
	return func(md *Model) { md.parallelDegree = np }
}

func New(m *mesh.Mesh, p Params, opts ...Option) (md *Model, err error) {
	if m == nil {
		return nil, fmt.Errorf("drainage model needs a mesh")
	}
	if err = p.Validate(); err != nil {
		return nil, err
	}
	md = &Model{
		mesh:           m,
		params:         p,
		policy:         InletsFixed,
		newton:         rootfind.NewNewton(),
		solver:         linsolve.NewAuto(),
		parallelDegree: utils.DefaultParallelDegree(m.NumberOfCells()),
	}
	for _, opt := range opts {
		opt(md)
	}
	if _, ok := BoundaryPolicyNameMap[md.policy.String()]; !ok {
		return nil, fmt.Errorf("%w: %v", ErrParam, md.policy)
	}
	if md.newton.MaxIter < 1 {
		return nil, fmt.Errorf("%w: newton iteration limit %d", ErrParam, md.newton.MaxIter)
	}
	md.assembler = fvm.NewAssembler(m, fvm.WithParallelDegree(md.parallelDegree))
	return
}

// WithParams returns a copy of the model using p.
func (md *Model) WithParams(p Params) (*Model, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	out := *md
	out.params = p
	return &out, nil
}

func (md *Model) Params() Params         { return md.params }
func (md *Model) Policy() BoundaryPolicy { return md.policy }
func (md *Model) Mesh() *mesh.Mesh       { return md.mesh }

func (md *Model) InputFields() field.Requirements {
	return field.Requirements{
		components.IceThickness:    types.Node,
		components.BedElevation:    types.Node,
		components.SlidingVelocity: types.Node,
		components.BasalMeltRate:   types.Node,
		components.Potential:       types.Node,
		components.SheetFlowHeight: types.Node,
	}
}

func (md *Model) OutputFields() field.Requirements {
	return field.Requirements{
		components.Potential:       types.Node,
		components.SheetFlowHeight: types.Node,
	}
}

// subset of the inputs needed by one query
func (md *Model) require(fields field.Set, names ...string) error {
	req := make(field.Requirements, len(names))
	for _, name := range names {
		req[name] = types.Node
	}
	return req.Check(md.mesh, fields)
}

// basePotential is the potential of water at atmospheric pressure on the bed.
func (md *Model) basePotential(bed []float64) []float64 {
	floats.Scale(md.params.WaterDensity*md.params.Gravity, bed)
	return bed
}

func (md *Model) effectivePressure(H, base, phi []float64) (N []float64) {
	p := md.params
	N = make([]float64, len(H))
	for i := range N {
		N[i] = p.IceDensity*p.Gravity*H[i] - (phi[i] - base[i])
	}
	return
}

// EffectivePressure is the ice overburden less the water pressure.
func (md *Model) EffectivePressure(fields field.Set) (N []float64, err error) {
	if err = md.require(fields, components.IceThickness, components.BedElevation, components.Potential); err != nil {
		return
	}
	N = md.effectivePressure(fields.Values(components.IceThickness),
		md.basePotential(fields.Values(components.BedElevation)),
		fields.Values(components.Potential))
	return
}

// growth returns the sheet growth rate at one node and its derivative with
// respect to h.
func (md *Model) growth(h, N, ub float64) (rate, dRate float64) {
	var (
		p       = md.params
		n       = p.IceFlowN
		slide   = math.Abs(ub) / p.CavitySpacing
		creep   = 2 * p.IceFlowCoeff / math.Pow(n, n) * math.Pow(math.Abs(N), n-1) * N
		opening float64
	)
	if h < p.BedBumpHeight {
		opening = slide * (p.BedBumpHeight - h)
		dRate = -slide
	}
	rate = opening - creep*h
	dRate -= creep
	return
}

func (md *Model) sheetGrowthRate(h, N, ub []float64) (rate []float64) {
	rate = make([]float64, len(h))
	for i := range h {
		rate[i], _ = md.growth(h[i], N[i], ub[i])
	}
	return
}

// SheetGrowthRate evaluates dh/dt for sheet thickness h under the potential
// held in fields.
func (md *Model) SheetGrowthRate(h []float64, fields field.Set) (rate []float64, err error) {
	if len(h) != md.mesh.NumberOfNodes() {
		return nil, fmt.Errorf("%w: sheet thickness has %d values for %d nodes",
			field.ErrLength, len(h), md.mesh.NumberOfNodes())
	}
	var N []float64
	if N, err = md.EffectivePressure(fields); err != nil {
		return
	}
	if err = md.require(fields, components.SlidingVelocity); err != nil {
		return
	}
	rate = md.sheetGrowthRate(h, N, fields.Values(components.SlidingVelocity))
	return
}

func (md *Model) classify(base, phi []float64) (tags []types.BoundaryTag) {
	m := md.mesh
	tags = make([]types.BoundaryTag, m.NumberOfNodes())
	for i := range tags {
		switch m.Status(i) {
		case types.Core:
			tags[i] = types.Interior
			continue
		case types.Closed:
			tags[i] = types.NoFlow
			continue
		}
		lowest := math.Inf(1)
		for _, j := range m.AdjacentNodesAtNode(i) {
			if j == -1 || m.Status(j) != types.Core {
				continue
			}
			lowest = math.Min(lowest, phi[j])
		}
		if base[i] <= lowest {
			tags[i] = types.Outflow
		} else {
			tags[i] = types.Inflow
		}
	}
	return
}

// ClassifyBoundaries tags each open boundary node as an outlet when its base
// potential is no higher than the potential of every core neighbor, and as an
// inlet otherwise. A node with no core neighbor is an outlet.
func (md *Model) ClassifyBoundaries(fields field.Set) (tags []types.BoundaryTag, err error) {
	if err = md.require(fields, components.BedElevation, components.Potential); err != nil {
		return
	}
	tags = md.classify(md.basePotential(fields.Values(components.BedElevation)),
		fields.Values(components.Potential))
	return
}

func (md *Model) fixedValue(tags []types.BoundaryTag) (fixed []bool) {
	want := types.Inflow
	if md.policy == OutletsFixed {
		want = types.Outflow
	}
	fixed = make([]bool, len(tags))
	for i, tag := range tags {
		fixed[i] = tag == want
	}
	return
}

// conductivity of the sheet on each link, k * hbar^a
func (md *Model) conductivity(h []float64) (K []float64) {
	K = md.mesh.MapMeanOfLinkNodesToLink(h)
	for l, hbar := range K {
		K[l] = md.params.SheetConductivity * math.Pow(hbar, md.params.FlowExpA)
	}
	return
}

// Discharge is the sheet flux per unit width on links, positive from tail
// to head.
func (md *Model) Discharge(fields field.Set) (q []float64, err error) {
	if err = md.require(fields, components.Potential, components.SheetFlowHeight); err != nil {
		return
	}
	var (
		grad = md.mesh.CalcGradAtLink(fields.Values(components.Potential))
		K    = md.conductivity(fields.Values(components.SheetFlowHeight))
	)
	q = make([]float64, len(grad))
	for l, g := range grad {
		if g == 0 {
			continue
		}
		q[l] = -K[l] * math.Pow(math.Abs(g), md.params.FlowExpB-2) * g
	}
	return
}

func (md *Model) updateSheet(dt float64, hOld, N, ub []float64, fixed []bool) (h []float64, err error) {
	var iterations int
	h, iterations, err = md.newton.Solve(hOld, func(x []float64, active []int, f, df []float64) {
		for _, i := range active {
			rate, dRate := md.growth(x[i], N[i], ub[i])
			f[i] = x[i] - hOld[i] - dt*rate
			df[i] = 1 - dt*dRate
		}
	})
	if err != nil {
		return nil, fmt.Errorf("sheet thickness update: %w", err)
	}
	klog.V(2).Infof("sheet thickness converged in %d newton iterations", iterations)
	m := md.mesh
	for i := range h {
		switch {
		case m.Status(i) != types.Core && !fixed[i]:
			h[i] = hOld[i]
		case h[i] < 0:
			h[i] = 0
		}
	}
	return
}

func (md *Model) potentialProblem(h, N, ub, melt, base []float64, fixed []bool) fvm.Problem {
	var (
		m      = md.mesh
		K      = md.conductivity(h)
		coeffs = make([]float64, m.NumberOfFaces())
		force  = make([]float64, m.NumberOfCells())
		rate   = md.sheetGrowthRate(h, N, ub)
	)
	for f := range coeffs {
		l := m.LinkAtFace(f)
		coeffs[f] = -K[l] * m.LengthOfFace(f) / m.LengthOfLink(l)
	}
	for c := range force {
		i := m.NodeAtCell(c)
		force[c] = (melt[i] - rate[i]) * m.AreaOfCell(c)
	}
	return fvm.Problem{
		Coeffs:         coeffs,
		Forcing:        force,
		BoundaryValues: base,
		IsFixedValue:   fixed,
	}
}

/*
RunOneStep advances the sheet by dt seconds and solves for the new potential.
The result is a copy of fields with potential and sheet_flow_height
replaced. On error fields is untouched and no result is returned.
*/
func (md *Model) RunOneStep(dt float64, fields field.Set) (out field.Set, err error) {
	if err = components.CheckTimeStep(dt); err != nil {
		return
	}
	if err = md.InputFields().Check(md.mesh, fields); err != nil {
		return
	}
	var (
		m      = md.mesh
		phiOld = fields.Values(components.Potential)
		base   = md.basePotential(fields.Values(components.BedElevation))
		N      = md.effectivePressure(fields.Values(components.IceThickness), base, phiOld)
		ub     = fields.Values(components.SlidingVelocity)
		tags   = md.classify(base, phiOld)
		fixed  = md.fixedValue(tags)
		h      []float64
		sys    *fvm.System
		x      []float64
	)
	if klog.V(2).Enabled() {
		klog.Infof("boundary tags %v, %v policy", TagCounts(tags), md.policy)
	}
	if h, err = md.updateSheet(dt, fields.Values(components.SheetFlowHeight), N, ub, fixed); err != nil {
		return nil, err
	}
	problem := md.potentialProblem(h, N, ub, fields.Values(components.BasalMeltRate), base, fixed)
	if sys, err = md.assembler.Assemble(problem); err != nil {
		return nil, fmt.Errorf("potential system: %w", err)
	}
	if err = sys.CheckWellPosed(); err != nil {
		return nil, fmt.Errorf("potential system with %v policy: %w", md.policy, err)
	}
	if x, err = md.solver.Solve(sys.A, sys.B); err != nil {
		return nil, fmt.Errorf("potential solve (%s): %w", md.solver.Name(), err)
	}
	phi := base
	for c, v := range x {
		phi[m.NodeAtCell(c)] = v
	}
	if i := utils.FirstNonFinite(phi); i >= 0 {
		return nil, fmt.Errorf("potential solve (%s): non-finite potential %g at node %d",
			md.solver.Name(), phi[i], i)
	}
	if klog.V(2).Enabled() {
		klog.Infof("potential [%g, %g] Pa, sheet thickness [%g, %g] m",
			floats.Min(phi), floats.Max(phi), floats.Min(h), floats.Max(h))
	}
	out = fields.With(
		field.Must(components.Potential, phi, "Pa", types.Node),
		field.Must(components.SheetFlowHeight, h, "m", types.Node),
	)
	return
}

// TagCounts summarizes a boundary classification.
func TagCounts(tags []types.BoundaryTag) (counts map[types.BoundaryTag]int) {
	counts = make(map[types.BoundaryTag]int)
	for _, tag := range tags {
		counts[tag]++
	}
	return
}
