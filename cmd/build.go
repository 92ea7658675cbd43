/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/notargets/glacierflow/InputParameters"
	"github.com/notargets/glacierflow/drainage"
	"github.com/notargets/glacierflow/grids"
	"github.com/notargets/glacierflow/linsolve"
	"github.com/notargets/glacierflow/mesh"
	"github.com/notargets/glacierflow/model"
	"github.com/notargets/glacierflow/readfiles"
	"github.com/notargets/glacierflow/types"
)

type runner struct {
	mesh     *mesh.Mesh
	drainage *drainage.Model
	model    *model.Model
}

func newRunner(rp *InputParameters.RunParameters) (r *runner, err error) {
	var (
		params drainage.Params
		solver linsolve.Solver
		policy = drainage.InletsFixed
	)
	r = &runner{}
	if r.mesh, err = BuildMesh(rp.Mesh, rp.Scenario); err != nil {
		return nil, err
	}
	switch rp.Scenario {
	case "glads":
		params, policy = model.GlaDSParams(), model.GlaDSPolicy
	case "uniform":
		params = model.UniformParams()
	default:
		params = drainage.DefaultParams()
	}
	if params, err = params.Apply(rp.Drainage); err != nil {
		return nil, err
	}
	if solver, err = linsolve.New(rp.LinearSolver); err != nil {
		return nil, err
	}
	if rp.BoundaryPolicy != "" {
		if policy, err = drainage.ParseBoundaryPolicy(rp.BoundaryPolicy); err != nil {
			return nil, err
		}
	}
	r.drainage, err = drainage.New(r.mesh, params,
		drainage.WithSolver(solver), drainage.WithBoundaryPolicy(policy))
	if err != nil {
		return nil, err
	}
	steps, err := model.Steps(r.mesh, r.drainage, rp.Components...)
	if err != nil {
		return nil, err
	}
	fields := model.GlaDS(r.mesh, params)
	if rp.Scenario == "uniform" {
		fields = uniform(rp.Initial).Fields(r.mesh, params)
	}
	if r.model, err = model.New(r.mesh, fields, steps...); err != nil {
		return nil, err
	}
	return
}

func uniform(ip InputParameters.InitialParameters) (u model.Uniform) {
	u = model.DefaultUniform()
	if ip.IceThickness > 0 {
		u.IceThickness = ip.IceThickness
	}
	if ip.BedSlope != 0 {
		u.BedSlope = ip.BedSlope
	}
	if ip.SlidingVelocity != 0 {
		u.SlidingVelocity = ip.SlidingVelocity / model.SecondsPerYear
	}
	if ip.MeltRate != 0 {
		u.MeltRate = ip.MeltRate / model.SecondsPerYear
	}
	if ip.SheetThickness > 0 {
		u.SheetThickness = ip.SheetThickness
	}
	if ip.PressureFraction > 0 {
		u.PressureFraction = ip.PressureFraction
	}
	return
}

// BuildMesh makes the mesh described in the input file. A GlaDS raster with
// no edge statuses given drains through its low-x edge only.
func BuildMesh(mp InputParameters.MeshParameters, scenario string) (m *mesh.Mesh, err error) {
	switch strings.ToLower(mp.Type) {
	case "raster":
		if scenario == "glads" && len(mp.EdgeStatus) == 0 {
			return model.GlaDSMesh(mp.Rows, mp.Cols, mp.Spacing)
		}
		var opts []grids.RasterOption
		for _, name := range sortedKeys(mp.EdgeStatus) {
			edge, ok := grids.EdgeNameMap[strings.ToLower(name)]
			if !ok {
				return nil, fmt.Errorf("unknown raster edge %q, expected right, top, left or bottom", name)
			}
			opts = append(opts, grids.WithEdgeStatus(edge, types.NewNodeStatus(mp.EdgeStatus[name])))
		}
		return grids.NewRaster(mp.Rows, mp.Cols, mp.Spacing, mp.Spacing, opts...)
	case "hex":
		return grids.NewHex(mp.Rows, mp.Cols, mp.Spacing)
	case "su2":
		var su2 *readfiles.SU2Mesh
		if su2, err = readfiles.ReadSU2File(mp.File); err != nil {
			return
		}
		overrides := make(map[string]types.NodeStatus, len(mp.MarkerStatus))
		for label, status := range mp.MarkerStatus {
			overrides[label] = types.NewNodeStatus(status)
		}
		return su2.Mesh(overrides)
	}
	return nil, fmt.Errorf("unknown mesh type %q", mp.Type)
}

func sortedKeys(m map[string]string) (keys []string) {
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return
}
