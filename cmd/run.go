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
	"io"
	"os"

	"github.com/ghodss/yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"k8s.io/klog/v2"

	"github.com/notargets/glacierflow/InputParameters"
	"github.com/notargets/glacierflow/components"
	"github.com/notargets/glacierflow/drainage"
	"github.com/notargets/glacierflow/model"
	"github.com/notargets/glacierflow/types"
	"github.com/notargets/glacierflow/utils"
)

const exampleFile = `
########################################
Title: "GlaDS margin"
Mesh:
  Type: raster   # raster, hex or su2
  Rows: 20
  Cols: 60
  Spacing: 400
TimeStep: 86400
Steps: 30
Scenario: glads  # or uniform
BoundaryPolicy: outlets  # glads pins its outlet; uniform defaults to inlets
Components: [frozen_fringe, glacial_eroder]
Drainage:
  sheet_conductivity: 0.05
########################################
`

// RunCmd represents the run command
var RunCmd = &cobra.Command{
	Use:   "run",
	Short: "Step the drainage model from a YAML input file",
	Long:  `Step the drainage model from a YAML input file` + exampleFile,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		var (
			inputFile string
			rp        *InputParameters.RunParameters
		)
		if inputFile, err = cmd.Flags().GetString("inputConditionsFile"); err != nil {
			return
		}
		if rp, err = readInput(inputFile); err != nil {
			return
		}
		if v := viper.GetInt("steps"); v > 0 {
			rp.Steps = v
		}
		if v := viper.GetFloat64("dt"); v > 0 {
			rp.TimeStep = v
		}
		if v := viper.GetString("solver"); v != "" {
			rp.LinearSolver = v
		}
		return Run(rp, viper.GetString("output"), os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(RunCmd)
	RunCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file for input parameters")
	RunCmd.Flags().IntP("steps", "n", 0, "number of steps, overrides the input file")
	RunCmd.Flags().Float64("dt", 0, "time step in seconds, overrides the input file")
	RunCmd.Flags().String("solver", "", "linear solver: lu, cg or auto")
	RunCmd.Flags().StringP("output", "o", "", "write the final node fields to this YAML file")
	for _, name := range []string{"steps", "dt", "solver", "output"} {
		if err := viper.BindPFlag(name, RunCmd.Flags().Lookup(name)); err != nil {
			panic(err)
		}
	}
}

func readInput(fileName string) (rp *InputParameters.RunParameters, err error) {
	var data []byte
	if len(fileName) == 0 {
		return nil, fmt.Errorf("must supply an input parameters file (-I, --inputConditionsFile), example:%s", exampleFile)
	}
	if data, err = os.ReadFile(fileName); err != nil {
		return
	}
	rp = InputParameters.NewRunParameters()
	if err = rp.Parse(data); err != nil {
		return nil, fmt.Errorf("%s: %w", fileName, err)
	}
	return
}

// Run builds the mesh, fields and models described by rp and steps them.
func Run(rp *InputParameters.RunParameters, output string, w io.Writer) (err error) {
	var (
		r *runner
	)
	rp.Print(w)
	if r, err = newRunner(rp); err != nil {
		return
	}
	klog.Infof("%v", r.mesh)
	elapsed, err := r.model.Solve(rp.TimeStep, rp.Steps, rp.ReportEvery, r.report)
	if err != nil {
		return fmt.Errorf("after %d steps: %w", r.model.Steps, err)
	}
	klog.Infof("%d steps, %.4g days simulated in %v", r.model.Steps, r.model.Time/86400, elapsed)
	klog.V(1).Infof("%s", utils.GetMemUsage())
	if output != "" {
		if err = writeFields(output, rp.Title, r.model); err != nil {
			return
		}
		klog.Infof("wrote %s", output)
	}
	return
}

func (r *runner) report(md *model.Model) {
	klog.Infof("step %d, t = %.4g d", md.Steps, md.Time/86400)
	for _, s := range md.Summarize(components.Potential, components.SheetFlowHeight,
		components.EffectivePressure, components.FringeThickness, components.TillThickness) {
		klog.Infof("  %v", s)
	}
	if tags, err := r.drainage.ClassifyBoundaries(md.Fields()); err == nil {
		counts := make(map[string]int)
		for tag, n := range drainage.TagCounts(tags) {
			counts[tag.String()] = n
		}
		klog.Infof("  boundary %v", counts)
	}
}

// Output is the YAML written by run --output.
type Output struct {
	Title  string               `json:"Title"`
	Steps  int                  `json:"Steps"`
	Time   float64              `json:"Time"`
	X      []float64            `json:"X"`
	Y      []float64            `json:"Y"`
	Fields map[string][]float64 `json:"Fields"` // node fields
}

func writeFields(fileName, title string, md *model.Model) (err error) {
	var (
		data []byte
		out  = Output{
			Title:  title,
			Steps:  md.Steps,
			Time:   md.Time,
			X:      md.Mesh().XOfNode(),
			Y:      md.Mesh().YOfNode(),
			Fields: make(map[string][]float64),
		}
	)
	for name, f := range md.Fields() {
		if f.Location == types.Node {
			out.Fields[name] = f.Values()
		}
	}
	if data, err = yaml.Marshal(out); err != nil {
		return
	}
	return os.WriteFile(fileName, data, 0644)
}
