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

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/notargets/glacierflow/InputParameters"
	"github.com/notargets/glacierflow/mesh"
	"github.com/notargets/glacierflow/types"
)

// MeshCmd represents the mesh command
var MeshCmd = &cobra.Command{
	Use:   "mesh",
	Short: "Build and validate the mesh described in an input file",
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
		_, err = DescribeMesh(rp, os.Stdout)
		return
	},
}

func init() {
	rootCmd.AddCommand(MeshCmd)
	MeshCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file for input parameters")
}

// DescribeMesh builds the mesh of rp and writes its element counts and
// node statuses.
func DescribeMesh(rp *InputParameters.RunParameters, w io.Writer) (m *mesh.Mesh, err error) {
	if m, err = BuildMesh(rp.Mesh, rp.Scenario); err != nil {
		return
	}
	klog.Infof("%v", m)
	counts := make(map[types.NodeStatus]int)
	for _, s := range m.StatusAtNode() {
		counts[s]++
	}
	fmt.Fprintf(w, "%v\n", m)
	for s := types.Core; s <= types.Closed; s++ {
		if counts[s] > 0 {
			fmt.Fprintf(w, "%8d %s nodes\n", counts[s], s)
		}
	}
	return
}
