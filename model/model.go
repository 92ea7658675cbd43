/*
Package model couples process models on one mesh. Each step runs the
components in order over a shared field set, with later components seeing
the outputs of earlier ones.
*/
package model

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/floats"
	"k8s.io/klog/v2"

	"github.com/notargets/glacierflow/components"
	"github.com/notargets/glacierflow/field"
	"github.com/notargets/glacierflow/mesh"
	"github.com/notargets/glacierflow/types"
)

type Step struct {
	Name      string
	Component components.Component
}

type Model struct {
	mesh   *mesh.Mesh
	steps  []Step
	fields field.Set
	Time   float64 // seconds since the initial fields
	Steps  int
}

func New(m *mesh.Mesh, fields field.Set, steps ...Step) (md *Model, err error) {
	md = &Model{
		mesh:   m,
		steps:  steps,
		fields: fields.With(),
	}
	if err = md.CheckFields(); err != nil {
		return nil, err
	}
	return
}

func (md *Model) Mesh() *mesh.Mesh { return md.mesh }

// Fields returns the current field set. Sets are never modified in place.
func (md *Model) Fields() field.Set { return md.fields }

// CheckFields verifies that every component input is either an initial
// field or the output of an earlier component.
func (md *Model) CheckFields() error {
	available := make(field.Requirements, len(md.fields))
	for name, f := range md.fields {
		available[name] = f.Location
	}
	if err := available.Check(md.mesh, md.fields); err != nil {
		return fmt.Errorf("initial fields: %w", err)
	}
	for _, step := range md.steps {
		in := step.Component.InputFields()
		for _, name := range in.Names() {
			loc, ok := available[name]
			if !ok {
				return fmt.Errorf("%s: %w: %q", step.Name, field.ErrMissingField, name)
			}
			if loc != in[name] {
				return fmt.Errorf("%s: %w: %q is at %ss, expected %ss",
					step.Name, field.ErrWrongLocation, name, loc, in[name])
			}
		}
		out := step.Component.OutputFields()
		for _, name := range out.Names() {
			available[name] = out[name]
		}
	}
	return nil
}

// Update runs every component once. A failure leaves the model as it was.
func (md *Model) Update(dt float64) (err error) {
	next := md.fields
	for _, step := range md.steps {
		var out field.Set
		if out, err = components.Run(step.Component, md.mesh, dt, next); err != nil {
			return fmt.Errorf("step %d, %s: %w", md.Steps+1, step.Name, err)
		}
		next = next.Merge(out)
	}
	md.fields = next
	md.Time += dt
	md.Steps++
	return
}

// Solve takes nSteps steps of dt, calling report after the first, the last
// and every reportEvery'th step.
func (md *Model) Solve(dt float64, nSteps, reportEvery int, report func(md *Model)) (elapsed time.Duration, err error) {
	var start time.Time
	if reportEvery < 1 {
		reportEvery = 1
	}
	for i := 0; i < nSteps; i++ {
		start = time.Now()
		err = md.Update(dt)
		elapsed += time.Since(start)
		if err != nil {
			return
		}
		if report != nil && (i == 0 || i == nSteps-1 || md.Steps%reportEvery == 0) {
			report(md)
		}
	}
	klog.V(1).Infof("%d steps in %v", md.Steps, elapsed)
	return
}

// Summary is the range of a node field.
type Summary struct {
	Name          string
	Min, Max, Avg float64
}

func (s Summary) String() string {
	return fmt.Sprintf("%s [%.4g, %.4g] mean %.4g", s.Name, s.Min, s.Max, s.Avg)
}

// Summarize reports the named node fields present in the model.
func (md *Model) Summarize(names ...string) (out []Summary) {
	for _, name := range names {
		f, ok := md.fields[name]
		if !ok || f.Location != types.Node || f.Len() == 0 {
			continue
		}
		v := f.Values()
		s := Summary{
			Name: name,
			Min:  floats.Min(v),
			Max:  floats.Max(v),
			Avg:  floats.Sum(v) / float64(len(v)),
		}
		out = append(out, s)
	}
	return
}
