package field

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/notargets/glacierflow/types"
)

var (
	ErrMissingField    = errors.New("missing field")
	ErrWrongLocation   = errors.New("field at wrong location")
	ErrLength          = errors.New("field length does not match mesh")
	ErrInvalidLocation = errors.New("invalid field location")
)

// Counter reports how many elements of each kind a mesh has.
type Counter interface {
	Count(loc types.Location) int
}

// Field is a named array of values attached to one kind of mesh element.
type Field struct {
	Name     string
	Units    string
	Location types.Location
	value    []float64
}

// New copies value, so later edits by the caller are not seen by the field.
func New(name string, value []float64, units string, loc types.Location) (f Field, err error) {
	if !loc.Valid() {
		err = fmt.Errorf("%w: %v for field %q", ErrInvalidLocation, loc, name)
		return
	}
	f = Field{
		Name:     name,
		Units:    units,
		Location: loc,
		value:    slices.Clone(value),
	}
	return
}

// Must is New for statically known locations.
func Must(name string, value []float64, units string, loc types.Location) Field {
	f, err := New(name, value, units, loc)
	if err != nil {
		panic(err)
	}
	return f
}

// Values returns a copy of the field data.
func (f Field) Values() []float64 { return slices.Clone(f.value) }

// At returns one value without copying the array.
func (f Field) At(i int) float64 { return f.value[i] }

func (f Field) Len() int { return len(f.value) }

func (f Field) String() string {
	return fmt.Sprintf("%s [%s] at %d %ss", f.Name, f.Units, len(f.value), f.Location)
}

// Set maps field names to fields. Sets are treated as values: With returns a
// new Set and leaves the receiver alone.
type Set map[string]Field

func NewSet(fields ...Field) Set {
	return Set{}.With(fields...)
}

func (s Set) With(fields ...Field) (out Set) {
	out = make(Set, len(s)+len(fields))
	for name, f := range s {
		out[name] = f
	}
	for _, f := range fields {
		out[f.Name] = f
	}
	return
}

// Merge returns s updated with every field of o.
func (s Set) Merge(o Set) Set {
	fields := make([]Field, 0, len(o))
	for _, name := range o.Names() {
		fields = append(fields, o[name])
	}
	return s.With(fields...)
}

// Values returns a copy of the named field's data, or nil.
func (s Set) Values(name string) []float64 {
	if f, ok := s[name]; ok {
		return f.Values()
	}
	return nil
}

func (s Set) Names() (names []string) {
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return
}

// Requirements names the fields a model reads or writes and where they live.
type Requirements map[string]types.Location

func (r Requirements) Names() (names []string) {
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return
}

// Check verifies every required field is present, at its location, and
// sized for the mesh. Fields not named in r are ignored.
func (r Requirements) Check(m Counter, s Set) (err error) {
	for _, name := range r.Names() {
		var (
			loc   = r[name]
			f, ok = s[name]
		)
		if !ok {
			return fmt.Errorf("%w: %q at %ss", ErrMissingField, name, loc)
		}
		if f.Location != loc {
			return fmt.Errorf("%w: %q is at %ss, expected %ss", ErrWrongLocation, name, f.Location, loc)
		}
		if want := m.Count(loc); f.Len() != want {
			return fmt.Errorf("%w: %q has %d values, mesh has %d %ss", ErrLength, name, f.Len(), want, loc)
		}
	}
	return
}
