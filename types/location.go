package types

import (
	"fmt"
	"strings"
)

// Location names the mesh element kind a field value is attached to.
type Location uint8

const (
	Node Location = iota
	Link
	Patch
	Corner
	Face
	Cell
)

var locationNames = [...]string{
	Node:   "node",
	Link:   "link",
	Patch:  "patch",
	Corner: "corner",
	Face:   "face",
	Cell:   "cell",
}

var LocationNameMap = map[string]Location{
	"node":    Node,
	"nodes":   Node,
	"link":    Link,
	"links":   Link,
	"patch":   Patch,
	"patches": Patch,
	"corner":  Corner,
	"corners": Corner,
	"face":    Face,
	"faces":   Face,
	"cell":    Cell,
	"cells":   Cell,
}

func (l Location) String() string {
	if int(l) < len(locationNames) {
		return locationNames[l]
	}
	return fmt.Sprintf("Location(%d)", uint8(l))
}

func (l Location) Valid() bool {
	return int(l) < len(locationNames)
}

func ParseLocation(name string) (loc Location, err error) {
	var ok bool
	if loc, ok = LocationNameMap[strings.ToLower(strings.TrimSpace(name))]; !ok {
		err = fmt.Errorf("unknown element location %q", name)
	}
	return
}
