package readfiles

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"k8s.io/klog/v2"

	"github.com/notargets/glacierflow/grids"
	"github.com/notargets/glacierflow/mesh"
	"github.com/notargets/glacierflow/types"
)

var ErrFormat = errors.New("malformed SU2 mesh file")

// From here: https://su2code.github.io/docs_v7/Mesh-File/
type SU2ElementType uint8

const (
	ELType_LINE          SU2ElementType = 3
	ELType_Triangle      SU2ElementType = 5
	ELType_Quadrilateral SU2ElementType = 9
)

// SU2Mesh is the content of a 2D SU2 file made of triangles.
type SU2Mesh struct {
	X, Y      []float64
	Triangles [][3]int
	Markers   map[string][]types.EdgeKey // boundary edges by marker label
}

type su2Reader struct {
	reader *bufio.Reader
	line   int
}

func (r *su2Reader) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: line %d: %s", ErrFormat, r.line, fmt.Sprintf(format, args...))
}

func (r *su2Reader) getLine() (line string, err error) {
	line, err = r.reader.ReadString('\n')
	if err == io.EOF && len(line) > 0 {
		err = nil
	}
	if err != nil {
		if err == io.EOF {
			err = r.errorf("early end of file")
		}
		return
	}
	r.line++
	line = strings.TrimRight(line, "\r\n")
	return
}

func (r *su2Reader) getLineNoComments() (line string, err error) {
	for {
		if line, err = r.getLine(); err != nil {
			return
		}
		line = strings.TrimSpace(line)
		if len(line) != 0 && !strings.HasPrefix(line, "%") {
			return
		}
	}
}

func (r *su2Reader) getToken(keyword string) (token string, err error) {
	var line string
	if line, err = r.getLineNoComments(); err != nil {
		return
	}
	ind := strings.Index(line, "=")
	if ind < 0 {
		err = r.errorf("badly formed input line [%s], should have an =", line)
		return
	}
	if key := strings.TrimSpace(line[:ind]); keyword != "" && key != keyword {
		err = r.errorf("expected %s, found %s", keyword, key)
		return
	}
	token = line[ind+1:]
	return
}

func (r *su2Reader) readNumber(keyword string) (num int, err error) {
	var token string
	if token, err = r.getToken(keyword); err != nil {
		return
	}
	if _, err = fmt.Sscanf(token, "%d", &num); err != nil || num < 0 {
		err = r.errorf("unable to read number from token: [%s]", token)
	}
	return
}

func (r *su2Reader) readLabel(keyword string) (label string, err error) {
	var token string
	if token, err = r.getToken(keyword); err != nil {
		return
	}
	if label = strings.TrimSpace(token); label == "" {
		err = r.errorf("empty label for %s", keyword)
	}
	return
}

func (r *su2Reader) readElements() (triangles [][3]int, err error) {
	var (
		K          int
		nType      int
		v1, v2, v3 int
		line       string
	)
	if K, err = r.readNumber("NELEM"); err != nil {
		return
	}
	triangles = make([][3]int, K)
	for k := 0; k < K; k++ {
		if line, err = r.getLine(); err != nil {
			return
		}
		if _, err = fmt.Sscanf(line, "%d %d %d %d", &nType, &v1, &v2, &v3); err != nil {
			return nil, r.errorf("unable to read element from [%s]", line)
		}
		if SU2ElementType(nType) != ELType_Triangle {
			return nil, r.errorf("element type %d, only triangles are supported", nType)
		}
		triangles[k] = [3]int{v1, v2, v3}
	}
	return
}

func (r *su2Reader) readVertices() (x, y []float64, err error) {
	var (
		Nv   int
		line string
	)
	if Nv, err = r.readNumber("NPOIN"); err != nil {
		return
	}
	x, y = make([]float64, Nv), make([]float64, Nv)
	for i := 0; i < Nv; i++ {
		if line, err = r.getLine(); err != nil {
			return
		}
		if _, err = fmt.Sscanf(line, "%f %f", &x[i], &y[i]); err != nil {
			return nil, nil, r.errorf("unable to read coordinates from [%s]", line)
		}
	}
	return
}

func (r *su2Reader) readMarkers() (markers map[string][]types.EdgeKey, err error) {
	var (
		NBCs, nEdges int
		nType        int
		v1, v2       int
		label, line  string
	)
	if NBCs, err = r.readNumber("NMARK"); err != nil {
		return
	}
	markers = make(map[string][]types.EdgeKey, NBCs)
	for n := 0; n < NBCs; n++ {
		if label, err = r.readLabel("MARKER_TAG"); err != nil {
			return
		}
		if nEdges, err = r.readNumber("MARKER_ELEMS"); err != nil {
			return
		}
		for i := 0; i < nEdges; i++ {
			if line, err = r.getLine(); err != nil {
				return
			}
			if _, err = fmt.Sscanf(line, "%d %d %d", &nType, &v1, &v2); err != nil {
				return nil, r.errorf("unable to read boundary edge from [%s]", line)
			}
			if SU2ElementType(nType) != ELType_LINE {
				return nil, r.errorf("boundary elements must be lines in 2D, have type %d", nType)
			}
			if v1 < 0 || v2 < 0 || v1 == v2 {
				return nil, r.errorf("bad boundary edge %d-%d", v1, v2)
			}
			// repeated labels, such as periodic pairs, share one list
			markers[label] = append(markers[label], types.NewEdgeKey([2]int{v1, v2}))
		}
	}
	return
}

func ReadSU2(in io.Reader) (s *SU2Mesh, err error) {
	var (
		r   = &su2Reader{reader: bufio.NewReader(in)}
		dim int
	)
	s = &SU2Mesh{}
	if dim, err = r.readNumber("NDIME"); err != nil {
		return nil, err
	}
	if dim != 2 {
		return nil, r.errorf("%d dimensional mesh, only 2D is supported", dim)
	}
	if s.Triangles, err = r.readElements(); err != nil {
		return nil, err
	}
	if s.X, s.Y, err = r.readVertices(); err != nil {
		return nil, err
	}
	if s.Markers, err = r.readMarkers(); err != nil {
		return nil, err
	}
	for _, keys := range s.Markers {
		for _, key := range keys {
			if verts := key.Vertices(); verts[1] >= len(s.X) {
				return nil, fmt.Errorf("%w: boundary edge references point %d of %d",
					ErrFormat, verts[1], len(s.X))
			}
		}
	}
	return
}

func ReadSU2File(filename string) (s *SU2Mesh, err error) {
	var file *os.File
	klog.V(1).Infof("Reading SU2 file named: %s", filename)
	if file, err = os.Open(filename); err != nil {
		return nil, fmt.Errorf("unable to open file %s: %w", filename, err)
	}
	defer file.Close()
	if s, err = ReadSU2(file); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	klog.V(1).Infof("Read %d points, %d triangles, %d markers", len(s.X), len(s.Triangles), len(s.Markers))
	return
}

func (s *SU2Mesh) MarkerLabels() (labels []string) {
	for label := range s.Markers {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return
}

/*
NodeStatus assigns a status to every node on a marker. A label found in
overrides takes that status, any other label is parsed with
types.NewNodeStatus. A node on several markers is closed if any of them is
closed, otherwise it takes the status of the first label in sorted order.
*/
func (s *SU2Mesh) NodeStatus(overrides map[string]types.NodeStatus) (status map[int]types.NodeStatus) {
	status = make(map[int]types.NodeStatus)
	for _, label := range s.MarkerLabels() {
		st, ok := overrides[label]
		if !ok {
			st = types.NewNodeStatus(label)
		}
		for _, key := range s.Markers[label] {
			for _, n := range key.Vertices() {
				if prev, seen := status[n]; !seen || (st == types.Closed && prev != types.Closed) {
					status[n] = st
				}
			}
		}
	}
	return
}

// Mesh builds the Voronoi dual of the file's triangulation with marker
// statuses applied to the boundary.
func (s *SU2Mesh) Mesh(overrides map[string]types.NodeStatus) (*mesh.Mesh, error) {
	return grids.FromTriangulation(s.X, s.Y, s.Triangles, grids.WithNodeStatus(s.NodeStatus(overrides)))
}
