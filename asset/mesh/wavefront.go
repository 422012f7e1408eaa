package mesh

import (
	"bufio"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/achilleasa/bvhtrace/asset"
	"github.com/achilleasa/bvhtrace/log"
	"github.com/achilleasa/bvhtrace/scene"
	"github.com/achilleasa/bvhtrace/types"
	"github.com/pkg/errors"
)

// Name of the material assigned to faces preceding any usemtl statement.
const defaultMaterialName = "default"

type wavefrontReader struct {
	logger log.Logger

	// The parsed mesh.
	mesh *Mesh

	// Index of the currently selected material.
	curMaterial int

	// List of vertices, normals and uv coords.
	vertexList []types.Vec3
	normalList []types.Vec3
	uvList     []types.Vec2

	// An error stack that provides additional error information when
	// files include other files via "call".
	errStack []string
}

// Create a new wavefront object reader.
func newWavefrontReader() *wavefrontReader {
	return &wavefrontReader{
		logger:      log.New("wavefront reader"),
		curMaterial: -1,
	}
}

// Read mesh definition.
func (r *wavefrontReader) Read(res *asset.Resource) (*Mesh, error) {
	r.logger.Noticef(`parsing mesh from "%s"`, res.Path())
	start := time.Now()

	r.mesh = &Mesh{Name: strings.TrimSuffix(path.Base(res.Path()), path.Ext(res.Path()))}
	if err := r.parse(res); err != nil {
		return nil, err
	}
	if len(r.mesh.Triangles) == 0 {
		return nil, r.emitError(res.Path(), 0, "mesh contains no faces")
	}

	r.logger.Noticef("parsed %d triangles in %d ms", len(r.mesh.Triangles), time.Since(start).Nanoseconds()/1e6)
	return r.mesh, nil
}

// Generate an error message that also includes any data in the error stack.
func (r *wavefrontReader) emitError(file string, line int, msgFormat string, args ...interface{}) error {
	msg := fmt.Sprintf(msgFormat, args...)

	var errMsg string
	if line > 0 {
		errMsg = fmt.Sprintf("[%s: %d] error: %s\n%s", file, line, msg, strings.Join(r.errStack, "\n"))
	} else {
		errMsg = fmt.Sprintf("[%s] error: %s\n%s", file, msg, strings.Join(r.errStack, "\n"))
	}

	return errors.New(strings.Trim(errMsg, "\n"))
}

// Push a frame to the error stack.
func (r *wavefrontReader) pushFrame(msg string) {
	r.errStack = append([]string{msg}, r.errStack...)
}

// Pop a frame from the error stack.
func (r *wavefrontReader) popFrame() {
	r.errStack = r.errStack[1:]
}

// Parse wavefront object format.
func (r *wavefrontReader) parse(res *asset.Resource) error {
	var lineNum int = 0

	// The main obj file may include (call) several other object files. Each
	// object file contains 1-based indices (when they are positive). By
	// tracking the current vertex/uv/normal offsets we can apply them
	// while parsing faces to select the correct coordinates.
	relVertexOffset := len(r.vertexList)
	relUvOffset := len(r.uvList)
	relNormalOffset := len(r.normalList)

	scanner := bufio.NewScanner(res)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "call":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "call"; expected 1 argument; got %d`, len(lineTokens)-1)
			}

			r.pushFrame(fmt.Sprintf("referenced from %s:%d [call]", res.Path(), lineNum))
			incRes, err := asset.NewResource(lineTokens[1], res)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			err = r.parse(incRes)
			incRes.Close()
			if err != nil {
				return err
			}
			r.popFrame()
		case "mtllib":
			// Only material names are tracked; surface properties are not needed for tracing
			r.logger.Infof(`ignoring material library "%s"`, strings.Join(lineTokens[1:], " "))
		case "usemtl":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "usemtl"; expected 1 argument; got %d`, len(lineTokens)-1)
			}
			r.curMaterial = r.mesh.materialIndex(lineTokens[1])
		case "v":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			r.vertexList = append(r.vertexList, v)
		case "vn":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			r.normalList = append(r.normalList, v)
		case "vt":
			v, err := parseVec2(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			r.uvList = append(r.uvList, v)
		case "f":
			triangles, err := r.parseFace(lineTokens, relVertexOffset, relUvOffset, relNormalOffset)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			r.mesh.Triangles = append(r.mesh.Triangles, triangles...)
		}
	}

	if err := scanner.Err(); err != nil {
		return r.emitError(res.Path(), lineNum, "%s", err.Error())
	}
	return nil
}

// Parse face definition. Each face definition consists of 3 or more
// arguments, one for each vertex. Each one of the vertex arguments is
// comprised of 1, 2 or 3 args separated by a slash character. The following
// formats are supported:
// - vertexIndex
// - vertexIndex/uvIndex
// - vertexIndex//normalIndex
// - vertexIndex/uvIndex/normalIndex
//
// Indices start from 1 and may be negative to indicate
// an offset off the end of the vertex/uv list.
//
// Faces with more than 3 vertices are split into a triangle fan around the
// first vertex.
func (r *wavefrontReader) parseFace(lineTokens []string, relVertexOffset, relUvOffset, relNormalOffset int) ([]scene.Triangle, error) {
	if len(lineTokens) < 4 {
		return nil, fmt.Errorf(`unsupported syntax for "f"; expected at least 3 arguments; got %d`, len(lineTokens)-1)
	}

	argCount := len(lineTokens) - 1

	// The first arg defines the format for the following args
	argTokens := make([][]string, argCount)
	for arg := 0; arg < argCount; arg++ {
		argTokens[arg] = strings.Split(lineTokens[arg+1], "/")
		if len(argTokens[arg]) != len(argTokens[0]) {
			return nil, fmt.Errorf("expected each face argument to contain %d indices; arg %d contains %d indices", len(argTokens[0]), arg, len(argTokens[arg]))
		}

		// Faces must at least define a vertex coord
		if argTokens[arg][0] == "" {
			return nil, fmt.Errorf("face argument %d does not include a vertex index", arg)
		}
	}

	vertices := make([]scene.Vertex, argCount)
	var vOffset int
	var err error
	hasNormals := false
	for arg, vTokens := range argTokens {
		vOffset, err = selectFaceCoordIndex(vTokens[0], len(r.vertexList), relVertexOffset)
		if err != nil {
			return nil, fmt.Errorf("could not parse vertex coord for face argument %d: %s", arg, err.Error())
		}
		vertices[arg].Position = r.vertexList[vOffset]

		// Parse UV coords if specified
		if len(vTokens) > 1 && vTokens[1] != "" {
			vOffset, err = selectFaceCoordIndex(vTokens[1], len(r.uvList), relUvOffset)
			if err != nil {
				return nil, fmt.Errorf("could not parse tex coord for face argument %d: %s", arg, err.Error())
			}
			vertices[arg].UV = r.uvList[vOffset]
		}

		// Parse normal coords if specified
		if len(vTokens) > 2 && vTokens[2] != "" {
			vOffset, err = selectFaceCoordIndex(vTokens[2], len(r.normalList), relNormalOffset)
			if err != nil {
				return nil, fmt.Errorf("could not parse normal coord for face argument %d: %s", arg, err.Error())
			}
			vertices[arg].Normal = r.normalList[vOffset]
			hasNormals = true
		}
	}

	// Faces preceding any usemtl statement use the default material
	if r.curMaterial == -1 {
		r.curMaterial = r.mesh.materialIndex(defaultMaterialName)
	}

	triangles := make([]scene.Triangle, 0, argCount-2)
	for i := 1; i+1 < argCount; i++ {
		tri := scene.Triangle{
			Vertices:      [3]scene.Vertex{vertices[0], vertices[i], vertices[i+1]},
			MaterialIndex: r.curMaterial,
		}

		// If no normals are available generate them from the vertices
		if !hasNormals {
			faceNormal := tri.Normal()
			for v := range tri.Vertices {
				tri.Vertices[v].Normal = faceNormal
			}
		}
		triangles = append(triangles, tri)
	}

	return triangles, nil
}

// Given a face coord index token, convert it to an absolute offset into
// a coordinate list. Positive indices are 1-based and relative to the
// beginning of the currently parsed file; negative indices count back
// from the end of the list.
func selectFaceCoordIndex(indexToken string, coordListLen int, relOffset int) (int, error) {
	index, err := strconv.ParseInt(indexToken, 10, 32)
	if err != nil {
		return -1, err
	}

	var vOffset int = 0
	if index < 0 {
		vOffset = coordListLen + int(index)
	} else {
		vOffset = relOffset + int(index-1)
	}
	if vOffset < 0 || vOffset >= coordListLen {
		return -1, fmt.Errorf("index out of bounds")
	}
	return vOffset, nil
}

// Parse a Vec3 row.
func parseVec3(lineTokens []string) (types.Vec3, error) {
	if len(lineTokens) < 4 {
		return types.Vec3{}, fmt.Errorf(`unsupported syntax for "%s"; expected 3 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec3{}
	for tokIdx := 1; tokIdx <= 3; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}
	return v, nil
}

// Parse a Vec2 row. A missing v coordinate defaults to 0.
func parseVec2(lineTokens []string) (types.Vec2, error) {
	if len(lineTokens) < 2 {
		return types.Vec2{}, fmt.Errorf(`unsupported syntax for "%s"; expected 2 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec2{}
	for tokIdx := 1; tokIdx <= 2 && tokIdx < len(lineTokens); tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}
	return v, nil
}
