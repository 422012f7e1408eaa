package mesh

import (
	"path"
	"strings"
	"time"

	"github.com/achilleasa/bvhtrace/asset"
	"github.com/achilleasa/bvhtrace/log"
	"github.com/achilleasa/bvhtrace/scene"
	"github.com/achilleasa/bvhtrace/types"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

type gltfReader struct {
	logger log.Logger
}

// Create a new glTF/GLB reader.
func newGltfReader() *gltfReader {
	return &gltfReader{
		logger: log.New("gltf reader"),
	}
}

// Read the triangles of every mesh in a glTF document. Node transforms are
// not applied; primitives that are not triangle lists are skipped.
func (r *gltfReader) Read(res *asset.Resource) (*Mesh, error) {
	r.logger.Noticef(`parsing mesh from "%s"`, res.Path())
	start := time.Now()

	doc, err := r.open(res)
	if err != nil {
		return nil, errors.Wrapf(err, "gltf reader: could not decode %q", res.Path())
	}

	mesh := &Mesh{Name: strings.TrimSuffix(path.Base(res.Path()), path.Ext(res.Path()))}
	for meshIndex, m := range doc.Meshes {
		for primIndex, prim := range m.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				r.logger.Infof("skipping primitive %d of mesh %d; unsupported mode %v", primIndex, meshIndex, prim.Mode)
				continue
			}
			if err = r.readPrimitive(doc, prim, mesh); err != nil {
				return nil, errors.Wrapf(err, "gltf reader: mesh %d (%q) primitive %d", meshIndex, m.Name, primIndex)
			}
		}
	}

	if len(mesh.Triangles) == 0 {
		return nil, errors.Errorf("gltf reader: %q contains no triangles", res.Path())
	}

	r.logger.Noticef("parsed %d triangles in %d ms", len(mesh.Triangles), time.Since(start).Nanoseconds()/1e6)
	return mesh, nil
}

// Local documents are opened by path so that external buffers can be
// resolved; anything else must be self-contained.
func (r *gltfReader) open(res *asset.Resource) (*gltf.Document, error) {
	if localPath := res.LocalPath(); localPath != "" {
		return gltf.Open(localPath)
	}

	doc := new(gltf.Document)
	if err := gltf.NewDecoder(res).Decode(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *gltfReader) readPrimitive(doc *gltf.Document, prim *gltf.Primitive, mesh *Mesh) error {
	posIndex, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return errors.New("missing POSITION attribute")
	}
	posAccessor, err := accessor(doc, posIndex)
	if err != nil {
		return err
	}
	positions, err := modeler.ReadPosition(doc, posAccessor, nil)
	if err != nil {
		return errors.Wrap(err, "read positions")
	}

	var normals [][3]float32
	if normIndex, ok := prim.Attributes[gltf.NORMAL]; ok {
		normAccessor, err := accessor(doc, normIndex)
		if err != nil {
			return err
		}
		if normals, err = modeler.ReadNormal(doc, normAccessor, nil); err != nil {
			return errors.Wrap(err, "read normals")
		}
	}

	var uvs [][2]float32
	if uvIndex, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		uvAccessor, err := accessor(doc, uvIndex)
		if err != nil {
			return err
		}
		if uvs, err = modeler.ReadTextureCoord(doc, uvAccessor, nil); err != nil {
			return errors.Wrap(err, "read uvs")
		}
	}

	var indices []uint32
	if prim.Indices != nil {
		indAccessor, err := accessor(doc, *prim.Indices)
		if err != nil {
			return err
		}
		if indices, err = modeler.ReadIndices(doc, indAccessor, nil); err != nil {
			return errors.Wrap(err, "read indices")
		}
	} else {
		// Non-indexed primitives list their triangles sequentially
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	if len(indices)%3 != 0 {
		return errors.Errorf("index count %d is not a multiple of 3", len(indices))
	}

	matName := defaultMaterialName
	if prim.Material != nil {
		if *prim.Material >= len(doc.Materials) {
			return errors.Errorf("material index %d out of range", *prim.Material)
		}
		if matName = doc.Materials[*prim.Material].Name; matName == "" {
			matName = defaultMaterialName
		}
	}
	matIndex := mesh.materialIndex(matName)

	for i := 0; i < len(indices); i += 3 {
		tri := scene.Triangle{MaterialIndex: matIndex}
		for v := 0; v < 3; v++ {
			vIndex := int(indices[i+v])
			if vIndex >= len(positions) {
				return errors.Errorf("vertex index %d out of range", vIndex)
			}
			tri.Vertices[v].Position = types.Vec3(positions[vIndex])
			if vIndex < len(uvs) {
				tri.Vertices[v].UV = types.Vec2(uvs[vIndex])
			}
		}

		if len(normals) == len(positions) {
			for v := 0; v < 3; v++ {
				tri.Vertices[v].Normal = types.Vec3(normals[indices[i+v]])
			}
		} else {
			faceNormal := tri.Normal()
			for v := range tri.Vertices {
				tri.Vertices[v].Normal = faceNormal
			}
		}
		mesh.Triangles = append(mesh.Triangles, tri)
	}

	return nil
}

func accessor(doc *gltf.Document, index int) (*gltf.Accessor, error) {
	if index < 0 || index >= len(doc.Accessors) {
		return nil, errors.Errorf("accessor index %d out of range", index)
	}
	return doc.Accessors[index], nil
}
