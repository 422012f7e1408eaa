package mesh

import (
	"github.com/achilleasa/bvhtrace/asset"
	"github.com/pkg/errors"
)

var ErrUnsupportedFormat = errors.New("mesh: unsupported file format")

// The Reader interface is implemented by all mesh readers.
type Reader interface {
	// Read mesh from a resource.
	Read(*asset.Resource) (*Mesh, error)
}

// Read a mesh from a local path or http/https URL. The reader is selected
// using the file extension.
func ReadMesh(location string) (*Mesh, error) {
	res, err := asset.NewResource(location, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	reader, err := readerFor(res)
	if err != nil {
		return nil, err
	}
	return reader.Read(res)
}

func readerFor(res *asset.Resource) (Reader, error) {
	switch res.Ext() {
	case ".obj":
		return newWavefrontReader(), nil
	case ".gltf", ".glb":
		return newGltfReader(), nil
	}
	return nil, errors.Wrapf(ErrUnsupportedFormat, "%q", res.Path())
}
