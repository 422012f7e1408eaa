package bvh

import (
	"archive/zip"
	"os"
	"path/filepath"
	"time"

	"github.com/achilleasa/bvhtrace/log"
	"github.com/achilleasa/bvhtrace/scene"
	"github.com/pkg/errors"
)

const (
	dataFile = "hierarchy.bin"
)

// A Cache stores built hierarchies as zip archives inside a directory. Each
// archive is named after the checksum of the mesh vertex positions.
type Cache struct {
	logger log.Logger
	dir    string
}

// Create a cache rooted at dir. The directory is created on first store.
func NewCache(dir string) *Cache {
	return &Cache{
		logger: log.New("bvh cache"),
		dir:    dir,
	}
}

// Get the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Get the path of the archive for a mesh checksum.
func (c *Cache) Path(checksum string) string {
	return filepath.Join(c.dir, checksum+".zip")
}

// Load the cached hierarchy for a mesh and validate it against the mesh
// triangles. ErrNotCached is returned if no archive exists for checksum.
func (c *Cache) Load(checksum string, triangles []scene.Triangle) (*Hierarchy, error) {
	path := c.Path(checksum)
	start := time.Now()

	zr, err := zip.OpenReader(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotCached
		}
		return nil, errors.Wrapf(err, "bvh cache: open %s", path)
	}
	defer zr.Close()

	var h *Hierarchy
	for _, f := range zr.File {
		if f.Name != dataFile {
			c.logger.Warningf("unknown file %s in hierarchy archive; skipping", f.Name)
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, errors.Wrapf(err, "bvh cache: open %s in %s", f.Name, path)
		}
		h, err = ReadHierarchy(rc)
		rc.Close()
		if err != nil {
			return nil, errors.Wrapf(err, "bvh cache: failed to load %s", path)
		}
	}

	if h == nil {
		return nil, errors.Wrapf(ErrCorruptHierarchy, "archive %s has no %s entry", path, dataFile)
	}
	if err = h.Validate(len(triangles)); err != nil {
		return nil, errors.Wrapf(err, "bvh cache: stale hierarchy %s", path)
	}

	c.logger.Infof("loaded hierarchy from %s in %d ms", path, time.Since(start).Nanoseconds()/1e6)
	return h, nil
}

// Store a hierarchy under a mesh checksum, replacing any existing archive.
func (c *Cache) Store(checksum string, h *Hierarchy) error {
	start := time.Now()
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return errors.Wrapf(err, "bvh cache: create %s", c.dir)
	}

	// Write to a temp file and rename it into place so readers never
	// observe a partial archive.
	tmp, err := os.CreateTemp(c.dir, checksum+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "bvh cache: create temp file")
	}
	defer os.Remove(tmp.Name())

	zw := zip.NewWriter(tmp)
	cw, err := zw.Create(dataFile)
	if err != nil {
		tmp.Close()
		return errors.Wrap(err, "bvh cache: create archive entry")
	}
	if _, err = h.WriteTo(cw); err != nil {
		tmp.Close()
		return err
	}
	if err = zw.Close(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "bvh cache: finalize archive")
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "bvh cache: close archive")
	}

	path := c.Path(checksum)
	if err = os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "bvh cache: move archive to %s", path)
	}

	c.logger.Infof("stored hierarchy in %s in %d ms", path, time.Since(start).Nanoseconds()/1e6)
	return nil
}

// Load the hierarchy for triangles from the cache if one built with the
// same options exists; otherwise build it and store the result. A nil cache
// always builds. Failures to read or write the cache are logged and do not
// fail the call.
func LoadOrBuild(cache *Cache, triangles []scene.Triangle, opts Options) (*Hierarchy, error) {
	opts, err := opts.normalize()
	if err != nil {
		return nil, err
	}
	if cache == nil {
		return Build(triangles, opts)
	}

	checksum := scene.Checksum(triangles)
	h, err := cache.Load(checksum, triangles)
	switch {
	case err == nil && h.Options() == opts:
		return h, nil
	case err == nil:
		cache.logger.Infof("cached hierarchy was built with %s/%d; rebuilding with %s/%d",
			h.Options().SplitMode, h.Options().LeafThreshold, opts.SplitMode, opts.LeafThreshold)
	case errors.Is(err, ErrNotCached):
		cache.logger.Infof("no cached hierarchy for mesh %s", checksum)
	default:
		cache.logger.Warningf("ignoring cached hierarchy: %s", err)
	}

	h, err = Build(triangles, opts)
	if err != nil {
		return nil, err
	}
	if err = cache.Store(checksum, h); err != nil {
		cache.logger.Warningf("could not cache hierarchy: %s", err)
	}
	return h, nil
}
