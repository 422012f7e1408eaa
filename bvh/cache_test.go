package bvh

import (
	"os"
	"testing"

	"github.com/achilleasa/bvhtrace/scene"
	"github.com/pkg/errors"
)

func TestCacheStoreLoad(t *testing.T) {
	mesh := randomMesh(21, 100)
	checksum := scene.Checksum(mesh)
	cache := NewCache(t.TempDir())

	if _, err := cache.Load(checksum, mesh); err != ErrNotCached {
		t.Fatalf("expected ErrNotCached for empty cache; got %v", err)
	}

	h, err := Build(mesh, Options{SplitMode: SurfaceAreaHeuristic})
	if err != nil {
		t.Fatal(err)
	}
	if err = cache.Store(checksum, h); err != nil {
		t.Fatal(err)
	}
	if _, err = os.Stat(cache.Path(checksum)); err != nil {
		t.Fatalf("expected archive at %s: %v", cache.Path(checksum), err)
	}

	loaded, err := cache.Load(checksum, mesh)
	if err != nil {
		t.Fatal(err)
	}
	assertSameHierarchy(t, h, loaded)

	// Only the archive should remain in the cache dir
	entries, err := os.ReadDir(cache.Dir())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 file in cache dir; got %d", len(entries))
	}
}

func TestCacheLoadStale(t *testing.T) {
	mesh := randomMesh(22, 50)
	other := randomMesh(23, 60)
	cache := NewCache(t.TempDir())

	h, err := Build(other, Options{})
	if err != nil {
		t.Fatal(err)
	}

	// Store a hierarchy for a different mesh under the checksum of mesh
	checksum := scene.Checksum(mesh)
	if err = cache.Store(checksum, h); err != nil {
		t.Fatal(err)
	}
	if _, err = cache.Load(checksum, mesh); !errors.Is(err, ErrTriangleCountMismatch) {
		t.Fatalf("expected ErrTriangleCountMismatch; got %v", err)
	}

	// LoadOrBuild must recover by rebuilding and replacing the archive
	rebuilt, err := LoadOrBuild(cache, mesh, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if err = rebuilt.Validate(len(mesh)); err != nil {
		t.Fatal(err)
	}
	if _, err = cache.Load(checksum, mesh); err != nil {
		t.Fatalf("expected rebuilt hierarchy to be cached; got %v", err)
	}
}

func TestCacheLoadCorruptArchive(t *testing.T) {
	mesh := randomMesh(24, 30)
	checksum := scene.Checksum(mesh)
	cache := NewCache(t.TempDir())

	if err := os.WriteFile(cache.Path(checksum), []byte("not a zip file"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := cache.Load(checksum, mesh); err == nil || err == ErrNotCached {
		t.Fatalf("expected an archive error; got %v", err)
	}

	h, err := LoadOrBuild(cache, mesh, Options{SplitMode: SurfaceAreaHeuristic})
	if err != nil {
		t.Fatal(err)
	}
	if err = h.Validate(len(mesh)); err != nil {
		t.Fatal(err)
	}
}

func TestLoadOrBuild(t *testing.T) {
	mesh := randomMesh(25, 120)
	cache := NewCache(t.TempDir())
	opts := Options{SplitMode: SurfaceAreaHeuristic, LeafThreshold: 3}

	built, err := LoadOrBuild(cache, mesh, opts)
	if err != nil {
		t.Fatal(err)
	}
	if _, err = os.Stat(cache.Path(scene.Checksum(mesh))); err != nil {
		t.Fatalf("expected LoadOrBuild to populate the cache: %v", err)
	}

	loaded, err := LoadOrBuild(cache, mesh, opts)
	if err != nil {
		t.Fatal(err)
	}
	assertSameHierarchy(t, built, loaded)

	// Different options must trigger a rebuild
	median, err := LoadOrBuild(cache, mesh, Options{SplitMode: MedianSplit})
	if err != nil {
		t.Fatal(err)
	}
	if exp := (Options{SplitMode: MedianSplit, LeafThreshold: 6}); median.Options() != exp {
		t.Fatalf("expected options %+v; got %+v", exp, median.Options())
	}

	// A nil cache always builds
	uncached, err := LoadOrBuild(nil, mesh, opts)
	if err != nil {
		t.Fatal(err)
	}
	assertSameHierarchy(t, built, uncached)
}
