package asset

import (
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// A Resource is a readable stream backed by a local file or a remote
// http/https URL.
type Resource struct {
	io.ReadCloser
	url    *url.URL
	stream bool
}

// Returns the path to this resource.
func (r *Resource) Path() string {
	return r.url.String()
}

// Returns the local file path for this resource or an empty string if the
// resource is remote or was created from a stream.
func (r *Resource) LocalPath() string {
	if r.stream || r.IsRemote() || r.url.Path == "" {
		return ""
	}
	return filepath.Clean(r.url.Path)
}

// Returns the lower-cased file extension of the resource path, including
// the leading dot.
func (r *Resource) Ext() string {
	return strings.ToLower(path.Ext(r.url.Path))
}

// Returns true if the Resource is streamed over http/https.
func (r *Resource) IsRemote() bool {
	return r.url.Scheme != ""
}

// Open a resource. If relTo is specified and pathToResource does not define
// a scheme, the path is resolved relative to the directory of relTo.
//
// http/https URLs are fetched with the net/http package. The caller must
// close the returned resource.
func NewResource(pathToResource string, relTo *Resource) (*Resource, error) {
	// Replace backslashes with forward slashes and try parsing as a URL
	resURL, err := url.Parse(strings.Replace(pathToResource, `\`, `/`, -1))
	if err != nil {
		return nil, errors.Wrapf(err, "resource: invalid location %q", pathToResource)
	}

	// Resolve relative locations against the parent resource
	if resURL.Scheme == "" && relTo != nil && !filepath.IsAbs(resURL.Path) {
		if relTo.IsRemote() {
			resURL = relTo.url.ResolveReference(resURL)
		} else {
			parent, err := filepath.Abs(relTo.url.Path)
			if err != nil {
				return nil, errors.Wrapf(err, "resource: could not detect abs path for %s", relTo.Path())
			}
			resURL.Path = filepath.Join(filepath.Dir(parent), resURL.Path)
		}
	}

	var reader io.ReadCloser
	switch resURL.Scheme {
	case "":
		reader, err = os.Open(filepath.Clean(resURL.Path))
		if err != nil {
			return nil, errors.Wrap(err, "resource")
		}
	case "http", "https":
		resp, err := http.Get(resURL.String())
		if err != nil {
			return nil, errors.Wrapf(err, "resource: could not fetch '%s'", resURL.String())
		}
		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return nil, errors.Errorf("resource: could not fetch '%s': status %d", resURL.String(), resp.StatusCode)
		}
		reader = resp.Body
	default:
		return nil, errors.Errorf("resource: unsupported scheme '%s'", resURL.Scheme)
	}

	return &Resource{
		ReadCloser: reader,
		url:        resURL,
	}, nil
}

// Create a resource from a reader.
func NewResourceFromStream(name string, source io.Reader) *Resource {
	resURL, err := url.Parse(name)
	if err != nil {
		resURL = &url.URL{Opaque: name}
	}
	return &Resource{
		ReadCloser: io.NopCloser(source),
		url:        resURL,
		stream:     true,
	}
}
