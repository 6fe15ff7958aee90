package snapshot

import (
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"golang.org/x/crypto/sha3"

	"github.com/nao1215/prerender/internal/link"
)

// ErrInvalidURL is returned when a URL cannot be mapped to a file path.
// It is the same sentinel as link.ErrInvalidURL.
var ErrInvalidURL = link.ErrInvalidURL

// indexFile is appended to extensionless paths.
const indexFile = "index.html"

// File and directory modes for the document root. Snapshots are meant to be
// served by a web server running as another user, so they are world-readable.
const (
	dirMode  os.FileMode = 0o755
	fileMode os.FileMode = 0o644
)

// Snapshot describes one written file.
type Snapshot struct {
	// URL is the page the snapshot was taken of.
	URL string `json:"url"`

	// Path is the file the HTML was written to.
	Path string `json:"path"`

	// Size is the number of bytes written.
	Size int `json:"size"`

	// Hash is the hex SHA3-256 of the written bytes.
	Hash string `json:"hash"`
}

// Writer writes snapshots under a root directory.
type Writer struct {
	root string
}

// NewWriter returns a Writer rooted at root.
func NewWriter(root string) *Writer {
	return &Writer{root: root}
}

// Root returns the root directory.
func (w *Writer) Root() string {
	return w.root
}

// Path returns the file rawURL maps to.
//
// The URL path is cleaned as a rooted path first, so dot segments can never
// climb above the root.
func (w *Writer) Path(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidURL, rawURL, err)
	}
	if u.Host == "" || u.Opaque != "" {
		return "", fmt.Errorf("%w: %s: no usable path", ErrInvalidURL, rawURL)
	}

	p := path.Clean("/" + u.Path)
	if path.Ext(p) == "" || hasTrailingSlash(u.Path) {
		p = path.Join(p, indexFile)
	}

	return filepath.Join(w.root, filepath.FromSlash(p)), nil
}

// hasTrailingSlash reports whether p names a directory ("/v1.2/").
func hasTrailingSlash(p string) bool {
	return len(p) > 0 && p[len(p)-1] == '/'
}

// Write stores html as the snapshot of rawURL, creating parent directories
// and replacing any existing file.
//
// The bytes go to a temporary file in the destination directory first and are
// renamed into place, so a concurrent reader sees either the old snapshot or
// the new one, never a partial write.
func (w *Writer) Write(rawURL, html string) (*Snapshot, error) {
	dest, err := w.Path(rawURL)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // gone after a successful rename

	data := []byte(html)
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return nil, fmt.Errorf("failed to write snapshot %s: %w", dest, err)
	}
	if err := tmp.Chmod(fileMode); err != nil {
		_ = tmp.Close()
		return nil, fmt.Errorf("failed to set mode on snapshot %s: %w", dest, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to write snapshot %s: %w", dest, err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return nil, fmt.Errorf("failed to move snapshot into place at %s: %w", dest, err)
	}

	sum := sha3.Sum256(data)
	return &Snapshot{
		URL:  rawURL,
		Path: dest,
		Size: len(data),
		Hash: hex.EncodeToString(sum[:]),
	}, nil
}
