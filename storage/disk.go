package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrObjectExists  = errors.New("storage: object already exists")
	ErrInvalidPath   = errors.New("storage: invalid object path")
	ErrObjectMissing = errors.New("storage: object not found")
)

// UploadOptions mirror the options the hosted storage API accepts.
// With Upsert false (the default) an upload to an existing path fails.
type UploadOptions struct {
	ContentType  string
	CacheControl string
	Upsert       bool
}

// ObjectMeta is persisted alongside each object so the file server can
// reply with the headers the object was uploaded with.
type ObjectMeta struct {
	ContentType  string `json:"content_type"`
	CacheControl string `json:"cache_control"`
	Size         int64  `json:"size"`
}

// Bucket is a disk-backed object store. Objects live as plain files
// under root/<bucket name>; public URLs are baseURL/<bucket name>/<path>.
type Bucket struct {
	name    string
	dir     string
	baseURL string
}

func NewBucket(name, root, baseURL string) (*Bucket, error) {
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create bucket dir: %w", err)
	}
	return &Bucket{
		name:    name,
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

func (b *Bucket) Name() string { return b.name }

// Dir returns the directory backing the bucket, for static serving.
func (b *Bucket) Dir() string { return b.dir }

// Upload writes blob at path. Without Upsert the call fails if the path
// is already taken, matching the no-overwrite upload semantics the
// callers rely on.
func (b *Bucket) Upload(path string, blob []byte, opts UploadOptions) error {
	full, err := b.objectPath(path)
	if err != nil {
		return err
	}

	if !opts.Upsert {
		if _, err := os.Stat(full); err == nil {
			return fmt.Errorf("%w: %s", ErrObjectExists, path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}

	if err := os.WriteFile(full, blob, 0o644); err != nil {
		return fmt.Errorf("write object %s: %w", path, err)
	}

	meta := ObjectMeta{
		ContentType:  opts.ContentType,
		CacheControl: opts.CacheControl,
		Size:         int64(len(blob)),
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return os.WriteFile(full+".meta.json", raw, 0o644)
}

// Remove deletes the named objects. Removing a path that does not exist
// is not an error; the object is gone either way.
func (b *Bucket) Remove(paths ...string) error {
	for _, path := range paths {
		full, err := b.objectPath(path)
		if err != nil {
			return err
		}
		if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove object %s: %w", path, err)
		}
		if err := os.Remove(full + ".meta.json"); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove object meta %s: %w", path, err)
		}
	}
	return nil
}

// Meta returns the stored metadata for an object.
func (b *Bucket) Meta(path string) (ObjectMeta, error) {
	full, err := b.objectPath(path)
	if err != nil {
		return ObjectMeta{}, err
	}
	raw, err := os.ReadFile(full + ".meta.json")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ObjectMeta{}, fmt.Errorf("%w: %s", ErrObjectMissing, path)
		}
		return ObjectMeta{}, err
	}
	var meta ObjectMeta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return ObjectMeta{}, err
	}
	return meta, nil
}

// Exists reports whether an object is stored at path.
func (b *Bucket) Exists(path string) (bool, error) {
	full, err := b.objectPath(path)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(full); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// PublicURL resolves the externally reachable URL for an object path.
// The URL is valid whether or not the object exists yet.
func (b *Bucket) PublicURL(path string) string {
	return fmt.Sprintf("%s/%s/%s", b.baseURL, b.name, path)
}

// FilePath resolves the on-disk location of an object, for serving.
func (b *Bucket) FilePath(path string) (string, error) {
	return b.objectPath(path)
}

func (b *Bucket) objectPath(path string) (string, error) {
	if path == "" || strings.Contains(path, "..") || strings.ContainsAny(path, "/\\") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	return filepath.Join(b.dir, path), nil
}
