package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newTestBucket(t *testing.T) *Bucket {
	t.Helper()
	b, err := NewBucket("media", t.TempDir(), "http://localhost:5000/storage")
	if err != nil {
		t.Fatalf("new bucket: %v", err)
	}
	return b
}

func TestUploadAndMeta(t *testing.T) {
	b := newTestBucket(t)

	opts := UploadOptions{ContentType: "image/png", CacheControl: "max-age=3600"}
	if err := b.Upload("123_photo.png", []byte("fake png"), opts); err != nil {
		t.Fatalf("upload: %v", err)
	}

	ok, err := b.Exists("123_photo.png")
	if err != nil || !ok {
		t.Fatalf("object missing after upload (ok=%v err=%v)", ok, err)
	}

	meta, err := b.Meta("123_photo.png")
	if err != nil {
		t.Fatalf("meta: %v", err)
	}
	if meta.ContentType != "image/png" || meta.CacheControl != "max-age=3600" || meta.Size != int64(len("fake png")) {
		t.Fatalf("unexpected meta: %+v", meta)
	}
}

func TestUploadNoOverwrite(t *testing.T) {
	b := newTestBucket(t)

	if err := b.Upload("dup.png", []byte("one"), UploadOptions{}); err != nil {
		t.Fatalf("first upload: %v", err)
	}
	err := b.Upload("dup.png", []byte("two"), UploadOptions{})
	if !errors.Is(err, ErrObjectExists) {
		t.Fatalf("second upload = %v, want ErrObjectExists", err)
	}

	// Upsert is allowed explicitly.
	if err := b.Upload("dup.png", []byte("two"), UploadOptions{Upsert: true}); err != nil {
		t.Fatalf("upsert upload: %v", err)
	}
	full, _ := b.FilePath("dup.png")
	data, err := os.ReadFile(full)
	if err != nil || string(data) != "two" {
		t.Fatalf("upsert did not replace content: %q %v", data, err)
	}
}

func TestRemove(t *testing.T) {
	b := newTestBucket(t)

	if err := b.Upload("gone.png", []byte("x"), UploadOptions{}); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if err := b.Remove("gone.png"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	ok, _ := b.Exists("gone.png")
	if ok {
		t.Fatal("object survived remove")
	}
	if _, err := os.Stat(filepath.Join(b.Dir(), "gone.png.meta.json")); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("meta sidecar survived remove")
	}

	// Removing a missing object is not an error.
	if err := b.Remove("never-there.png"); err != nil {
		t.Fatalf("remove missing: %v", err)
	}
}

func TestInvalidPaths(t *testing.T) {
	b := newTestBucket(t)

	for _, path := range []string{"", "../escape", "a/b.png", `a\b.png`} {
		if err := b.Upload(path, []byte("x"), UploadOptions{}); !errors.Is(err, ErrInvalidPath) {
			t.Errorf("upload(%q) = %v, want ErrInvalidPath", path, err)
		}
	}
}

func TestPublicURL(t *testing.T) {
	b := newTestBucket(t)

	want := "http://localhost:5000/storage/media/123_photo.png"
	if got := b.PublicURL("123_photo.png"); got != want {
		t.Fatalf("PublicURL = %q, want %q", got, want)
	}
}
