package upload

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/textproto"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

func fileHeader(t *testing.T, filename, contentType string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatalf("CreatePart: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	w.Close()

	reader := multipart.NewReader(&buf, w.Boundary())
	form, err := reader.ReadForm(32 << 20)
	if err != nil {
		t.Fatalf("ReadForm: %v", err)
	}
	t.Cleanup(func() { form.RemoveAll() })
	return form.File["image"][0]
}

func TestSave_GeneratesUniquePublicPath(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	fh := fileHeader(t, "photo.png", "image/png", []byte("png-bytes"))
	publicPath, err := store.Save(fh, "image")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	if !strings.HasPrefix(publicPath, PublicPrefix+"/") {
		t.Errorf("public path %q lacks %q prefix", publicPath, PublicPrefix)
	}
	pattern := regexp.MustCompile(`^image-\d+-\d+\.png$`)
	if name := path.Base(publicPath); !pattern.MatchString(name) {
		t.Errorf("filename %q does not match <field>-<timestamp>-<random>.<ext>", name)
	}

	stored, err := os.ReadFile(filepath.Join(store.Dir(), path.Base(publicPath)))
	if err != nil {
		t.Fatalf("stored file unreadable: %v", err)
	}
	if string(stored) != "png-bytes" {
		t.Errorf("stored content mismatch: %q", stored)
	}
}

func TestSave_RejectsBadUploads(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	tests := []struct {
		name    string
		fh      *multipart.FileHeader
		wantErr error
	}{
		{
			name:    "wrong extension",
			fh:      fileHeader(t, "notes.pdf", "application/pdf", []byte("pdf")),
			wantErr: ErrUnsupportedType,
		},
		{
			name:    "image extension but non-image content type",
			fh:      fileHeader(t, "sneaky.png", "application/octet-stream", []byte("x")),
			wantErr: ErrUnsupportedType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := store.Save(tt.fh, "image"); !errors.Is(err, tt.wantErr) {
				t.Errorf("Save = %v, want %v", err, tt.wantErr)
			}
		})
	}

	// Nothing should have landed on disk.
	entries, err := os.ReadDir(store.Dir())
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("rejected uploads left %d files behind", len(entries))
	}
}

func TestValidate_SizeCeiling(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	fh := fileHeader(t, "big.png", "image/png", []byte("x"))
	fh.Size = MaxFileSize + 1
	if err := store.Validate(fh); !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("Validate = %v, want ErrFileTooLarge", err)
	}

	fh.Size = MaxFileSize
	if err := store.Validate(fh); err != nil {
		t.Errorf("Validate at the ceiling should pass, got %v", err)
	}
}

func TestRemove_MissingFileIsNotAnError(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	if err := store.Remove(PublicPrefix + "/image-1-1.png"); err != nil {
		t.Errorf("Remove of absent file: %v", err)
	}
	if err := store.Remove(""); err != nil {
		t.Errorf("Remove of empty path: %v", err)
	}

	fh := fileHeader(t, "photo.jpg", "image/jpeg", []byte("jpg"))
	publicPath, err := store.Save(fh, "image")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Remove(publicPath); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(filepath.Join(store.Dir(), path.Base(publicPath))); !os.IsNotExist(err) {
		t.Error("file still present after Remove")
	}
}
