package persistence

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestMediaSave(t *testing.T) {
	dir := t.TempDir()
	repo := NewMediaRepository(dir, "/uploads")
	repo.now = func() time.Time { return time.UnixMilli(1700000000000) }

	media, err := repo.Save(context.Background(), "My Photo (1).PNG", []byte("png-bytes"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	want := "my-photo-1-1700000000000.png"
	if media.Name != want {
		t.Errorf("Name = %q, want %q", media.Name, want)
	}
	if media.URL != "/uploads/"+want {
		t.Errorf("URL = %q, want %q", media.URL, "/uploads/"+want)
	}

	data, err := os.ReadFile(filepath.Join(dir, media.Name))
	if err != nil {
		t.Fatalf("stored file unreadable: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Errorf("stored content = %q", data)
	}
}

func TestMediaSave_EmptyBaseName(t *testing.T) {
	repo := NewMediaRepository(t.TempDir(), "/uploads/")
	repo.now = func() time.Time { return time.UnixMilli(42) }

	media, err := repo.Save(context.Background(), "###.mp3", []byte("audio"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !strings.HasPrefix(media.Name, "upload-") || !strings.HasSuffix(media.Name, ".mp3") {
		t.Errorf("Name = %q, want upload-<ts>.mp3", media.Name)
	}
	if strings.Contains(media.URL, "//") {
		t.Errorf("URL has doubled slash: %q", media.URL)
	}
}
