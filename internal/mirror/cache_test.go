package mirror

import (
	"context"
	"testing"

	"github.com/dl-alexandre/gdmirror/internal/types"
	"github.com/spf13/afero"
)

func TestLookupCache(t *testing.T) {
	target := types.SyncTarget{Dir: "/m", CurrentFilename: "abc.txt", LegacyFilename: "a.txt"}

	tests := []struct {
		name  string
		setup func(fs afero.Fs)
		want  CacheState
	}{
		{"nothing", func(fs afero.Fs) {}, CacheMiss},
		{"current", func(fs afero.Fs) { _ = afero.WriteFile(fs, "/m/abc.txt", nil, 0644) }, CacheHit},
		{"legacy", func(fs afero.Fs) { _ = afero.WriteFile(fs, "/m/a.txt", nil, 0644) }, CacheMigrate},
		{"both prefers current", func(fs afero.Fs) {
			_ = afero.WriteFile(fs, "/m/abc.txt", nil, 0644)
			_ = afero.WriteFile(fs, "/m/a.txt", nil, 0644)
		}, CacheHit},
		{"legacy is a directory", func(fs afero.Fs) { _ = fs.MkdirAll("/m/a.txt", 0755) }, CacheMiss},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			tt.setup(fs)
			got, err := LookupCache(fs, target)
			if err != nil {
				t.Fatalf("LookupCache: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestWriteFile_LeavesNoTempFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = fs.MkdirAll("/m", 0755)
	if err := writeFile(fs, "/m/out.bin", []byte("data")); err != nil {
		t.Fatalf("writeFile: %v", err)
	}
	entries, err := afero.ReadDir(fs, "/m")
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "out.bin" {
		t.Errorf("unexpected entries: %v", entries)
	}
}

func TestMatcher(t *testing.T) {
	m := NewMatcher([]string{"drafts/", "*.tmp", "Archive", "  "})
	tests := []struct {
		path  string
		isDir bool
		want  bool
	}{
		{"drafts", true, true},
		{"drafts/a.txt", false, true},
		{"notes/drafts.txt", false, false},
		{"x/y/z.tmp", false, true},
		{"Archive", true, true},
		{"Archive/old.pdf", false, true},
		{"sub/Archive", false, true},
		{"sub/Archive", true, false},
		{"keep.txt", false, false},
	}
	for _, tt := range tests {
		if got := m.IsExcluded(tt.path, tt.isDir); got != tt.want {
			t.Errorf("IsExcluded(%q, %v) = %v, want %v", tt.path, tt.isDir, got, tt.want)
		}
	}
	if len(m.Patterns()) != 3 {
		t.Errorf("patterns = %v", m.Patterns())
	}

	var nilMatcher *Matcher
	if nilMatcher.IsExcluded("anything", false) {
		t.Error("nil matcher should exclude nothing")
	}
}

func TestLookupTransform(t *testing.T) {
	for _, name := range []string{"", TransformIdentity, TransformNormalizeNewlines} {
		if _, err := LookupTransform(name); err != nil {
			t.Errorf("LookupTransform(%q): %v", name, err)
		}
	}
	if _, err := LookupTransform("rot13"); err == nil {
		t.Error("expected error for unknown transform")
	}

	out, _ := NormalizeNewlines(context.Background(), []byte("a\r\nb\rc\n"))
	if string(out) != "a\nb\nc\n" {
		t.Errorf("NormalizeNewlines = %q", out)
	}
}

func TestMetadataDigest(t *testing.T) {
	a := types.RemoteItemMetadata{ID: "1", Name: "a"}
	b := types.RemoteItemMetadata{ID: "1", Name: "b"}
	if MetadataDigest(a) != MetadataDigest(a) {
		t.Error("digest not stable")
	}
	if MetadataDigest(a) == MetadataDigest(b) {
		t.Error("digest ignores name")
	}
	if len(MetadataDigest(a)) != 64 {
		t.Errorf("digest length = %d", len(MetadataDigest(a)))
	}
}
