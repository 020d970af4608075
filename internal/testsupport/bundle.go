package testsupport

import (
	"archive/tar"
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// WriteTarBundle packs the named files (path -> contents) into a tar at
// path, in map-iteration-independent sorted order by the caller's slice.
func WriteTarBundle(t testing.TB, path string, members []string, contents map[string][]byte) {
	t.Helper()

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, name := range members {
		body := contents[name]
		hdr := &tar.Header{
			Name:     name,
			Mode:     0o644,
			Size:     int64(len(body)),
			Typeflag: tar.TypeReg,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("bundle header %s: %v", name, err)
		}
		if _, err := tw.Write(body); err != nil {
			t.Fatalf("bundle member %s: %v", name, err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("close bundle: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create bundle dir: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write bundle: %v", err)
	}
}

// RenderPGMStream returns the raw (uncompressed) bytes of a synthetic PGM
// stream without touching disk, for embedding in bundles.
func RenderPGMStream(t testing.TB, spec PGMStream) []byte {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "stream.pgm")
	WritePGMStream(t, path, spec)
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read rendered stream: %v", err)
	}
	return raw
}
