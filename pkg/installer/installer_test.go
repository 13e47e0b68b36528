// Test file for the installer package.
//
// Globals mutated: PATH via t.Setenv, restored by the test framework.
// Downloads are served by httptest servers with in-memory archives.
package installer

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

// tarGzArchive builds a gzipped tarball holding the given files with
// mode 0755.
func tarGzArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, content := range files {
		hdr := &tar.Header{
			Name:     name,
			Mode:     0o755,
			Size:     int64(len(content)),
			Typeflag: tar.TypeReg,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("writing tar header: %v", err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatalf("writing tar entry: %v", err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("closing tar writer: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("closing gzip writer: %v", err)
	}
	return buf.Bytes()
}

// zipArchive builds a zip holding the given files with mode 0755.
func zipArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		hdr := &zip.FileHeader{Name: name, Method: zip.Deflate}
		hdr.SetMode(0o755)
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			t.Fatalf("creating zip entry: %v", err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("writing zip entry: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip writer: %v", err)
	}
	return buf.Bytes()
}

// serveArchive returns a test server that serves body at path and counts
// requests.
func serveArchive(t *testing.T, path string, body []byte) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var requests atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc(path, func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		w.Write(body)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &requests
}

// hidePath points PATH at an empty directory so LookPath cannot find
// anything.
func hidePath(t *testing.T) {
	t.Helper()
	t.Setenv("PATH", t.TempDir())
}

func TestEnsureInstallsFromTarGz(t *testing.T) {
	hidePath(t)
	archive := tarGzArchive(t, map[string]string{
		"trivy":   "#!/bin/sh\necho fake scanner\n",
		"LICENSE": "Apache-2.0\n",
	})
	srv, requests := serveArchive(t, "/trivy.tar.gz", archive)

	dir := filepath.Join(t.TempDir(), "bin")
	path, err := Ensure(context.Background(), Spec{
		Name: "trivy",
		URL:  srv.URL + "/trivy.tar.gz",
		Dir:  dir,
	})
	if err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	if want := filepath.Join(dir, "trivy"); path != want {
		t.Errorf("Ensure() path = %q, want %q", path, want)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("installed binary missing: %v", err)
	}
	if info.Mode()&0o111 == 0 {
		t.Errorf("installed binary mode = %v, want executable", info.Mode())
	}
	if got := requests.Load(); got != 1 {
		t.Errorf("download requests = %d, want 1", got)
	}
}

func TestEnsureInstallsFromZip(t *testing.T) {
	hidePath(t)
	archive := zipArchive(t, map[string]string{"trivy": "#!/bin/sh\n"})
	srv, _ := serveArchive(t, "/trivy.zip", archive)

	dir := t.TempDir()
	path, err := Ensure(context.Background(), Spec{
		Name: "trivy",
		URL:  srv.URL + "/trivy.zip",
		Dir:  dir,
	})
	if err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("installed binary missing: %v", err)
	}
}

func TestEnsureIsIdempotent(t *testing.T) {
	hidePath(t)
	archive := tarGzArchive(t, map[string]string{"trivy": "#!/bin/sh\n"})
	srv, requests := serveArchive(t, "/trivy.tar.gz", archive)

	spec := Spec{Name: "trivy", URL: srv.URL + "/trivy.tar.gz", Dir: t.TempDir()}
	first, err := Ensure(context.Background(), spec)
	if err != nil {
		t.Fatalf("first Ensure() error = %v", err)
	}
	second, err := Ensure(context.Background(), spec)
	if err != nil {
		t.Fatalf("second Ensure() error = %v", err)
	}
	if first != second {
		t.Errorf("second Ensure() path = %q, want %q", second, first)
	}
	if got := requests.Load(); got != 1 {
		t.Errorf("download requests = %d, want 1", got)
	}
}

func TestEnsureForceReinstalls(t *testing.T) {
	hidePath(t)
	archive := tarGzArchive(t, map[string]string{"trivy": "#!/bin/sh\n"})
	srv, requests := serveArchive(t, "/trivy.tar.gz", archive)

	spec := Spec{Name: "trivy", URL: srv.URL + "/trivy.tar.gz", Dir: t.TempDir(), Force: true}
	for i := 0; i < 2; i++ {
		if _, err := Ensure(context.Background(), spec); err != nil {
			t.Fatalf("Ensure() #%d error = %v", i+1, err)
		}
	}
	if got := requests.Load(); got != 2 {
		t.Errorf("download requests = %d, want 2", got)
	}
}

func TestEnsureDownloadFailed(t *testing.T) {
	hidePath(t)
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	_, err := Ensure(context.Background(), Spec{
		Name: "trivy",
		URL:  srv.URL + "/missing.tar.gz",
		Dir:  t.TempDir(),
	})
	if !errors.Is(err, ErrDownloadFailed) {
		t.Fatalf("Ensure() error = %v, want ErrDownloadFailed", err)
	}
}

func TestEnsureVerificationFailed(t *testing.T) {
	hidePath(t)
	archive := tarGzArchive(t, map[string]string{"some-other-tool": "#!/bin/sh\n"})
	srv, _ := serveArchive(t, "/trivy.tar.gz", archive)

	_, err := Ensure(context.Background(), Spec{
		Name: "trivy",
		URL:  srv.URL + "/trivy.tar.gz",
		Dir:  t.TempDir(),
	})
	if !errors.Is(err, ErrInstallVerificationFailed) {
		t.Fatalf("Ensure() error = %v, want ErrInstallVerificationFailed", err)
	}
}

func TestEnsureRejectsEscapingEntries(t *testing.T) {
	hidePath(t)
	archive := tarGzArchive(t, map[string]string{"../evil": "#!/bin/sh\n"})
	srv, _ := serveArchive(t, "/trivy.tar.gz", archive)

	parent := t.TempDir()
	dir := filepath.Join(parent, "bin")
	_, err := Ensure(context.Background(), Spec{
		Name: "trivy",
		URL:  srv.URL + "/trivy.tar.gz",
		Dir:  dir,
	})
	if err == nil {
		t.Fatal("Ensure() error = nil, want unpack failure")
	}
	if _, statErr := os.Stat(filepath.Join(parent, "evil")); !os.IsNotExist(statErr) {
		t.Error("escaping archive entry was written outside the install directory")
	}
}

func TestFindToolIn(t *testing.T) {
	hidePath(t)

	dir := t.TempDir()
	binary := filepath.Join(dir, "trivy")
	if err := os.WriteFile(binary, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("writing fake binary: %v", err)
	}

	path, source, err := FindToolIn("trivy", dir)
	if err != nil {
		t.Fatalf("FindToolIn() error = %v", err)
	}
	if path != binary {
		t.Errorf("FindToolIn() path = %q, want %q", path, binary)
	}
	if source != "installed" {
		t.Errorf("FindToolIn() source = %q, want %q", source, "installed")
	}
}

func TestFindToolInPrefersPATH(t *testing.T) {
	pathDir := t.TempDir()
	onPath := filepath.Join(pathDir, "trivy")
	if err := os.WriteFile(onPath, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("writing fake binary: %v", err)
	}
	t.Setenv("PATH", pathDir)

	installDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(installDir, "trivy"), []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("writing fake binary: %v", err)
	}

	path, source, err := FindToolIn("trivy", installDir)
	if err != nil {
		t.Fatalf("FindToolIn() error = %v", err)
	}
	if path != onPath {
		t.Errorf("FindToolIn() path = %q, want %q", path, onPath)
	}
	if source != "PATH" {
		t.Errorf("FindToolIn() source = %q, want %q", source, "PATH")
	}
}

func TestFindToolInMissing(t *testing.T) {
	hidePath(t)
	if _, _, err := FindToolIn("trivy", t.TempDir()); err == nil {
		t.Fatal("FindToolIn() error = nil, want not-found error")
	}
}

func TestFindToolInNotExecutable(t *testing.T) {
	hidePath(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "trivy"), []byte("data"), 0o644); err != nil {
		t.Fatalf("writing file: %v", err)
	}
	if _, _, err := FindToolIn("trivy", dir); err == nil {
		t.Fatal("FindToolIn() error = nil, want not-executable error")
	}
}
