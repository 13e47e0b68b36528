// Package installer locates external tool binaries and provisions the ones
// that are missing. A tool is searched for on PATH first and then in the
// per-user install directory, so an operator-managed binary always wins
// over one we downloaded ourselves.
package installer

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

var (
	// ErrDownloadFailed marks a tool archive that could not be fetched.
	ErrDownloadFailed = errors.New("tool download failed")

	// ErrInstallVerificationFailed marks an archive that unpacked without
	// producing the expected executable.
	ErrInstallVerificationFailed = errors.New("installed tool failed verification")
)

const defaultDirName = ".fleetscan"

// DefaultDir returns the per-user directory managed tool binaries are
// installed into.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, defaultDirName, "bin"), nil
}

// FindTool looks for name on PATH and then in the default install
// directory. See FindToolIn for the return values.
func FindTool(name string) (string, string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", "", err
	}
	return FindToolIn(name, dir)
}

// FindToolIn looks for name on PATH and then as an executable file inside
// dir. It returns the resolved path and where it was found, "PATH" or
// "installed".
func FindToolIn(name, dir string) (string, string, error) {
	if path, err := exec.LookPath(name); err == nil {
		return path, "PATH", nil
	}

	candidate := filepath.Join(dir, name)
	info, err := os.Stat(candidate)
	if err != nil {
		return "", "", fmt.Errorf("%s not found on PATH or in %s", name, dir)
	}
	if info.IsDir() || info.Mode()&0o111 == 0 {
		return "", "", fmt.Errorf("%s exists at %s but is not executable", name, candidate)
	}
	return candidate, "installed", nil
}

// Spec describes one tool to provision.
type Spec struct {
	Name  string // binary name expected inside the archive
	URL   string // archive to download when the tool is absent
	Dir   string // install directory, empty selects DefaultDir
	Force bool   // reinstall even when a usable binary exists
}

// Ensure returns the path of a usable binary for spec, downloading and
// unpacking its archive only when no binary is found. Calling it again
// after a successful install finds the installed binary and does no
// network work.
func Ensure(ctx context.Context, spec Spec) (string, error) {
	dir := spec.Dir
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return "", err
		}
		dir = d
	}

	if !spec.Force {
		if path, source, err := FindToolIn(spec.Name, dir); err == nil {
			slog.Debug("tool already available", "tool", spec.Name, "path", path, "source", source)
			return path, nil
		}
	}

	slog.Debug("downloading tool archive", "tool", spec.Name, "url", spec.URL)
	archive, err := download(ctx, spec.URL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	defer os.Remove(archive)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create install directory %s: %w", dir, err)
	}
	if err := unpack(archive, spec.URL, dir); err != nil {
		return "", fmt.Errorf("failed to unpack %s: %w", spec.URL, err)
	}

	target := filepath.Join(dir, spec.Name)
	info, err := os.Stat(target)
	if err != nil {
		return "", fmt.Errorf("%w: %s not present after unpacking", ErrInstallVerificationFailed, target)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrInstallVerificationFailed, target)
	}
	if err := os.Chmod(target, 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInstallVerificationFailed, err)
	}

	slog.Debug("tool installed", "tool", spec.Name, "path", target)
	return target, nil
}

// download fetches url into a temporary file and returns its path. The
// caller removes the file.
func download(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status %s fetching %s", resp.Status, url)
	}

	tmp, err := os.CreateTemp("", "fleetscan-download-*")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

// unpack dispatches on the archive format named by the download URL.
func unpack(archive, url, destDir string) error {
	switch {
	case strings.HasSuffix(url, ".tar.gz"), strings.HasSuffix(url, ".tgz"):
		return untarGz(archive, destDir)
	case strings.HasSuffix(url, ".zip"):
		return unzip(archive, destDir)
	default:
		return fmt.Errorf("unsupported archive format in %s", url)
	}
}

func untarGz(archive, destDir string) error {
	f, err := os.Open(archive)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		target, err := safeJoin(destDir, hdr.Name)
		if err != nil {
			return err
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeEntry(target, tr, hdr.FileInfo().Mode()); err != nil {
				return err
			}
		default:
			// Release archives only carry directories and regular files;
			// anything else is skipped.
		}
	}
}

func unzip(archive, destDir string) error {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer zr.Close()

	for _, f := range zr.File {
		target, err := safeJoin(destDir, f.Name)
		if err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		err = writeEntry(target, rc, f.FileInfo().Mode())
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// safeJoin resolves an archive entry name under destDir and rejects names
// that would escape it.
func safeJoin(destDir, name string) (string, error) {
	target := filepath.Join(destDir, name)
	if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry %q escapes install directory", name)
	}
	return target, nil
}

func writeEntry(target string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
