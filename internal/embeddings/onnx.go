//go:build cgo

package embeddings

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"

	"go.uber.org/zap"
)

// DefaultONNXRuntimeVersion matches the onnxruntime_go release fastembed-go
// links against.
const DefaultONNXRuntimeVersion = "1.23.0"

// DefaultONNXReleaseURL is formatted with the version and platform archive.
const DefaultONNXReleaseURL = "https://github.com/microsoft/onnxruntime/releases/download/v%[1]s/onnxruntime-%[2]s-%[1]s.tgz"

// onnxPathEnv is read by fastembed-go to locate the shared library.
const onnxPathEnv = "ONNX_PATH"

// ErrUnsupportedPlatform indicates no ONNX runtime release exists for GOOS/GOARCH.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

var onnxArchives = map[string]string{
	"linux/amd64":  "linux-x64",
	"linux/arm64":  "linux-aarch64",
	"darwin/amd64": "osx-x86_64",
	"darwin/arm64": "osx-arm64",
}

// setenv is replaced in tests.
var setenv = os.Setenv

// ONNXRuntime locates, installs and activates the ONNX runtime shared
// library. Zero fields take the defaults of the running platform.
type ONNXRuntime struct {
	Version    string
	Dir        string
	GOOS       string
	GOARCH     string
	ReleaseURL string
	Client     *http.Client
	Logger     *zap.Logger
}

func (r ONNXRuntime) withDefaults() ONNXRuntime {
	if r.Version == "" {
		r.Version = DefaultONNXRuntimeVersion
	}
	if r.Dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		r.Dir = filepath.Join(home, ".config", "locable", "lib")
	}
	if r.GOOS == "" {
		r.GOOS = runtime.GOOS
	}
	if r.GOARCH == "" {
		r.GOARCH = runtime.GOARCH
	}
	if r.ReleaseURL == "" {
		r.ReleaseURL = DefaultONNXReleaseURL
	}
	if r.Client == nil {
		r.Client = http.DefaultClient
	}
	if r.Logger == nil {
		r.Logger = zap.NewNop()
	}
	return r
}

// LibraryName is the shared library file for the target OS.
func (r ONNXRuntime) LibraryName() string {
	if r.withDefaults().GOOS == "darwin" {
		return "libonnxruntime.dylib"
	}
	return "libonnxruntime.so"
}

// DownloadURL is the release archive for the target platform.
func (r ONNXRuntime) DownloadURL() (string, error) {
	r = r.withDefaults()
	archive, ok := onnxArchives[r.GOOS+"/"+r.GOARCH]
	if !ok {
		return "", fmt.Errorf("%w: %s/%s", ErrUnsupportedPlatform, r.GOOS, r.GOARCH)
	}
	return fmt.Sprintf(r.ReleaseURL, r.Version, archive), nil
}

// Path returns ONNX_PATH when set, else the installed library, else "".
func (r ONNXRuntime) Path() string {
	if p := os.Getenv(onnxPathEnv); p != "" {
		return p
	}
	r = r.withDefaults()
	installed := filepath.Join(r.Dir, r.LibraryName())
	if _, err := os.Stat(installed); err == nil {
		return installed
	}
	return ""
}

// Install downloads the release archive and extracts its lib/ directory
// into Dir, replacing what is there. It returns the library path.
func (r ONNXRuntime) Install(ctx context.Context) (string, error) {
	r = r.withDefaults()
	url, err := r.DownloadURL()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(r.Dir, 0o700); err != nil {
		return "", fmt.Errorf("creating %s: %w", r.Dir, err)
	}

	r.Logger.Info("downloading ONNX runtime", zap.String("url", url))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	resp, err := r.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading ONNX runtime: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("downloading ONNX runtime: %s returned %d", url, resp.StatusCode)
	}

	if err := extractLibs(resp.Body, r.Dir, r.LibraryName()); err != nil {
		return "", fmt.Errorf("extracting ONNX runtime: %w", err)
	}
	lib := filepath.Join(r.Dir, r.LibraryName())
	r.Logger.Info("ONNX runtime installed", zap.String("path", lib))
	return lib, nil
}

// Ensure finds or installs the library and exports ONNX_PATH for
// fastembed-go.
func (r ONNXRuntime) Ensure(ctx context.Context) (string, error) {
	lib := r.Path()
	if lib == "" {
		var err error
		if lib, err = r.Install(ctx); err != nil {
			return "", fmt.Errorf("%w (set %s to an installed libonnxruntime)", err, onnxPathEnv)
		}
	}
	if err := setenv(onnxPathEnv, lib); err != nil {
		return "", fmt.Errorf("setting %s: %w", onnxPathEnv, err)
	}
	return lib, nil
}

// extractLibs copies the entries under <top>/lib/ of a release tarball into
// dir, flattening paths. The archive must provide libName, either as a file
// or as a symlink to a versioned file.
func extractLibs(r io.Reader, dir, libName string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return err
	}
	defer gz.Close()

	found := false
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		parts := strings.Split(path.Clean(strings.TrimPrefix(hdr.Name, "./")), "/")
		if len(parts) != 3 || parts[1] != "lib" {
			continue
		}
		name := parts[2]
		dest := filepath.Join(dir, name)

		switch hdr.Typeflag {
		case tar.TypeSymlink:
			if strings.Contains(hdr.Linkname, "/") {
				continue
			}
			_ = os.Remove(dest)
			if err := os.Symlink(hdr.Linkname, dest); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeAtomic(dest, tr); err != nil {
				return err
			}
		default:
			continue
		}
		if name == libName || strings.HasPrefix(name, libName+".") {
			found = true
		}
	}

	if !found {
		return fmt.Errorf("%s not found in archive", libName)
	}
	return nil
}

func writeAtomic(dest string, r io.Reader) error {
	tmp := dest + ".partial"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dest)
}
