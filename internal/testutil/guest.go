// Package testutil holds helpers shared by tests that need the real interop
// module.
package testutil

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"
)

// GuestPackage is the import path of the interop module, relative to the
// repository root.
const GuestPackage = "./cmd/interop-wasm"

var guest struct {
	once  sync.Once
	bytes []byte
	err   error
}

// BuildGuest compiles the interop module for wasip1 as a reactor and returns
// the binary. The build runs once per test binary. It skips in short mode and
// when no go command is available.
func BuildGuest(t testing.TB) []byte {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping guest build in short mode")
	}
	goBin, err := exec.LookPath("go")
	if err != nil {
		t.Skipf("skipping guest build: %v", err)
	}

	guest.once.Do(func() {
		guest.bytes, guest.err = compileGuest(goBin)
	})
	if guest.err != nil {
		t.Fatalf("failed to build interop module: %v", guest.err)
	}
	return guest.bytes
}

func compileGuest(goBin string) ([]byte, error) {
	root, err := repoRoot()
	if err != nil {
		return nil, err
	}

	workdir, err := os.MkdirTemp("", "interop-wasm")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(workdir)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	bin := filepath.Join(workdir, "interop.wasm")
	cmd := exec.CommandContext(ctx, goBin, "build", "-buildmode=c-shared", "-o", bin, GuestPackage)
	cmd.Env = append(os.Environ(), "GOOS=wasip1", "GOARCH=wasm", "CGO_ENABLED=0")
	cmd.Dir = root
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("go build %s: %w\n%s", GuestPackage, err, out)
	}

	return os.ReadFile(bin)
}

// repoRoot walks up from this file to the directory holding go.mod.
func repoRoot() (string, error) {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("cannot locate testutil source")
	}

	dir := filepath.Dir(file)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found above %s", filepath.Dir(file))
		}
		dir = parent
	}
}
