package lockmgr

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/eepman/eepman/pkg/fs"
	"github.com/eepman/eepman/pkg/replica"
)

func makeDeviceFile(t *testing.T, dir, name string, size int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, make([]byte, size), 0644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	return path
}

func Test_AcquireAll_Opens_And_Locks_Every_Replica(t *testing.T) {
	dir := t.TempDir()
	fsys := fs.NewReal()

	pool := []*replica.Descriptor{
		{Path: makeDeviceFile(t, dir, "dev0", 1024), BlockSize: 256, BlockCount: 4},
		{Path: makeDeviceFile(t, dir, "dev1", 1024), BlockSize: 256, BlockCount: 4},
	}

	if err := AcquireAll(fsys, pool); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	for i, d := range pool {
		if d.Handle() == nil {
			t.Fatalf("replica %d has no handle after AcquireAll", i)
		}
	}

	if err := ReleaseAll(pool); err != nil {
		t.Fatalf("release: %v", err)
	}

	for i, d := range pool {
		if d.Handle() != nil {
			t.Fatalf("replica %d still has a handle after ReleaseAll", i)
		}
	}
}

func Test_AcquireAll_Rolls_Back_On_Failure(t *testing.T) {
	dir := t.TempDir()
	fsys := fs.NewReal()

	pool := []*replica.Descriptor{
		{Path: makeDeviceFile(t, dir, "dev0", 1024), BlockSize: 256, BlockCount: 4},
		{Path: filepath.Join(dir, "does-not-exist"), BlockSize: 256, BlockCount: 4},
	}

	err := AcquireAll(fsys, pool)
	if err == nil {
		t.Fatalf("expected error acquiring a nonexistent device")
	}

	if pool[0].Handle() != nil {
		t.Fatalf("replica 0 handle should have been released after replica 1 failed to open")
	}
}

func Test_ReleaseAll_Skips_Replicas_Without_A_Handle(t *testing.T) {
	pool := []*replica.Descriptor{
		{Path: "/dev/never-opened", BlockSize: 256, BlockCount: 4},
	}

	if err := ReleaseAll(pool); err != nil {
		t.Fatalf("err=%v, want nil", err)
	}
}
