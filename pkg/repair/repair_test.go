package repair

import (
	"io"
	"os"
	"testing"

	"github.com/eepman/eepman/pkg/footer"
	"github.com/eepman/eepman/pkg/quorum"
	"github.com/eepman/eepman/pkg/replica"
)

type fakeDevice struct {
	data []byte
	pos  int64
}

func newFakeDevice(blockSize, blockCount int) *fakeDevice {
	return &fakeDevice{data: make([]byte, blockSize*blockCount)}
}

func (d *fakeDevice) Read(p []byte) (int, error) {
	if d.pos >= int64(len(d.data)) {
		return 0, io.EOF
	}
	n := copy(p, d.data[d.pos:])
	d.pos += int64(n)
	return n, nil
}

func (d *fakeDevice) Write(p []byte) (int, error) {
	n := copy(d.data[d.pos:], p)
	d.pos += int64(n)
	return n, nil
}

func (d *fakeDevice) Close() error              { return nil }
func (d *fakeDevice) Fd() uintptr               { return 0 }
func (d *fakeDevice) Stat() (os.FileInfo, error) { return nil, nil }
func (d *fakeDevice) Sync() error               { return nil }
func (d *fakeDevice) Chmod(os.FileMode) error   { return nil }

func (d *fakeDevice) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = d.pos
	case io.SeekEnd:
		base = int64(len(d.data))
	}
	d.pos = base + offset
	return d.pos, nil
}

func newDescriptor(path string, blockSize, blockCount int) (*replica.Descriptor, *fakeDevice) {
	dev := newFakeDevice(blockSize, blockCount)
	d := &replica.Descriptor{Path: path, BlockSize: blockSize, BlockCount: blockCount}
	d.SetHandle(dev)
	return d, dev
}

func Test_Clone_Brings_Destination_To_Match_Authoritative_Counter(t *testing.T) {
	auth, _ := newDescriptor("/dev/eeprom0", 256, 4)
	auth.SetBuf([]byte(`{"serial":"A1B1"}`))
	if err := replica.WriteDocument(auth); err != nil {
		t.Fatalf("seed authoritative: %v", err)
	}

	auth.SetBuf([]byte(`{"serial":"A1B2"}`)) // a genuinely different document
	if err := replica.WriteDocument(auth); err != nil {
		t.Fatalf("advance authoritative: %v", err)
	}

	if got, want := auth.Counter, uint64(2); got != want {
		t.Fatalf("auth.Counter=%d, want=%d", got, want)
	}

	dst, _ := newDescriptor("/dev/eeprom1", 256, 4) // blank, uninitialised

	if err := Clone(dst, auth); err != nil {
		t.Fatalf("clone: %v", err)
	}

	if got, want := dst.Counter, auth.Counter; got != want {
		t.Fatalf("dst.Counter=%d, want=%d (match authoritative)", got, want)
	}

	if got, want := dst.Digest, auth.Digest; got != want {
		t.Fatalf("dst.Digest=%q, want=%q", got, want)
	}

	if dst.Buf() != nil {
		t.Fatalf("dst retained a buffer after clone; it never owns the authoritative buffer")
	}
}

func Test_Run_Repairs_Only_Divergent_Replicas(t *testing.T) {
	doc := []byte(`{"k":"v"}`)

	auth, _ := newDescriptor("/dev/eeprom0", 256, 4)
	auth.SetBuf(doc)
	if err := replica.WriteDocument(auth); err != nil {
		t.Fatalf("seed auth: %v", err)
	}

	stale, staleDev := newDescriptor("/dev/eeprom1", 256, 4) // blank

	alreadyCurrent, currentDev := newDescriptor("/dev/eeprom2", 256, 4)
	if _, err := currentDev.Seek(0, io.SeekStart); err != nil {
		t.Fatalf("seek: %v", err)
	}
	copy(currentDev.data, doc)
	if err := footer.Write(currentDev, auth.Digest, auth.Counter, 256); err != nil {
		t.Fatalf("seed current: %v", err)
	}
	alreadyCurrent.Digest = auth.Digest
	alreadyCurrent.Counter = auth.Counter

	pool := []*replica.Descriptor{auth, stale, alreadyCurrent}

	if err := Run(pool, auth); err != nil {
		t.Fatalf("run: %v", err)
	}

	ft, err := footer.Read(staleDev, 256)
	if err != nil {
		t.Fatalf("read stale footer: %v", err)
	}

	if got, want := ft.Counter, auth.Counter; got != want {
		t.Fatalf("stale.Counter=%d, want=%d", got, want)
	}

	if got, want := ft.DigestHex, auth.Digest; got != want {
		t.Fatalf("stale.Digest=%q, want=%q", got, want)
	}

	// Verify the whole pool now passes quorum selection unambiguously.
	if _, err := quorum.Select(pool); err != nil {
		t.Fatalf("post-repair quorum select: %v", err)
	}
}
