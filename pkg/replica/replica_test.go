package replica

import (
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/eepman/eepman/pkg/footer"
)

// fakeDevice is a fixed-size in-memory fs.File standing in for one replica
// device, sized BlockSize*BlockCount bytes.
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

func newAttachedDescriptor(blockSize, blockCount int) (*Descriptor, *fakeDevice) {
	dev := newFakeDevice(blockSize, blockCount)
	d := &Descriptor{Path: "/dev/eeprom-test", BlockSize: blockSize, BlockCount: blockCount}
	d.SetHandle(dev)
	return d, dev
}

func Test_Capacity_Is_BlockSize_Times_BlockCount_Minus_One(t *testing.T) {
	d := &Descriptor{BlockSize: 256, BlockCount: 16}

	if got, want := d.Capacity(), 256*15; got != want {
		t.Fatalf("capacity=%d, want=%d", got, want)
	}
}

func Test_WriteDocument_Then_ReadDocument_Roundtrips(t *testing.T) {
	d, _ := newAttachedDescriptor(256, 4)
	d.SetBuf([]byte(`{"serial":"A1B2"}`))

	if err := WriteDocument(d); err != nil {
		t.Fatalf("write: %v", err)
	}

	if got, want := d.Counter, uint64(1); got != want {
		t.Fatalf("counter=%d, want=%d", got, want)
	}

	got, err := ReadDocument(d)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if string(got) != `{"serial":"A1B2"}` {
		t.Fatalf("doc=%q, want=%q", got, `{"serial":"A1B2"}`)
	}
}

func Test_WriteDocument_Is_NoOp_When_Digest_Unchanged(t *testing.T) {
	d, _ := newAttachedDescriptor(256, 4)
	d.SetBuf([]byte(`{"a":"1"}`))

	if err := WriteDocument(d); err != nil {
		t.Fatalf("first write: %v", err)
	}

	d.SetBuf([]byte(`{"a":"1"}`))
	if err := WriteDocument(d); err != nil {
		t.Fatalf("second write: %v", err)
	}

	if got, want := d.Counter, uint64(1); got != want {
		t.Fatalf("counter=%d, want=%d (no-op must not advance counter, P4)", got, want)
	}
}

func Test_WriteDocument_Advances_Counter_On_Change(t *testing.T) {
	d, _ := newAttachedDescriptor(256, 4)

	d.SetBuf([]byte(`{"a":"1"}`))
	if err := WriteDocument(d); err != nil {
		t.Fatalf("write 1: %v", err)
	}

	d.SetBuf([]byte(`{"a":"2"}`))
	if err := WriteDocument(d); err != nil {
		t.Fatalf("write 2: %v", err)
	}

	if got, want := d.Counter, uint64(2); got != want {
		t.Fatalf("counter=%d, want=%d (P3, strictly monotonic)", got, want)
	}
}

func Test_ReadDocument_Of_Fully_Packed_Replica_Has_No_Terminator(t *testing.T) {
	d, _ := newAttachedDescriptor(80, 3)             // capacity = 80*(3-1) = 160 bytes; 80 >= footer.Len
	doc := []byte(strings.Repeat("ABCDEFGH", 20)) // exactly fills capacity, no room for NUL
	d.SetBuf(doc)

	if err := WriteDocument(d); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := ReadDocument(d)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if string(got) != string(doc) {
		t.Fatalf("doc=%q, want=%q", got, doc)
	}
}

func Test_WriteDocument_Rejects_Document_Larger_Than_Capacity(t *testing.T) {
	d, _ := newAttachedDescriptor(4, 3) // capacity = 8
	d.SetBuf([]byte(strings.Repeat("x", 9)))

	err := WriteDocument(d)
	if !errors.Is(err, ErrDocumentTooLarge) {
		t.Fatalf("err=%v, want ErrDocumentTooLarge", err)
	}
}

func Test_WriteDocument_Requires_Buffer(t *testing.T) {
	d, _ := newAttachedDescriptor(256, 4)

	err := WriteDocument(d)
	if !errors.Is(err, ErrNoBuffer) {
		t.Fatalf("err=%v, want ErrNoBuffer", err)
	}
}

func Test_WriteDocument_Requires_Handle(t *testing.T) {
	d := &Descriptor{BlockSize: 256, BlockCount: 4}
	d.SetBuf([]byte("x"))

	err := WriteDocument(d)
	if !errors.Is(err, ErrNoHandle) {
		t.Fatalf("err=%v, want ErrNoHandle", err)
	}
}

func Test_WriteDocument_Refuses_Counter_Past_Max(t *testing.T) {
	d, _ := newAttachedDescriptor(256, 4)
	d.Counter = footer.MaxCounter
	d.Digest = strings.Repeat("0", 64)
	d.SetBuf([]byte("different"))

	err := WriteDocument(d)
	if !errors.Is(err, ErrCounterExhausted) {
		t.Fatalf("err=%v, want ErrCounterExhausted", err)
	}
}
