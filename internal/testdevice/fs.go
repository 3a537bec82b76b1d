package testdevice

import (
	"fmt"
	"os"

	"github.com/eepman/eepman/pkg/fs"
)

// FS is a minimal fs.FS backed entirely by in-memory Devices and regular
// file content, keyed by path. It supports exactly the operations
// pkg/eepman's Open/lockmgr/eepconf paths need: OpenFile against a
// pre-registered Device, and ReadFile for a configuration file registered
// with PutFile.
type FS struct {
	devices map[string]*Device
	files   map[string][]byte
}

// NewFS returns an empty FS.
func NewFS() *FS {
	return &FS{devices: make(map[string]*Device), files: make(map[string][]byte)}
}

// AddDevice registers dev under path so a later OpenFile(path, ...) returns
// a handle onto it.
func (m *FS) AddDevice(path string, dev *Device) {
	m.devices[path] = dev
}

// PutFile registers the contents of a plain file (e.g. the replica pool
// configuration) under path.
func (m *FS) PutFile(path string, data []byte) {
	m.files[path] = data
}

func (m *FS) Open(path string) (fs.File, error) {
	return m.OpenFile(path, os.O_RDONLY, 0)
}

func (m *FS) OpenFile(path string, _ int, _ os.FileMode) (fs.File, error) {
	dev, ok := m.devices[path]
	if !ok {
		return nil, fmt.Errorf("testdevice: no device registered at %s", path)
	}
	if _, err := dev.Seek(0, 0); err != nil {
		return nil, err
	}
	return dev, nil
}

func (m *FS) Create(path string) (fs.File, error) {
	return m.OpenFile(path, os.O_RDWR|os.O_CREATE, 0)
}

func (m *FS) ReadFile(path string) ([]byte, error) {
	if data, ok := m.files[path]; ok {
		return data, nil
	}
	if dev, ok := m.devices[path]; ok {
		return dev.Bytes(), nil
	}
	return nil, fmt.Errorf("testdevice: no file registered at %s", path)
}

func (m *FS) Stat(path string) (os.FileInfo, error) {
	return nil, fmt.Errorf("testdevice: Stat not supported for %s", path)
}

func (m *FS) Exists(path string) (bool, error) {
	_, devOK := m.devices[path]
	_, fileOK := m.files[path]
	return devOK || fileOK, nil
}

func (m *FS) MkdirAll(string, os.FileMode) error { return nil }

func (m *FS) Remove(path string) error {
	delete(m.devices, path)
	delete(m.files, path)
	return nil
}

func (m *FS) Rename(oldpath, newpath string) error {
	if dev, ok := m.devices[oldpath]; ok {
		m.devices[newpath] = dev
		delete(m.devices, oldpath)
	}
	if data, ok := m.files[oldpath]; ok {
		m.files[newpath] = data
		delete(m.files, oldpath)
	}
	return nil
}

var _ fs.FS = (*FS)(nil)
