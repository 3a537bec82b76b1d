package eepman

import "github.com/eepman/eepman/pkg/fs"

// Options configures Open. Open starts from the defaults named on each
// field below and then applies every Option in order.
type Options struct {
	// ConfigPath is the replica pool configuration file (pkg/eepconf),
	// defaulting to eepconf.DefaultPath.
	ConfigPath string

	// FS abstracts filesystem/device access so tests can substitute
	// in-memory devices (internal/testdevice); defaults to fs.NewReal().
	FS fs.FS
}

// Option mutates Options, following the functional-options shape the
// teacher's pkg/mddb/frontmatter uses for ParseOptions.
type Option func(*Options)

// WithConfigPath overrides the default replica pool configuration path.
func WithConfigPath(path string) Option {
	return func(o *Options) { o.ConfigPath = path }
}

// WithFS overrides the filesystem implementation used to open replica
// devices and the configuration file.
func WithFS(fsys fs.FS) Option {
	return func(o *Options) { o.FS = fsys }
}
