// Package eepconf reads the replica-pool configuration file spec.md §4.8/§6
// specifies: one replica per line, whitespace-separated path, block_size,
// and total byte size, "#" comments, malformed lines skipped with a
// warning. It then builds the pkg/replica.Descriptor pool those entries
// describe.
//
// The line-scanning shape (a bufio.Scanner loop classifying blank/comment
// lines, collecting per-line warnings rather than failing the whole parse)
// is grounded on the teacher's pkg/mddb/frontmatter line-tokenizing parser;
// the grammar itself is far simpler here; three whitespace-separated fields
// rather than a YAML-like frontmatter block.
package eepconf

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/eepman/eepman/pkg/footer"
	"github.com/eepman/eepman/pkg/fs"
	"github.com/eepman/eepman/pkg/replica"
)

// DefaultPath is the configuration file path used when the CLI is not
// told otherwise, per spec.md §6.
const DefaultPath = "/etc/eeprom-manager.conf"

// Entry is one parsed, well-formed configuration line.
type Entry struct {
	Path       string
	BlockSize  int
	TotalBytes int
}

// Warning describes one configuration line that was skipped rather than
// turned into an Entry, or one cross-replica inconsistency noticed while
// building the pool.
type Warning struct {
	Line   int // 1-based source line number; 0 for pool-level warnings
	Text   string
	Reason string
}

func (w Warning) String() string {
	if w.Line == 0 {
		return w.Reason
	}
	return fmt.Sprintf("line %d: %q: %s", w.Line, w.Text, w.Reason)
}

// Parse reads a pool configuration from r, returning the well-formed
// entries in file order and a warning for every line that was skipped.
// Parse itself never fails on malformed content — only a scanner I/O error
// is returned as err, per spec.md §6 ("malformed lines are skipped with a
// warning").
func Parse(r *bufio.Scanner) ([]Entry, []Warning, error) {
	var entries []Entry
	var warnings []Warning

	lineNum := 0
	for r.Scan() {
		lineNum++
		line := r.Text()
		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			continue
		}

		fields := strings.Fields(trimmed)
		if len(fields) < 3 {
			warnings = append(warnings, Warning{Line: lineNum, Text: line, Reason: "fewer than three whitespace-separated fields"})
			continue
		}

		blockSize, err := strconv.Atoi(fields[1])
		if err != nil {
			warnings = append(warnings, Warning{Line: lineNum, Text: line, Reason: "block_size is not an integer"})
			continue
		}

		totalBytes, err := strconv.Atoi(fields[2])
		if err != nil {
			warnings = append(warnings, Warning{Line: lineNum, Text: line, Reason: "total_bytes is not an integer"})
			continue
		}

		if blockSize < footer.Len {
			warnings = append(warnings, Warning{
				Line: lineNum, Text: line,
				Reason: fmt.Sprintf("block_size %d is smaller than footer_len %d, cannot hold a footer", blockSize, footer.Len),
			})
			continue
		}

		entries = append(entries, Entry{Path: fields[0], BlockSize: blockSize, TotalBytes: totalBytes})
	}

	if err := r.Err(); err != nil {
		return nil, nil, fmt.Errorf("eepconf: scan: %w", err)
	}

	return entries, warnings, nil
}

// Load reads and parses the configuration file at path using fsys.
func Load(fsys fs.FS, path string) ([]Entry, []Warning, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("eepconf: read %s: %w", path, err)
	}

	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	return Parse(scanner)
}

// BuildPool turns well-formed entries into an ordered pool of replica
// descriptors, in configuration order (spec.md §3, observable via
// Store.Info). It warns — but does not fail — when replicas differ in
// (block_size, block_count), per spec.md §4.8.
func BuildPool(entries []Entry) ([]*replica.Descriptor, []Warning, error) {
	if len(entries) == 0 {
		return nil, nil, fmt.Errorf("eepconf: no usable replica entries")
	}

	pool := make([]*replica.Descriptor, 0, len(entries))
	var warnings []Warning

	firstBlockSize, firstBlockCount := 0, 0

	for i, e := range entries {
		blockCount := e.TotalBytes / e.BlockSize
		if blockCount < 2 {
			warnings = append(warnings, Warning{
				Reason: fmt.Sprintf("%s: total_bytes %d / block_size %d yields %d blocks, need at least 2 (document + footer); replica dropped", e.Path, e.TotalBytes, e.BlockSize, blockCount),
			})
			continue
		}

		if i == 0 || len(pool) == 0 {
			firstBlockSize, firstBlockCount = e.BlockSize, blockCount
		} else if e.BlockSize != firstBlockSize || blockCount != firstBlockCount {
			warnings = append(warnings, Warning{
				Reason: fmt.Sprintf("%s: geometry (block_size=%d, block_count=%d) differs from pool's first replica (block_size=%d, block_count=%d); pool capacity is bounded by the smallest replica", e.Path, e.BlockSize, blockCount, firstBlockSize, firstBlockCount),
			})
		}

		pool = append(pool, &replica.Descriptor{
			Path:       e.Path,
			BlockSize:  e.BlockSize,
			BlockCount: blockCount,
		})
	}

	if len(pool) == 0 {
		return nil, warnings, fmt.Errorf("eepconf: no replica entries yielded a usable geometry")
	}

	return pool, warnings, nil
}

// Capacity returns the pool-wide effective document capacity C: the
// minimum, across all replicas, of BlockSize*(BlockCount-1) (spec.md §3;
// see pkg/replica.Descriptor.Capacity's doc comment for why this
// implementation uses B·(N−1) rather than the B·N − footer_len formula
// spec.md's prose also states).
func Capacity(pool []*replica.Descriptor) int {
	if len(pool) == 0 {
		return 0
	}

	c := pool[0].Capacity()
	for _, d := range pool[1:] {
		if cap := d.Capacity(); cap < c {
			c = cap
		}
	}
	return c
}
