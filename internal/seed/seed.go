// Package seed loads vulnerability records from a YAML file and imports them
// into an empty store.
package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/linnemanlabs/warden/internal/vuln"
)

// File is the on-disk seed format.
type File struct {
	Vulnerabilities []vuln.Input `yaml:"vulnerabilities"`
}

// Target is the subset of vuln.Service used to import seed entries.
type Target interface {
	List(ctx context.Context) ([]vuln.Record, error)
	Create(ctx context.Context, in vuln.Input) (*vuln.Record, error)
}

// Load reads and decodes a seed file. Unknown keys are rejected.
func Load(path string) ([]vuln.Input, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode seed file %s: %w", path, err)
	}
	return f.Vulnerabilities, nil
}

// Import creates every entry through t, stopping at the first failure, and
// returns the number of records created. A store that already holds records
// is left untouched and skipped is true, so restarting with the same seed file
// never duplicates entries.
func Import(ctx context.Context, t Target, entries []vuln.Input) (created int, skipped bool, err error) {
	if len(entries) == 0 {
		return 0, false, nil
	}
	existing, err := t.List(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("list existing records: %w", err)
	}
	if len(existing) > 0 {
		return 0, true, nil
	}

	for i, in := range entries {
		if _, err := t.Create(ctx, in); err != nil {
			return i, false, fmt.Errorf("seed entry %d (%q): %w", i, in.Title, err)
		}
	}
	return len(entries), false, nil
}
