package profile

import (
	"context"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// exportFile is the on-disk layout of an exported profile set.
type exportFile struct {
	Version  string    `yaml:"version"`
	Profiles []Profile `yaml:"profiles"`
}

// Export writes every profile to w as YAML.
func (s *Store) Export(ctx context.Context, w io.Writer) error {
	profiles, err := s.List(ctx)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(exportFile{Version: "1", Profiles: profiles}); err != nil {
		return fmt.Errorf("profile: encode yaml: %w", err)
	}
	return enc.Close()
}

// Import creates a profile for every entry in the YAML document read from r.
// Ids and timestamps in the file are ignored. Entries whose name collides
// with an existing profile are skipped. It returns the number created.
func (s *Store) Import(ctx context.Context, r io.Reader) (int, error) {
	var file exportFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil
		}
		return 0, fmt.Errorf("profile: decode yaml: %w", err)
	}

	created := 0
	for _, p := range file.Profiles {
		_, err := s.Create(ctx, Input{Name: p.Name, Description: p.Description, Data: p.Data})
		var verr *ValidationError
		if errors.As(err, &verr) {
			s.logger.Warnf("import: skipping %q: %v", p.Name, verr)
			continue
		}
		if err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
