package seed

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/automation-dashboard/internal/core/domain"
)

type file struct {
	Processes []domain.NewProcessInput `yaml:"processes"`
}

func LoadFile(path string) ([]domain.NewProcessInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	inputs, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("seed file %s: %w", path, err)
	}
	return inputs, nil
}

// Decode reads a YAML document with a top-level "processes" list. Unknown keys
// are rejected so that typos do not silently drop fields.
func Decode(r io.Reader) ([]domain.NewProcessInput, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var out file
	if err := dec.Decode(&out); err != nil {
		if errors.Is(err, io.EOF) {
			return []domain.NewProcessInput{}, nil
		}
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if out.Processes == nil {
		out.Processes = []domain.NewProcessInput{}
	}
	return out.Processes, nil
}
