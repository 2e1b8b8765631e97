// Package snapshot reads scheduling inputs from JSON and YAML files.
package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/steilerDev/cornerstone-sub004/internal/cpm"
	"github.com/steilerDev/cornerstone-sub004/internal/domain"
)

// Request is a scheduling call read from a file: a snapshot plus the
// optional mode and reference date.
type Request struct {
	domain.Snapshot `yaml:",inline"`
	Mode            cpm.Mode     `json:"mode,omitempty" yaml:"mode,omitempty"`
	Today           *domain.Date `json:"today,omitempty" yaml:"today,omitempty"`
}

// Load reads a request from path. The format follows the extension:
// .yaml and .yml are YAML, everything else is JSON.
func Load(path string) (*Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return ParseJSON(data)
	}
}

// ParseYAML decodes a YAML request.
func ParseYAML(data []byte) (*Request, error) {
	var req Request
	if err := yaml.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("parse yaml snapshot: %w", err)
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *Request) validate() error {
	if r.Mode != "" && !r.Mode.IsValid() {
		return fmt.Errorf("invalid mode: %s", r.Mode)
	}
	for i := range r.WorkItems {
		w := &r.WorkItems[i]
		if w.Status == "" {
			w.Status = domain.StatusNotStarted
		}
		if err := w.Validate(); err != nil {
			return fmt.Errorf("workItems[%d]: %w", i, err)
		}
	}
	for i := range r.Dependencies {
		d := &r.Dependencies[i]
		typ, err := domain.ParseDependencyType(string(d.DependencyType))
		if err != nil {
			return fmt.Errorf("dependencies[%d]: %w", i, err)
		}
		d.DependencyType = typ
	}
	for i := range r.Milestones {
		if err := r.Milestones[i].Validate(); err != nil {
			return fmt.Errorf("milestones[%d]: %w", i, err)
		}
	}
	return nil
}
