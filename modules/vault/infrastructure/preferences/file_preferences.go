package preferences

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/iota-uz/vault-import/modules/vault/domain/manager"
)

type document struct {
	ManagerRule string    `yaml:"manager_rule"`
	DetectedAt  time.Time `yaml:"detected_at,omitempty"`
}

// FilePreferences keeps preferences in a YAML file.
type FilePreferences struct {
	path string
	mu   sync.Mutex
}

var _ manager.Preferences = (*FilePreferences)(nil)

func NewFilePreferences(path string) *FilePreferences {
	return &FilePreferences{path: path}
}

func (p *FilePreferences) ManagerRule(ctx context.Context) (manager.Rule, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	doc, err := p.read()
	if err != nil {
		return manager.Undetermined, err
	}
	return manager.ParseRule(doc.ManagerRule)
}

func (p *FilePreferences) SetManagerRule(ctx context.Context, rule manager.Rule) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	doc, err := p.read()
	if err != nil {
		return err
	}
	doc.ManagerRule = string(rule)
	doc.DetectedAt = time.Now().UTC()
	b, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return err
	}
	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, p.path)
}

func (p *FilePreferences) read() (document, error) {
	var doc document
	b, err := os.ReadFile(p.path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return doc, err
	}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return doc, fmt.Errorf("parse preferences %s: %w", p.path, err)
	}
	return doc, nil
}
