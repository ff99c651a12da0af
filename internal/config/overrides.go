package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aetherxhub/ferridyn-memory/internal/kv"
	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// SchemaOverride is one user-authored `define` record, persisted to the
// override file so it survives process restarts.
type SchemaOverride struct {
	Category      string              `yaml:"category"`
	Description   string              `yaml:"description,omitempty"`
	Attributes    []AttributeOverride `yaml:"attributes"`
	SortKeyFormat string              `yaml:"sort_key_format,omitempty"`
	Segments      []SegmentOverride   `yaml:"segments,omitempty"`
	Examples      []string            `yaml:"examples,omitempty"`
}

// AttributeOverride is one attribute of a SchemaOverride.
type AttributeOverride struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// SegmentOverride is one named "#"-delimited segment of a SortKeyFormat.
type SegmentOverride struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
}

// OverrideFile is the on-disk shape of the custom-schema override file:
// a flat list of user-defined categories, keyed by name.
type OverrideFile struct {
	Schemas []SchemaOverride `yaml:"schemas"`
}

// ToPartitionSchema converts one override into the kv package's schema
// shape. User-defined schemas validate strictly (unlike the predefined
// catalog's lenient schemas, see internal/catalog) since the caller has
// explicitly declared every attribute it expects.
func (s SchemaOverride) ToPartitionSchema() kv.PartitionSchemaInfo {
	attrs := make([]kv.AttributeDef, 0, len(s.Attributes)+3)
	attrs = append(attrs,
		kv.AttributeDef{Name: "content", Type: kv.TypeString},
		kv.AttributeDef{Name: "created_at", Type: kv.TypeString},
		kv.AttributeDef{Name: "expires_at", Type: kv.TypeString},
	)
	for _, a := range s.Attributes {
		attrs = append(attrs, kv.AttributeDef{Name: a.Name, Type: kv.AttributeType(strings.ToUpper(a.Type))})
	}

	segments := make([]kv.SegmentDef, len(s.Segments))
	for i, seg := range s.Segments {
		segments[i] = kv.SegmentDef{Name: seg.Name, Description: seg.Description}
	}

	return kv.PartitionSchemaInfo{
		Prefix:        s.Category,
		Description:   s.Description,
		Attributes:    attrs,
		Validate:      true,
		SortKeyFormat: s.SortKeyFormat,
		Segments:      segments,
		Examples:      s.Examples,
	}
}

// LoadOverrides reads the override file at path. A missing file is not an
// error — it reads as an empty OverrideFile, since most installs never
// define a custom category.
func LoadOverrides(path string) (*OverrideFile, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &OverrideFile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read override file: %w", err)
	}

	var f OverrideFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("config: parse override file: %w", err)
	}
	return &f, nil
}

// SaveOverrides writes f to path as YAML, creating parent directories as
// needed. Used by the `define` operation to persist a newly declared
// category.
func SaveOverrides(path string, f *OverrideFile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create override directory: %w", err)
	}
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("config: encode override file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write override file: %w", err)
	}
	return nil
}

// defaultOverridesDebounce matches the debounce window beads uses for its
// own fsnotify-driven display refresh.
const defaultOverridesDebounce = 200 * time.Millisecond

// OverrideWatcher watches a single override file for changes and invokes a
// callback with the freshly reloaded contents, debounced against the
// burst of events a single save can produce. The watch itself is on the
// file's parent directory — fsnotify doesn't reliably keep a watch alive
// across editors that replace a file via rename rather than write in
// place, and watching the directory sidesteps that.
type OverrideWatcher struct {
	watcher *fsnotify.Watcher
	path    string

	mu    sync.Mutex
	timer *time.Timer
}

// WatchOverrides starts watching path and calls onChange every time its
// contents change on disk, after defaultOverridesDebounce settles. onChange is
// called from a background goroutine; it should not block.
func WatchOverrides(path string, onChange func(*OverrideFile, error)) (*OverrideWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: create override watcher: %w", err)
	}
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("config: watch override directory: %w", err)
	}

	ow := &OverrideWatcher{watcher: watcher, path: path}
	go ow.loop(onChange)
	return ow, nil
}

func (ow *OverrideWatcher) loop(onChange func(*OverrideFile, error)) {
	target := filepath.Clean(ow.path)
	for {
		select {
		case event, ok := <-ow.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			ow.scheduleReload(onChange)
		case err, ok := <-ow.watcher.Errors:
			if !ok {
				return
			}
			onChange(nil, fmt.Errorf("config: override watch error: %w", err))
		}
	}
}

func (ow *OverrideWatcher) scheduleReload(onChange func(*OverrideFile, error)) {
	ow.mu.Lock()
	defer ow.mu.Unlock()
	if ow.timer != nil {
		ow.timer.Stop()
	}
	ow.timer = time.AfterFunc(defaultOverridesDebounce, func() {
		overrides, err := LoadOverrides(ow.path)
		onChange(overrides, err)
	})
}

// Close stops the watcher. Any pending debounced reload is abandoned.
func (ow *OverrideWatcher) Close() error {
	ow.mu.Lock()
	if ow.timer != nil {
		ow.timer.Stop()
	}
	ow.mu.Unlock()
	return ow.watcher.Close()
}
