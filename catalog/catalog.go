// Package catalog loads action descriptors from yaml content, one file per
// action, with optional tengo scripts for scripted logic.
package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/milk9111/actionengine/action"
	"gopkg.in/yaml.v3"
)

const (
	actionsDir = "actions"
	scriptsDir = "scripts"
)

var (
	ErrNoDescriptors = errors.New("catalog: no action descriptors found")
	ErrDuplicateType = errors.New("catalog: duplicate action type")
)

// Catalog is an immutable set of descriptors keyed by type. Reloading
// produces a new Catalog; lifecycles built from the old one keep their
// descriptors.
type Catalog struct {
	descriptors map[action.Type]*action.Descriptor
	files       map[action.Type]string
}

var _ action.Lookup = (*Catalog)(nil)

// Default loads the content embedded in the binary.
func Default() (*Catalog, error) {
	return Load(ContentFS)
}

// LoadDir loads content from a directory on disk laid out like the
// embedded content.
func LoadDir(dir string) (*Catalog, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	return Load(os.DirFS(dir))
}

// Load reads actions/*.yaml from fsys, attaches script sources and
// validates every descriptor.
func Load(fsys fs.FS) (*Catalog, error) {
	files, err := descriptorFiles(fsys)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrNoDescriptors
	}

	c := &Catalog{
		descriptors: make(map[action.Type]*action.Descriptor, len(files)),
		files:       make(map[action.Type]string, len(files)),
	}
	for _, name := range files {
		desc, err := loadDescriptor(fsys, name)
		if err != nil {
			return nil, err
		}
		if prev, ok := c.files[desc.Type]; ok {
			return nil, fmt.Errorf("%w: %s in %s and %s", ErrDuplicateType, desc.Type, prev, name)
		}
		c.descriptors[desc.Type] = desc
		c.files[desc.Type] = name
	}
	return c, nil
}

func descriptorFiles(fsys fs.FS) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := fs.Glob(fsys, path.Join(actionsDir, pattern))
		if err != nil {
			return nil, fmt.Errorf("catalog: glob %s: %w", pattern, err)
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

func loadDescriptor(fsys fs.FS, name string) (*action.Descriptor, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("catalog: load %s: %w", name, err)
	}

	var desc action.Descriptor
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&desc); err != nil {
		return nil, fmt.Errorf("catalog: unmarshal %s: %w", name, err)
	}
	if desc.BlockingMode == "" {
		desc.BlockingMode = action.BlockEntireDuration
	}
	if desc.Script != "" {
		src, err := fs.ReadFile(fsys, cleanScriptPath(desc.Script))
		if err != nil {
			return nil, fmt.Errorf("catalog: %s: load script: %w", name, err)
		}
		desc.ScriptSource = src
	}
	if err := desc.Validate(); err != nil {
		return nil, fmt.Errorf("catalog: %s: %w", name, err)
	}
	return &desc, nil
}

func cleanScriptPath(p string) string {
	s := path.Clean(strings.ReplaceAll(p, "\\", "/"))
	if after, ok := strings.CutPrefix(s, scriptsDir+"/"); ok {
		s = after
	}
	return path.Join(scriptsDir, s)
}

func (c *Catalog) Lookup(t action.Type) (*action.Descriptor, bool) {
	if c == nil {
		return nil, false
	}
	d, ok := c.descriptors[t]
	return d, ok
}

// Types returns every loaded type, sorted.
func (c *Catalog) Types() []action.Type {
	if c == nil {
		return nil
	}
	out := make([]action.Type, 0, len(c.descriptors))
	for t := range c.descriptors {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// File returns the content file a type was loaded from.
func (c *Catalog) File(t action.Type) string {
	if c == nil {
		return ""
	}
	return c.files[t]
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.descriptors)
}
