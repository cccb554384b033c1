package content

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// yamlNode is one entry of a YAML tree fixture:
//
//	path: /content/example
//	kind: folder
//	children:
//	  - name: index
//	    kind: page
//	    lastModified: 2024-01-02T03:04:05Z
//	    properties:
//	      title: Home
//	  - name: stella.png
//	    kind: asset
//	    file: assets/stella.png
type yamlNode struct {
	Path         string         `yaml:"path"`
	Name         string         `yaml:"name"`
	Kind         string         `yaml:"kind"`
	LastModified time.Time      `yaml:"lastModified"`
	Properties   map[string]any `yaml:"properties"`
	Text         string         `yaml:"text"`
	File         string         `yaml:"file"`
	Children     []yamlNode     `yaml:"children"`
}

// LoadYAML reads a tree fixture from disk.  Asset files are resolved relative to the fixture.
func LoadYAML(filename string) (*Repository, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("content: couldn't open %s: %w", filename, err)
	}
	defer f.Close()

	repo, err := DecodeYAML(f, filepath.Dir(filename))
	if err != nil {
		return nil, fmt.Errorf("content: couldn't load %s: %w", filename, err)
	}
	return repo, nil
}

func DecodeYAML(r io.Reader, baseDir string) (*Repository, error) {
	d := yaml.NewDecoder(r)
	d.KnownFields(true)

	repo := NewRepository()
	// a fixture may hold several documents, one per tree
	for {
		var root yamlNode
		err := d.Decode(&root)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("content: couldn't parse YAML: %w", err)
		}
		if root.Path == "" {
			return nil, fmt.Errorf("content: top-level node needs a path")
		}
		if err := addYAMLNode(repo, root, root.Path, baseDir); err != nil {
			return nil, err
		}
	}
	return repo, nil
}

func addYAMLNode(repo *Repository, y yamlNode, nodePath, baseDir string) error {
	kind, err := ParseKind(y.Kind)
	if err != nil {
		return err
	}

	n := &Node{
		Path:         nodePath,
		Kind:         kind,
		Properties:   y.Properties,
		LastModified: y.LastModified,
	}

	if kind == Asset {
		switch {
		case y.File != "":
			n.Data, err = os.ReadFile(filepath.Join(baseDir, y.File))
			if err != nil {
				return fmt.Errorf("content: couldn't read asset for %s: %w", nodePath, err)
			}
		default:
			n.Data = []byte(y.Text)
		}
		if len(y.Children) > 0 {
			return fmt.Errorf("content: asset %s cannot have children", nodePath)
		}
	}

	if err := repo.Add(n); err != nil {
		return err
	}

	for _, child := range y.Children {
		name := child.Name
		if name == "" {
			name = path.Base(child.Path)
		}
		if name == "" || name == "." || name == "/" {
			return fmt.Errorf("content: child of %s has no name", nodePath)
		}
		if err := addYAMLNode(repo, child, path.Join(nodePath, name), baseDir); err != nil {
			return err
		}
	}
	return nil
}
