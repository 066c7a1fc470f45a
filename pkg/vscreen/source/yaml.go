package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/komsit37/vscreen/pkg/vscreen/types"
)

// YAMLSource loads universes from a YAML file or a directory of them.
//
// A file has an optional column list and a "universe" tree. Entries are
// either bare tickers, ticker mappings with extra fields, or named groups:
//
//	columns: [ticker, company, pe]
//	universe:
//	  - name: tech
//	    universe: [AAPL, MSFT]
//	  - name: banks
//	    universe:
//	      - sym: JPM
//	        note: core holding
//
// Every group with direct tickers becomes one universe named by its group
// path joined with "/".
type YAMLSource struct{}

// Load expects spec to be a string filepath.
func (YAMLSource) Load(ctx context.Context, spec any) ([]types.Universe, error) {
	path, ok := spec.(string)
	if !ok {
		return nil, fmt.Errorf("yaml source expects filepath string spec")
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		return loadFile(path, base, false)
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		switch strings.ToLower(filepath.Ext(d.Name())) {
		case ".yaml", ".yml":
			if !d.IsDir() {
				files = append(files, p)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	var all []types.Universe
	for _, full := range files {
		rel, err := filepath.Rel(path, full)
		if err != nil {
			rel = filepath.Base(full)
		}
		prefix := filepath.ToSlash(strings.TrimSuffix(rel, filepath.Ext(rel)))
		lists, err := loadFile(full, prefix, true)
		if err != nil {
			return nil, err
		}
		all = append(all, lists...)
	}
	return all, nil
}

// loadFile parses one file. Unnamed universes take prefix as their name;
// when prefixAll is set, named ones are nested under it too.
func loadFile(path, prefix string, prefixAll bool) ([]types.Universe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lists, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for i := range lists {
		switch {
		case lists[i].Name == "":
			lists[i].Name = prefix
		case prefixAll && prefix != "":
			lists[i].Name = prefix + "/" + lists[i].Name
		}
	}
	return lists, nil
}

type universeFile struct {
	Columns  []string `yaml:"columns"`
	Universe []node   `yaml:"universe"`
}

// node is either a ticker (Sym set) or a group (group true).
type node struct {
	Sym      string
	Name     string
	Fields   map[string]any
	Children []node
	group    bool
}

func (n *node) UnmarshalYAML(v *yaml.Node) error {
	switch v.Kind {
	case yaml.ScalarNode:
		n.Sym = strings.TrimSpace(v.Value)
		return nil
	case yaml.MappingNode:
	default:
		return fmt.Errorf("line %d: expected a ticker or a mapping", v.Line)
	}
	n.Fields = map[string]any{}
	for i := 0; i+1 < len(v.Content); i += 2 {
		key, val := v.Content[i].Value, v.Content[i+1]
		switch key {
		case "universe":
			n.group = true
			if val.Kind == yaml.MappingNode {
				var child node
				if err := val.Decode(&child); err != nil {
					return err
				}
				n.Children = []node{child}
				continue
			}
			if err := val.Decode(&n.Children); err != nil {
				return err
			}
		case "sym", "ticker":
			n.Sym = strings.TrimSpace(val.Value)
		case "name":
			n.Name = val.Value
		default:
			var x any
			if err := val.Decode(&x); err != nil {
				return err
			}
			n.Fields[key] = x
		}
	}
	if !n.group && n.Sym == "" {
		return fmt.Errorf("line %d: entry has neither sym nor universe", v.Line)
	}
	return nil
}

// Parse decodes one universe file.
func Parse(data []byte) ([]types.Universe, error) {
	var f universeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if f.Universe == nil {
		return nil, fmt.Errorf("invalid yaml: missing 'universe'")
	}
	var lists []types.Universe
	var walk func(nodes []node, path []string)
	walk = func(nodes []node, path []string) {
		var items []types.Item
		for _, n := range nodes {
			if !n.group {
				items = append(items, types.Item{Sym: n.Sym, Name: n.Name, Fields: n.Fields})
			}
		}
		if len(items) > 0 {
			lists = append(lists, types.Universe{
				Name:    strings.Join(path, "/"),
				Columns: append([]string(nil), f.Columns...),
				Items:   items,
			})
		}
		for _, n := range nodes {
			if !n.group {
				continue
			}
			next := path
			if n.Name != "" {
				next = append(append([]string(nil), path...), n.Name)
			}
			walk(n.Children, next)
		}
	}
	walk(f.Universe, nil)
	return lists, nil
}
