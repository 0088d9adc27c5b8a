package tree

import (
	"github.com/rickchristie/govner/testdeck/internal/declare"
)

// Node is one group bucket in the display tree. The root node of a file has no name.
type Node struct {
	Name     string
	Tests    []*declare.RegisteredTest // Tests declared directly in this group, registration order
	Children []*Node                   // Child groups, first-encounter order

	index map[string]*Node // Children by name
}

func newNode(name string) *Node {
	return &Node{Name: name}
}

// child returns the child named name, creating it at the end of Children if absent.
func (n *Node) child(name string) *Node {
	if c, ok := n.index[name]; ok {
		return c
	}
	if n.index == nil {
		n.index = make(map[string]*Node)
	}
	c := newNode(name)
	n.Children = append(n.Children, c)
	n.index[name] = c
	return c
}

// Build arranges tests into a tree keyed by group name. Tests without groups stay on the
// root. Groups with the same name at the same depth share one node.
func Build(tests []*declare.RegisteredTest) *Node {
	root := newNode("")
	for _, t := range tests {
		current := root
		for _, g := range t.Groups {
			current = current.child(g.Name)
		}
		current.Tests = append(current.Tests, t)
	}
	return root
}

// File is the display tree of one declaring file.
type File struct {
	Path string
	Root *Node
}

// GroupByFile partitions tests by file in first-seen order and builds one tree per file.
func GroupByFile(tests []*declare.RegisteredTest) []File {
	var order []string
	byPath := make(map[string][]*declare.RegisteredTest)
	for _, t := range tests {
		if _, seen := byPath[t.Filepath]; !seen {
			order = append(order, t.Filepath)
		}
		byPath[t.Filepath] = append(byPath[t.Filepath], t)
	}

	files := make([]File, 0, len(order))
	for _, path := range order {
		files = append(files, File{Path: path, Root: Build(byPath[path])})
	}
	return files
}
