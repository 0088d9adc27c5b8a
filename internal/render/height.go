package render

import (
	"github.com/rickchristie/govner/testdeck/internal/state"
	"github.com/rickchristie/govner/testdeck/internal/tree"
)

// TestListHeight returns the number of lines TestList emits, without building them.
func TestListHeight(in Input) int {
	height := 0
	for _, f := range tree.GroupByFile(in.Tests) {
		height++ // file header
		height += treeHeight(in, f.Root)
		height++ // padding
	}
	return height
}

func treeHeight(in Input, node *tree.Node) int {
	height := 0
	for _, t := range node.Tests {
		if st, ok := in.state(t.ID); ok {
			height += testHeight(in.Settings, st)
		}
	}
	for _, child := range node.Children {
		height++ // group header
		height += treeHeight(in, child)
	}
	return height
}

func testHeight(settings Settings, st state.TestState) int {
	height := 1
	for _, item := range st.StepsAndChecks {
		height++
		step, ok := item.(*state.StepDescriptor)
		if !ok {
			continue
		}
		if settings.ShowThoughts {
			height += len(step.Thoughts)
		}
		if settings.ShowActions {
			height += len(step.Actions)
		}
	}
	if st.Failure != nil {
		height++
	}
	return height
}

// SummaryHeight returns the number of lines SummaryLines emits for in.
func SummaryHeight(in Input) int {
	height := 1 // status and tokens
	failures := 0
	if in.States != nil {
		in.States.Range(func(_ string, st state.TestState) bool {
			if st.Failure != nil {
				failures++
			}
			return true
		})
	}
	if failures > 0 {
		height += 1 + failures*3 // heading, then breadcrumb, message, blank per failure
	}
	return height
}
