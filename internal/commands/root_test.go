package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/orchestra/internal/orchestra"
)

func TestNewRootCommand_Tree(t *testing.T) {
	root := NewRootCommand(&Flags{}, &orchestra.App{}, "test")

	names := make(map[string][]string)
	for _, c := range root.Commands {
		for _, sub := range c.Commands {
			names[c.Name] = append(names[c.Name], sub.Name)
		}
		if len(c.Commands) == 0 {
			names[c.Name] = nil
		}
	}

	assert.ElementsMatch(t, []string{"add", "list", "remove", "discover"}, names["scope"])
	assert.ElementsMatch(t, []string{"list", "show", "status", "check", "preview", "sync", "watch"}, names["backlog"])
	require.Contains(t, names, "doctor")
}

func TestNewRootCommand_BindsGlobalFlags(t *testing.T) {
	flags := &Flags{}
	root := NewRootCommand(flags, &orchestra.App{}, "test")

	var seen []string
	for _, f := range root.Flags {
		seen = append(seen, f.Names()[0])
	}
	assert.ElementsMatch(t, []string{"log-level", "log-file", "config", "data-dir"}, seen)
}
