package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmdRegistersSubcommands(t *testing.T) {
	root := newRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"up", "down", "force", "version"}, names)
}

func TestForceRequiresVersionArgument(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"force"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestForceRejectsNonNumericVersion(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"force", "abc"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid version")
}

func TestDownStepsDefaultsToOne(t *testing.T) {
	cmd := newDownCmd()
	f := cmd.Flags().Lookup("steps")
	require.NotNil(t, f)
	assert.Equal(t, "1", f.DefValue)
}
