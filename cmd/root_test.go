package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Metadata(t *testing.T) {
	assert.Equal(t, "gnis-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestRootCmd_RegistersSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{"fetch", "export", "elevation", "layers", "locations", "cache", "load"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestRootCmd_CacheDirFlag(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("cache-dir")
	require.NotNil(t, flag)
	assert.Empty(t, flag.DefValue)
}
