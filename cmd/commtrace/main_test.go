package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	assert.Equal(t, "commtrace", rootCmd.Use)

	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["analyze"])
	assert.True(t, names["serve"])
}

func TestAnalyzeCommand_Flags(t *testing.T) {
	for _, flag := range []string{"timestamp-col", "counterparty-col", "direction-col"} {
		require.NotNil(t, analyzeCmd.Flags().Lookup(flag), flag)
	}
}
