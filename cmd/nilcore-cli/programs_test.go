package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDemoProgramsCompile(t *testing.T) {
	for _, name := range []string{"multiply", "add-reveal"} {
		model, err := compileModel(name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, model.Protocols, name)
		assert.Contains(t, model.InputScheme, "a", name)
		assert.Contains(t, model.InputScheme, "b", name)
		assert.Contains(t, model.OutputScheme, "c", name)
	}
}

func TestDemoProgramRejectsUnknownName(t *testing.T) {
	_, err := demoProgram("does-not-exist")
	assert.Error(t, err)
}
