package models

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExplicitDirWins(t *testing.T) {
	t.Setenv(EnvModelsDir, "/env/models")
	assert.Equal(t, "/explicit", ModelsDir("/explicit"))
}

func TestEnvOverride(t *testing.T) {
	t.Setenv(EnvModelsDir, "/env/models")
	assert.Equal(t, "/env/models", ModelsDir(""))
}

func TestArtifactPaths(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, filepath.Join(dir, CharModel), CharModelPath(dir))
	assert.Equal(t, filepath.Join(dir, LineModel), LineModelPath(dir))
	assert.Equal(t, filepath.Join(dir, CharsetFile), CharsetPath(dir))
}
