// Package models resolves the locations of the pre-trained recognition
// artifacts: the glyph classifier, the line sequence classifier and the
// shared alphabet file.
package models

import (
	"errors"
	"os"
	"path/filepath"
)

// Artifact file names.
const (
	CharModel   = "cdu_char_cls.onnx"
	LineModel   = "cdu_line_ctc.onnx"
	CharsetFile = "cdu_alphabet.txt"
)

// DefaultModelsDir is the models directory relative to the project root.
const DefaultModelsDir = "models"

// EnvModelsDir overrides the models directory.
const EnvModelsDir = "CDUOCR_MODELS_DIR"

// ModelsDir resolves the effective models directory: an explicit dir wins,
// then the environment override, then the default relative to the project
// root (or the working directory when no go.mod is found).
func ModelsDir(dir string) string {
	if dir != "" {
		return dir
	}
	if env := os.Getenv(EnvModelsDir); env != "" {
		return env
	}
	if root, err := findProjectRoot(); err == nil {
		return filepath.Join(root, DefaultModelsDir)
	}
	return DefaultModelsDir
}

// CharModelPath returns the glyph classifier path under dir.
func CharModelPath(dir string) string {
	return filepath.Join(ModelsDir(dir), CharModel)
}

// LineModelPath returns the sequence classifier path under dir.
func LineModelPath(dir string) string {
	return filepath.Join(ModelsDir(dir), LineModel)
}

// CharsetPath returns the alphabet file path under dir.
func CharsetPath(dir string) string {
	return filepath.Join(ModelsDir(dir), CharsetFile)
}

// findProjectRoot walks up from the working directory looking for go.mod.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", errors.New("could not find project root (go.mod not found)")
}
