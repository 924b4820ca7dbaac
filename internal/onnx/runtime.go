package onnx

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	onnxrt "github.com/yalue/onnxruntime_go"
)

// EnsureRuntime locates the ONNX Runtime shared library and initializes the
// environment. Safe to call more than once.
func EnsureRuntime() error {
	if onnxrt.IsInitialized() {
		return nil
	}
	if err := setLibraryPath(); err != nil {
		return err
	}
	if err := onnxrt.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize ONNX Runtime: %w", err)
	}
	return nil
}

// setLibraryPath points the runtime at the shared library, preferring system
// locations and falling back to a project-relative onnxruntime/lib tree.
func setLibraryPath() error {
	for _, p := range systemLibraryPaths() {
		if _, err := os.Stat(p); err == nil {
			onnxrt.SetSharedLibraryPath(p)
			return nil
		}
	}

	root, err := findProjectRoot()
	if err != nil {
		return err
	}
	libName, err := libraryName()
	if err != nil {
		return err
	}
	libPath := filepath.Join(root, "onnxruntime", "lib", libName)
	if _, err := os.Stat(libPath); err != nil {
		return fmt.Errorf("ONNX Runtime library not found at %s", libPath)
	}
	onnxrt.SetSharedLibraryPath(libPath)
	return nil
}

func systemLibraryPaths() []string {
	return []string{
		"/usr/local/lib/libonnxruntime.so",
		"/usr/lib/libonnxruntime.so",
		"/opt/onnxruntime/cpu/lib/libonnxruntime.so",
	}
}

func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("could not find project root from %s", dir)
		}
		dir = parent
	}
}

// libraryName returns the shared library file name for the current OS.
func libraryName() (string, error) {
	switch runtime.GOOS {
	case "linux":
		return "libonnxruntime.so", nil
	case "darwin":
		return "libonnxruntime.dylib", nil
	case "windows":
		return "onnxruntime.dll", nil
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}
}
