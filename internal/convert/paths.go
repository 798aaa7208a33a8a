package convert

import (
	"path/filepath"
	"strings"
)

// ChangeExtension replaces the extension of path with ext (with or without
// a leading dot). A path without an extension gets ext appended.
func ChangeExtension(path, ext string) string {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		return base
	}
	return base + "." + ext
}

// DefaultDestination is where the converted file lands when the caller does
// not name one: next to the input, with the target extension.
func DefaultDestination(input, ext string) string {
	return filepath.Join(filepath.Dir(input), ChangeExtension(filepath.Base(input), ext))
}

// OutputName is the file the container is expected to write into the
// staging directory. It always derives from the input, never the destination.
func OutputName(input, ext string) string {
	return ChangeExtension(filepath.Base(input), ext)
}

// NormalizeMountPath rewrites a host path into the form the runtime's -v
// syntax expects on goos. Windows paths switch to forward slashes.
func NormalizeMountPath(path, goos string) string {
	if goos == "windows" {
		return strings.ReplaceAll(path, `\`, "/")
	}
	return path
}

func missingOutputMessage(goos string) string {
	if goos == "windows" {
		return "expected output file was not produced; if the runtime is Docker Desktop, check that drive sharing is enabled for the drive holding the temp directory"
	}
	return "expected output file was not produced"
}
