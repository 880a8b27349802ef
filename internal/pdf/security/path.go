// Package security confines every document the server reads or writes to
// the configured directory.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	pdferrors "github.com/inkswift/mcp-pdf-signer/internal/pdf/errors"
)

// PathValidator provides security validation for file paths
type PathValidator struct {
	configuredDirectory string
}

// NewPathValidator creates a new path validator for the given directory.
// The directory does not have to exist yet.
func NewPathValidator(configuredDirectory string) (*PathValidator, error) {
	if configuredDirectory == "" {
		return nil, fmt.Errorf("configured directory cannot be empty")
	}

	abs, err := filepath.Abs(configuredDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve configured directory: %w", err)
	}

	return &PathValidator{
		configuredDirectory: abs,
	}, nil
}

// GetConfiguredDirectory returns the configured directory path
func (v *PathValidator) GetConfiguredDirectory() string {
	return v.configuredDirectory
}

// ResolvePath makes path absolute, relative paths being taken from the
// configured directory, and checks that it stays inside that directory.
func (v *PathValidator) ResolvePath(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if strings.TrimSpace(path) == "" {
		return "", pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidArgument, "path cannot be empty")
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(v.configuredDirectory, path)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	if err := v.ValidatePath(absPath); err != nil {
		return "", err
	}
	return absPath, nil
}

// ValidatePath checks if a path is within the configured directory
func (v *PathValidator) ValidatePath(path string) error {
	if path == "" {
		return pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidArgument, "path cannot be empty")
	}

	isWithin, err := v.IsPathWithinDirectory(path)
	if err != nil {
		return fmt.Errorf("path validation failed: %w", err)
	}
	if !isWithin {
		return pdferrors.Newf(pdferrors.ErrorTypePathViolation,
			"path is outside configured directory: %s", path).WithFile(path)
	}
	return nil
}

// ValidateOutputPath checks a path the server is about to write. Besides
// staying inside the configured directory it must name a .pdf file that
// is not the input document and whose parent directory exists.
func (v *PathValidator) ValidateOutputPath(output, input string) error {
	if err := v.ValidatePath(output); err != nil {
		return err
	}

	if !strings.EqualFold(filepath.Ext(output), ".pdf") {
		return pdferrors.Newf(pdferrors.ErrorTypeInvalidArgument, "output must be a .pdf file: %s", output).WithFile(output)
	}
	if input != "" && filepath.Clean(output) == filepath.Clean(input) {
		return pdferrors.Newf(pdferrors.ErrorTypeInvalidArgument, "output must not overwrite the input document").WithFile(output)
	}

	info, err := os.Stat(filepath.Dir(output))
	if err != nil {
		return fmt.Errorf("cannot access output directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("output parent is not a directory: %s", filepath.Dir(output))
	}
	return nil
}

// IsPathWithinDirectory checks if a path is within the configured
// directory. Symlinks are resolved on the longest existing prefix of the
// path, so a file that does not exist yet is judged by its parent.
func (v *PathValidator) IsPathWithinDirectory(path string) (bool, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("failed to resolve path: %w", err)
	}

	root := resolveExisting(v.configuredDirectory)
	real := resolveExisting(absPath)

	rel, err := filepath.Rel(root, real)
	if err != nil {
		return false, nil //nolint:nilerr // paths on different volumes are simply outside
	}
	if rel == "." {
		return true, nil
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)), nil
}

// resolveExisting evaluates symlinks on the longest existing ancestor of
// path and re-appends the rest.
func resolveExisting(path string) string {
	path = filepath.Clean(path)
	var rest []string
	for cur := path; ; {
		if resolved, err := filepath.EvalSymlinks(cur); err == nil {
			parts := append([]string{resolved}, rest...)
			return filepath.Join(parts...)
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return path
		}
		rest = append([]string{filepath.Base(cur)}, rest...)
		cur = parent
	}
}

// ValidateDirectory checks if a directory path is within the configured directory
func (v *PathValidator) ValidateDirectory(dirPath string) error {
	if err := v.ValidatePath(dirPath); err != nil {
		return err
	}

	info, err := os.Stat(dirPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("cannot access directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", dirPath)
	}
	return nil
}
