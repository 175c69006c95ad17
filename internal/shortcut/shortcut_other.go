//go:build !windows

package shortcut

// Create is not available outside Windows
func Create(name, target, workDir, description string) error {
	return ErrUnsupported
}
