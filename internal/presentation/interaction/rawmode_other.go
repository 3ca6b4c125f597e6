//go:build !linux && !darwin

package interaction

func enableRawMode(fd int) (func() error, error) {
	return nil, ErrRawModeUnsupported
}
