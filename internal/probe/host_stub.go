//go:build !linux

package probe

import "errors"

// HostFreeBytes is unavailable off Linux; callers fall back to the flat
// context default.
func HostFreeBytes() (int64, error) {
	return 0, errors.New("host memory introspection not supported on this platform")
}
