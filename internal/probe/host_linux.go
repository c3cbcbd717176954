//go:build linux

package probe

import "golang.org/x/sys/unix"

// HostFreeBytes returns currently free host RAM. Used for context sizing on
// CPU-only loads, where no device snapshot exists to budget against.
func HostFreeBytes() (int64, error) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0, err
	}
	return int64(info.Freeram) * int64(info.Unit), nil
}
