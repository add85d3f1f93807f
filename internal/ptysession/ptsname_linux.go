//go:build linux

package ptysession

import (
	"os"
	"strconv"

	"golang.org/x/sys/unix"
)

// ptsname returns the slave device path of master and unlocks it.
func ptsname(master *os.File) (string, error) {
	fd, err := fdOf(master)
	if err != nil {
		return "", err
	}

	n, err := unix.IoctlGetUint32(fd, unix.TIOCGPTN)
	if err != nil {
		return "", err
	}

	if err := unix.IoctlSetPointerInt(fd, unix.TIOCSPTLCK, 0); err != nil {
		return "", err
	}

	return "/dev/pts/" + strconv.FormatUint(uint64(n), 10), nil
}
