//go:build !linux

package ptysession

import (
	"errors"
	"os"
)

func ptsname(*os.File) (string, error) {
	return "", errors.New("ptsname: unsupported platform")
}
