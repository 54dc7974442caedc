package tool

import (
	"errors"
	"os"
)

// IsFileExists reports whether filename exists. Errors other than "not
// found" are returned.
func IsFileExists(filename string) (bool, error) {
	_, err := os.Stat(filename)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}
