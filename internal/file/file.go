package file

import "os"

// Exists returns a bool indicating whether the provided file exists.
func Exists(file string) bool {
	if _, err := os.Stat(file); !os.IsNotExist(err) {
		return true
	}
	return false
}
