package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/joho/godotenv"
)

// LoadDotEnv copies the variables of a .env file into the process
// environment and returns the names it set. Variables already present in the
// environment win over the file. A missing file is not an error.
func LoadDotEnv(path string) ([]string, error) {
	vars, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var applied []string
	for _, key := range keys {
		if _, set := os.LookupEnv(key); set {
			continue
		}
		if err := os.Setenv(key, vars[key]); err != nil {
			return applied, fmt.Errorf("set %s from %s: %w", key, path, err)
		}
		applied = append(applied, key)
	}
	return applied, nil
}
