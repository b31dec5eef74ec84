package deck

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoadPool loads symbols from a list of paths (files or directories).
// Each line may hold several whitespace-separated symbols; blank lines and
// lines starting with '#' are skipped. Order is preserved.
func LoadPool(paths []string) ([]string, error) {
	var pool []string

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to access path %s: %w", path, err)
		}

		if info.IsDir() {
			files, err := os.ReadDir(path)
			if err != nil {
				return nil, fmt.Errorf("failed to read dir %s: %w", path, err)
			}
			for _, entry := range files {
				if entry.IsDir() {
					continue
				}
				syms, err := loadFile(filepath.Join(path, entry.Name()))
				if err != nil {
					return nil, err
				}
				pool = append(pool, syms...)
			}
			continue
		}

		syms, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		pool = append(pool, syms...)
	}
	return pool, nil
}

func loadFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer file.Close()

	var syms []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		syms = append(syms, strings.Fields(line)...)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan file %s: %w", path, err)
	}
	return syms, nil
}
