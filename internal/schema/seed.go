package schema

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// SeedFile: содержимое одного seed-файла, список таблиц.
type SeedFile struct {
	Tables []CreateTableRequest `yaml:"tables"`
}

func isSeedFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

// LoadSeedFile читает один YAML-файл с определениями таблиц.
func LoadSeedFile(path string) ([]CreateTableRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sf SeedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return sf.Tables, nil
}

// LoadSeeds обходит каталог и собирает все таблицы из *.yaml/*.yml.
// Порядок по пути файла, внутри файла как объявлено.
// Имя таблицы, объявленное дважды,: ошибка.
func LoadSeeds(root string) ([]CreateTableRequest, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !isSeedFile(d.Name()) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	var out []CreateTableRequest
	seen := make(map[string]string)
	for _, path := range paths {
		tables, err := LoadSeedFile(path)
		if err != nil {
			return nil, err
		}
		for _, t := range tables {
			name, err := NormalizeTableName(t.Name)
			if err != nil {
				return nil, fmt.Errorf("%s: table %q: %w", path, t.Name, err)
			}
			if prev, exists := seen[name]; exists {
				return nil, fmt.Errorf("duplicate table %q in %s (first declared in %s)", name, path, prev)
			}
			seen[name] = path
			out = append(out, t)
		}
	}
	return out, nil
}
