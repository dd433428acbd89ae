package fs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"BookmarkAdmin/internal/cli/repo"
)

// FSStore — файловое key-value хранилище: один файл на ключ в каталоге Dir.
type FSStore struct {
	Dir string
}

var _ repo.KVStore = FSStore{}

var keyRe = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// New returns a store rooted at dir, creating it with 0700 permissions.
func New(dir string) (FSStore, error) {
	if dir == "" {
		return FSStore{}, errors.New("empty session dir")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return FSStore{}, err
	}
	return FSStore{Dir: dir}, nil
}

func (s FSStore) path(key string) (string, error) {
	if key == "" {
		return "", repo.ErrEmptyKey
	}
	if !keyRe.MatchString(key) {
		return "", fmt.Errorf("invalid key: %q (allowed: letters, digits, . _ -)", key)
	}
	return filepath.Join(s.Dir, key), nil
}

// Get читает значение ключа; отсутствующий файл — пустая строка.
func (s FSStore) Get(_ context.Context, key string) (string, error) {
	p, err := s.path(key)
	if err != nil {
		return "", err
	}
	b, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	// обрезаем завершающие переводы строки/пробелы
	for len(b) > 0 {
		c := b[len(b)-1]
		if c == '\n' || c == '\r' || c == ' ' || c == '\t' {
			b = b[:len(b)-1]
			continue
		}
		break
	}
	return string(b), nil
}

// Set записывает значение в файл с правами 0600.
func (s FSStore) Set(_ context.Context, key, value string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o700); err != nil {
		return err
	}
	return os.WriteFile(p, []byte(value), 0o600)
}

// Remove удаляет файл ключа; отсутствие файла ошибкой не считается.
func (s FSStore) Remove(_ context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
