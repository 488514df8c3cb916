package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"easybingo/card"
)

// FileName is the collection file inside the data directory.
const FileName = "bingo-cards.json"

// File stores cards as a JSON array in one file. A missing file is an empty
// collection.
type File struct {
	path string
}

func NewFile(dir string) *File {
	return &File{path: filepath.Join(dir, FileName)}
}

func (f *File) Path() string { return f.path }

func (f *File) Load(_ context.Context) ([]card.Card, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cards: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	return decode(data)
}

// Save writes to a temp file and renames it over the old one.
func (f *File) Save(_ context.Context, cards []card.Card) error {
	data, err := encode(cards)
	if err != nil {
		return err
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, FileName+".*")
	if err != nil {
		return fmt.Errorf("save cards: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("save cards: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save cards: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("save cards: %w", err)
	}
	return nil
}
