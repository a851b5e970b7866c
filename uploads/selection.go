package uploads

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// MaxFilesPerKind caps photos and documents independently
const MaxFilesPerKind = 5

var (
	ErrSelectionFull  = errors.New("selection already holds the maximum number of files")
	ErrEmptySelection = errors.New("add at least one photo or document")
)

// File is one local file picked for upload. Source is the original reference, e.g. the path
// it was read from.
type File struct {
	Name   string
	Source string
	Data   []byte
}

// LoadFile reads a file from disk
func LoadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return File{Name: filepath.Base(path), Source: path, Data: data}, nil
}

// Selection holds the photos and documents of one pending save
type Selection struct {
	Photos    []File
	Documents []File
}

func (s *Selection) AddPhoto(f File) error {
	if len(s.Photos) >= MaxFilesPerKind {
		return ErrSelectionFull
	}
	s.Photos = append(s.Photos, f)
	return nil
}

func (s *Selection) AddDocument(f File) error {
	if len(s.Documents) >= MaxFilesPerKind {
		return ErrSelectionFull
	}
	s.Documents = append(s.Documents, f)
	return nil
}

// Validate refuses a save without any file
func (s *Selection) Validate() error {
	if len(s.Photos) == 0 && len(s.Documents) == 0 {
		return ErrEmptySelection
	}
	return nil
}

// Clear empties the selection after a successful save
func (s *Selection) Clear() {
	s.Photos = nil
	s.Documents = nil
}
