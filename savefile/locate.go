package savefile

import (
	"errors"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/adrg/xdg"
)

const (
	SaveExtension = ".dat"
)

// The folder the game writes its saves to
func DefaultSaveRoot() string {
	return filepath.Join(xdg.Home, "Saved Games", "The Outer Worlds")
}

// Every save file anywhere under root, sorted by path
func FindSaveFiles(root string) ([]string, error) {
	result := make([]string, 0)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), SaveExtension) {
			result = append(result, path)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{What: "save folder", Where: root}
		}
		return nil, err
	}
	slices.Sort(result)
	return result, nil
}

// The first save under root with exactly the given file name
func FirstSaveFile(root string, name string) (string, error) {
	saves, err := FindSaveFiles(root)
	if err != nil {
		return "", err
	}
	for _, save := range saves {
		if filepath.Base(save) == name {
			return save, nil
		}
	}
	return "", &NotFoundError{What: name, Where: root}
}
