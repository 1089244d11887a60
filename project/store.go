package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

const (
	saveExt     = ".yaml"
	stampLayout = "2006-01-02_15-04-05"
	defaultName = "untitled"
	stampLen    = len(stampLayout)
)

var ErrNoSaves = errors.New("project has no saves")

// SaveInfo represents a saved project file (for listing)
type SaveInfo struct {
	Filename  string
	Name      string // parsed from filename (empty if unnamed)
	Timestamp time.Time
}

// Store keeps one directory per project, each holding timestamped saves
// such as 2024-01-15_14-30-00.yaml or 2024-01-15_14-30-00_name.yaml.
type Store struct {
	dir string
	now func() time.Time
}

func NewStore(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

// DefaultDir returns ~/.config/go-tracker/projects
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fault.Wrap(err, fmsg.With("home directory"))
	}
	return filepath.Join(home, ".config", "go-tracker", "projects"), nil
}

func (s *Store) Dir() string {
	return s.dir
}

// ProjectDir returns the path to a specific project
func (s *Store) ProjectDir(project string) string {
	return filepath.Join(s.dir, sanitizeFilename(project))
}

// ListProjects returns all project folder names
func (s *Store) ListProjects() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fault.Wrap(err, fmsg.With("list projects"))
	}

	var projects []string
	for _, entry := range entries {
		if entry.IsDir() {
			projects = append(projects, entry.Name())
		}
	}
	sort.Strings(projects)
	return projects, nil
}

// ListSaves returns timestamped saves for a project, newest first
func (s *Store) ListSaves(project string) ([]SaveInfo, error) {
	entries, err := os.ReadDir(s.ProjectDir(project))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []SaveInfo{}, nil
		}
		return nil, fault.Wrap(err, fmsg.With("list saves"))
	}

	var saves []SaveInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if info, ok := parseSaveName(entry.Name()); ok {
			saves = append(saves, info)
		}
	}

	sort.SliceStable(saves, func(i, j int) bool {
		return saves[i].Timestamp.After(saves[j].Timestamp)
	})
	return saves, nil
}

func parseSaveName(filename string) (SaveInfo, bool) {
	if !strings.HasSuffix(filename, saveExt) {
		return SaveInfo{}, false
	}
	base := strings.TrimSuffix(filename, saveExt)
	if len(base) < stampLen {
		return SaveInfo{}, false
	}
	ts, err := time.ParseInLocation(stampLayout, base[:stampLen], time.Local)
	if err != nil {
		// Not a timestamped file, skip
		return SaveInfo{}, false
	}
	info := SaveInfo{Filename: filename, Timestamp: ts}
	if len(base) > stampLen+1 && base[stampLen] == '_' {
		info.Name = base[stampLen+1:]
	}
	return info, true
}

// Save writes doc as a new timestamped save, creating the project
// directory when needed.
func (s *Store) Save(project, name string, doc *Document) (SaveInfo, error) {
	if project == "" {
		project = defaultName
	}
	dir := s.ProjectDir(project)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return SaveInfo{}, fault.Wrap(err, fmsg.With("create project directory"))
	}

	data, err := Encode(doc)
	if err != nil {
		return SaveInfo{}, err
	}

	ts := s.now()
	filename := ts.Format(stampLayout) + saveExt
	if name != "" {
		filename = ts.Format(stampLayout) + "_" + sanitizeFilename(name) + saveExt
	}
	if err := os.WriteFile(filepath.Join(dir, filename), data, 0o644); err != nil {
		return SaveInfo{}, fault.Wrap(err, fmsg.WithDesc("write save", "Could not write "+filename))
	}
	info, _ := parseSaveName(filename)
	return info, nil
}

// Load reads a specific save, or the most recent one if filename is empty
func (s *Store) Load(project, filename string) (*Document, error) {
	if filename == "" {
		saves, err := s.ListSaves(project)
		if err != nil {
			return nil, err
		}
		if len(saves) == 0 {
			return nil, fault.Wrap(ErrNoSaves,
				fmsg.With(fmt.Sprintf("project %s", project)),
				ftag.With(ftag.NotFound))
		}
		filename = saves[0].Filename // saves are sorted newest first
	}

	data, err := os.ReadFile(filepath.Join(s.ProjectDir(project), filepath.Base(filename)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fault.Wrap(err, fmsg.With("read save "+filename), ftag.With(ftag.NotFound))
		}
		return nil, fault.Wrap(err, fmsg.With("read save "+filename))
	}
	return Decode(data)
}

// CreateProject creates a new empty project folder
func (s *Store) CreateProject(project string) error {
	if err := os.MkdirAll(s.ProjectDir(project), 0o755); err != nil {
		return fault.Wrap(err, fmsg.With("create project"))
	}
	return nil
}

// DeleteSave deletes a specific save file
func (s *Store) DeleteSave(project, filename string) error {
	if err := os.Remove(filepath.Join(s.ProjectDir(project), filepath.Base(filename))); err != nil {
		return fault.Wrap(err, fmsg.With("delete save"))
	}
	return nil
}

// RenameSave changes the name part of a save, keeping its timestamp
func (s *Store) RenameSave(project, oldFilename, newName string) (string, error) {
	info, ok := parseSaveName(filepath.Base(oldFilename))
	if !ok {
		return "", fault.New("invalid save filename "+oldFilename, ftag.With(ftag.InvalidArgument))
	}
	stamp := info.Timestamp.Format(stampLayout)
	newFilename := stamp + saveExt
	if newName != "" {
		newFilename = stamp + "_" + sanitizeFilename(newName) + saveExt
	}

	dir := s.ProjectDir(project)
	if err := os.Rename(filepath.Join(dir, info.Filename), filepath.Join(dir, newFilename)); err != nil {
		return "", fault.Wrap(err, fmsg.With("rename save"))
	}
	return newFilename, nil
}

// DeleteProject deletes entire project folder
func (s *Store) DeleteProject(project string) error {
	if err := os.RemoveAll(s.ProjectDir(project)); err != nil {
		return fault.Wrap(err, fmsg.With("delete project"))
	}
	return nil
}

// RenameProject renames a project folder
func (s *Store) RenameProject(oldName, newName string) error {
	if err := os.Rename(s.ProjectDir(oldName), s.ProjectDir(newName)); err != nil {
		return fault.Wrap(err, fmsg.With("rename project"))
	}
	return nil
}

var filenameReplacer = strings.NewReplacer(
	" ", "-", "/", "-", "\\", "-", ":", "-",
	"*", "", "?", "", "\"", "", "<", "", ">", "", "|", "",
)

// sanitizeFilename removes/replaces characters that are problematic in filenames
func sanitizeFilename(name string) string {
	name = filenameReplacer.Replace(name)
	if name == "" || name == "." || name == ".." {
		return defaultName
	}
	return name
}
