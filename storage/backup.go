package storage

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"tweakseq/debug"
)

const backupLayout = "2006-01-02_15-04-05"

// BackupInfo describes one saved image copy
type BackupInfo struct {
	Filename  string
	Timestamp time.Time
}

// Backup writes a timestamped copy of the image into dir and returns its
// file name
func (fi *File) Backup(dir string) (string, error) {
	return fi.backupAt(dir, time.Now())
}

func (fi *File) backupAt(dir string, at time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrap(err, "create backup directory")
	}
	name := at.Format(backupLayout) + ".bin"
	if err := os.WriteFile(filepath.Join(dir, name), fi.snapshot(), 0644); err != nil {
		return "", errors.Wrapf(err, "write backup %s", name)
	}
	debug.Log("store", "backup %s", name)
	return name, nil
}

// ListBackups returns the backups in dir, newest first
func ListBackups(dir string) ([]BackupInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []BackupInfo{}, nil
		}
		return nil, errors.Wrap(err, "list backups")
	}

	var backups []BackupInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".bin") {
			continue
		}
		ts, err := time.Parse(backupLayout, strings.TrimSuffix(entry.Name(), ".bin"))
		if err != nil {
			continue
		}
		backups = append(backups, BackupInfo{Filename: entry.Name(), Timestamp: ts})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

// Restore replaces the image with a backup from dir. An empty filename
// picks the newest backup.
func (fi *File) Restore(dir, filename string) error {
	if filename == "" {
		backups, err := ListBackups(dir)
		if err != nil {
			return err
		}
		if len(backups) == 0 {
			return errors.Errorf("no backups in %s", dir)
		}
		filename = backups[0].Filename
	}
	data, err := os.ReadFile(filepath.Join(dir, filename))
	if err != nil {
		return errors.Wrapf(err, "read backup %s", filename)
	}
	if len(data) > fi.Capacity() {
		return errors.Errorf("backup %s is %d bytes, image holds %d", filename, len(data), fi.Capacity())
	}
	if err := fi.replace(data); err != nil {
		return err
	}
	debug.Log("store", "restored %s", filename)
	return nil
}
