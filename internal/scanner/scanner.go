// Package scanner walks the music library, extracts descriptive data from
// audio tags, and enqueues one work item per album folder. Albums with
// more metadata problems get higher queue priority.
package scanner

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dhowden/tag"

	"curator/internal/logging"
	"curator/internal/matching"
)

var audioExtensions = map[string]struct{}{
	".mp3":  {},
	".flac": {},
	".m4a":  {},
	".ogg":  {},
}

var artworkFiles = []string{"folder.jpg", "cover.jpg", "folder.png", "cover.png", "front.jpg"}

// Album is one scanned library folder.
type Album struct {
	Path   string
	Local  matching.Local
	Tracks []string
	Issues []string
}

// Scanner discovers album folders under a library root.
type Scanner struct {
	root   string
	logger *slog.Logger
}

func New(root string, logger *slog.Logger) *Scanner {
	return &Scanner{root: root, logger: logging.WithComponent(logger, "scanner")}
}

// Scan walks the library and returns every directory that directly
// contains audio files, in deterministic path order. The context is
// checked between directories so a long walk can be interrupted.
func (s *Scanner) Scan(ctx context.Context) ([]Album, error) {
	byDir := map[string][]string{}
	err := filepath.WalkDir(s.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if err := ctx.Err(); err != nil {
				return err
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if _, ok := audioExtensions[ext]; ok {
			dir := filepath.Dir(path)
			byDir[dir] = append(byDir[dir], path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	dirs := make([]string, 0, len(byDir))
	for dir := range byDir {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	albums := make([]Album, 0, len(dirs))
	for _, dir := range dirs {
		tracks := byDir[dir]
		sort.Strings(tracks)
		albums = append(albums, s.describe(dir, tracks))
	}
	return albums, nil
}

// describe builds an album's descriptive data from its first readable
// track's tags, falling back to folder naming conventions
// (Artist/Album/track.ext) when no tags can be read.
func (s *Scanner) describe(dir string, tracks []string) Album {
	album := Album{Path: dir, Tracks: tracks}
	album.Local.TrackCount = len(tracks)

	for _, track := range tracks {
		meta, err := readTags(track)
		if err != nil {
			continue
		}
		album.Local.Title = strings.TrimSpace(meta.Album())
		album.Local.Artist = strings.TrimSpace(meta.AlbumArtist())
		if album.Local.Artist == "" {
			album.Local.Artist = strings.TrimSpace(meta.Artist())
		}
		album.Local.Genre = strings.TrimSpace(meta.Genre())
		album.Local.HasArtwork = meta.Picture() != nil
		break
	}

	if album.Local.Title == "" {
		album.Local.Title = filepath.Base(dir)
		album.Issues = append(album.Issues, "untagged_album_title")
	}
	if album.Local.Artist == "" {
		album.Local.Artist = filepath.Base(filepath.Dir(dir))
		album.Issues = append(album.Issues, "untagged_artist")
	}
	if !album.Local.HasArtwork {
		album.Local.HasArtwork = hasFolderArtwork(dir)
	}
	if !album.Local.HasArtwork {
		album.Issues = append(album.Issues, "missing_artwork")
	}
	if album.Local.Genre == "" {
		album.Issues = append(album.Issues, "missing_genre")
	}

	s.logger.Debug("scanned album",
		logging.String("path", dir),
		logging.Int("tracks", len(tracks)),
		logging.Int("issues", len(album.Issues)))
	return album
}

func readTags(path string) (tag.Metadata, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return tag.ReadFrom(file)
}

func hasFolderArtwork(dir string) bool {
	for _, name := range artworkFiles {
		if info, err := os.Stat(filepath.Join(dir, name)); err == nil && !info.IsDir() {
			return true
		}
	}
	return false
}
