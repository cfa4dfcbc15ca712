package media

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/h2non/filetype"

	"github.com/MrSnakeDoc/castplay/internal/domain"
)

const (
	// Ext is the only media extension served
	Ext = ".mp3"
	// DefaultRoute is where media files are mounted on the HTTP server
	DefaultRoute = "/mp3"
	// DefaultContentType is sent to devices when sniffing fails
	DefaultContentType = "audio/mpeg"
	// FallbackDir is used when the configured directory cannot be created
	FallbackDir = "mp3"
)

// Store exposes the tracks of a media directory.
// Tracks are derived from the directory on every call; nothing is cached.
type Store struct {
	dir        string
	publicHost string
	publicPort int
	route      string
}

// NewStore creates a store. publicHost/publicPort form the address devices use
// to download tracks; route is the HTTP mount point (DefaultRoute if empty).
func NewStore(dir, publicHost string, publicPort int, route string) *Store {
	if route == "" {
		route = DefaultRoute
	}
	return &Store{
		dir:        dir,
		publicHost: strings.TrimRight(publicHost, "/"),
		publicPort: publicPort,
		route:      "/" + strings.Trim(route, "/"),
	}
}

// Dir returns the media directory in use
func (s *Store) Dir() string { return s.dir }

// Route returns the HTTP mount point, e.g. "/mp3"
func (s *Store) Route() string { return s.route }

// EnsureDir creates the media directory if needed. When creation is denied it
// switches to FallbackDir and returns the directory finally used.
func (s *Store) EnsureDir() (string, error) {
	err := os.MkdirAll(s.dir, 0o755)
	if err == nil {
		return s.dir, nil
	}
	if !errors.Is(err, fs.ErrPermission) || filepath.Clean(s.dir) == FallbackDir {
		return s.dir, fmt.Errorf("failed to create media dir %s: %w", s.dir, err)
	}

	if ferr := os.MkdirAll(FallbackDir, 0o755); ferr != nil {
		return s.dir, fmt.Errorf("failed to create fallback media dir %s: %w", FallbackDir, ferr)
	}
	s.dir = FallbackDir
	return s.dir, nil
}

// List returns the sorted stems of all regular .mp3 files.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracks in %s: %w", s.dir, err)
	}

	tracks := make([]string, 0, len(entries))
	for _, e := range entries {
		if stem, ok := trackStem(e); ok {
			tracks = append(tracks, stem)
		}
	}
	sort.Strings(tracks)
	return tracks, nil
}

// Sanitize reduces a requested name to a bare file stem.
// Example: "../../etc/passwd" -> "passwd", "song.mp3" -> "song"
func Sanitize(track string) (string, error) {
	name, err := baseName(track)
	if err != nil {
		return "", err
	}
	if stem := trimExt(name); stem != "" {
		return stem, nil
	}
	return "", domain.ErrInvalidTrack
}

// baseName strips any directory part from a requested name
func baseName(track string) (string, error) {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(track), "\\", "/"))
	if name == "" || name == "." || name == ".." || name == "/" {
		return "", domain.ErrInvalidTrack
	}
	return name, nil
}

func trimExt(name string) string {
	if strings.EqualFold(path.Ext(name), Ext) {
		return strings.TrimSuffix(name, path.Ext(name))
	}
	return name
}

// Exists reports whether a regular file exists for the track
func (s *Store) Exists(track string) bool {
	_, err := s.fileName(track)
	return err == nil
}

// Resolve returns the track id, as List reports it, of the file a requested
// name refers to.
func (s *Store) Resolve(track string) (string, error) {
	name, err := s.fileName(track)
	if err != nil {
		return "", err
	}
	return name[:len(name)-len(Ext)], nil
}

// Path returns the local path of the track file
func (s *Store) Path(track string) (string, error) {
	name, err := s.fileName(track)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dir, name), nil
}

// PublicURL builds the URL a device fetches the track from.
// Example: http://192.168.1.10:8801/mp3/My%20Song.mp3
func (s *Store) PublicURL(track string) (string, error) {
	name, err := s.fileName(track)
	if err != nil {
		return "", err
	}
	u := url.URL{
		Scheme: "http",
		Host:   s.publicHost + ":" + strconv.Itoa(s.publicPort),
		Path:   s.route + "/" + name,
	}
	return u.String(), nil
}

// ContentType sniffs the media type of the track file.
func (s *Store) ContentType(track string) string {
	p, err := s.Path(track)
	if err != nil {
		return DefaultContentType
	}
	kind, err := filetype.MatchFile(p)
	if err != nil || kind == filetype.Unknown || kind.MIME.Type != "audio" {
		return DefaultContentType
	}
	return kind.MIME.Value
}

// Handler serves track files below Route(). Directory listings are disabled.
func (s *Store) Handler() http.Handler {
	return http.StripPrefix(s.route, http.FileServer(filesOnly{http.Dir(s.dir)}))
}

// fileName resolves a track to the file name on disk, accepting any case
// of the .mp3 extension. The name is first taken as a stem as listed, so
// "a.mp3" finds "a.mp3.mp3"; a trailing .mp3 is stripped only as a fallback.
func (s *Store) fileName(track string) (string, error) {
	name, err := baseName(track)
	if err != nil {
		return "", err
	}

	stems := []string{name}
	if stem := trimExt(name); stem != name && stem != "" {
		stems = append(stems, stem)
	}

	for _, stem := range stems {
		exact := stem + Ext
		if info, err := os.Stat(filepath.Join(s.dir, exact)); err == nil && info.Mode().IsRegular() {
			return exact, nil
		}
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return "", domain.ErrTrackNotFound
	}
	for _, stem := range stems {
		for _, e := range entries {
			if got, ok := trackStem(e); ok && got == stem {
				return e.Name(), nil
			}
		}
	}
	return "", domain.ErrTrackNotFound
}

func trackStem(e fs.DirEntry) (string, bool) {
	if !e.Type().IsRegular() {
		return "", false
	}
	name := e.Name()
	ext := filepath.Ext(name)
	if !strings.EqualFold(ext, Ext) {
		return "", false
	}
	stem := strings.TrimSuffix(name, ext)
	return stem, stem != ""
}

// filesOnly hides directories from http.FileServer
type filesOnly struct {
	fs http.FileSystem
}

func (f filesOnly) Open(name string) (http.File, error) {
	file, err := f.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	if info.IsDir() {
		_ = file.Close()
		return nil, os.ErrNotExist
	}
	return file, nil
}
