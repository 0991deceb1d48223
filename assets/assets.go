// Package assets resolves resource ids to audio files and decodes them.
package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"

	"sfxd/sound"
)

var (
	ErrUnknownResource   = errors.New("unknown resource")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
)

// resampleQuality is the beep resampling quality used for every conversion
const resampleQuality = 4

// Catalog maps resource ids to files in a file system
type Catalog struct {
	fsys  fs.FS
	mu    sync.RWMutex
	files map[sound.ResourceID]string
}

// NewCatalog creates a catalog over fsys. files maps ids to slash separated
// paths inside fsys.
func NewCatalog(fsys fs.FS, files map[sound.ResourceID]string) *Catalog {
	c := &Catalog{
		fsys:  fsys,
		files: make(map[sound.ResourceID]string, len(files)),
	}
	for id, name := range files {
		c.files[id] = name
	}
	return c
}

// Register adds or replaces the file for id
func (c *Catalog) Register(id sound.ResourceID, name string) {
	c.mu.Lock()
	c.files[id] = name
	c.mu.Unlock()
}

// Name returns the file registered for id
func (c *Catalog) Name(id sound.ResourceID) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	name, ok := c.files[id]
	return name, ok
}

// IDs returns all registered ids in ascending order
func (c *Catalog) IDs() []sound.ResourceID {
	c.mu.RLock()
	ids := make([]sound.ResourceID, 0, len(c.files))
	for id := range c.files {
		ids = append(ids, id)
	}
	c.mu.RUnlock()

	slices.Sort(ids)
	return ids
}

// Open opens the file for id and returns a streaming decoder for it. The
// caller must close the returned streamer.
func (c *Catalog) Open(id sound.ResourceID) (beep.StreamSeekCloser, beep.Format, error) {
	name, ok := c.Name(id)
	if !ok {
		return nil, beep.Format{}, fmt.Errorf("resource %d: %w", id, ErrUnknownResource)
	}

	file, err := c.fsys.Open(name)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("failed to open file %s: %w", name, err)
	}

	streamer, format, err := decode(name, file)
	if err != nil {
		file.Close()
		return nil, beep.Format{}, err
	}

	return &fileStream{StreamSeekCloser: streamer, file: file}, format, nil
}

// Decode reads the whole resource into memory, resampled to sampleRate
func (c *Catalog) Decode(id sound.ResourceID, sampleRate beep.SampleRate) (*beep.Buffer, error) {
	streamer, format, err := c.Open(id)
	if err != nil {
		return nil, err
	}
	defer streamer.Close()

	var source beep.Streamer = streamer
	if format.SampleRate != sampleRate {
		source = beep.Resample(resampleQuality, format.SampleRate, sampleRate, streamer)
	}

	buffer := beep.NewBuffer(beep.Format{SampleRate: sampleRate, NumChannels: 2, Precision: 2})
	buffer.Append(source)
	if err := streamer.Err(); err != nil {
		return nil, fmt.Errorf("failed to decode resource %d: %w", id, err)
	}

	return buffer, nil
}

func decode(name string, file fs.File) (beep.StreamSeekCloser, beep.Format, error) {
	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
		err      error
	)

	switch ext := strings.ToLower(path.Ext(name)); ext {
	case ".mp3":
		streamer, format, err = mp3.Decode(file)
	case ".wav":
		streamer, format, err = wav.Decode(file)
	case ".ogg":
		streamer, format, err = vorbis.Decode(file)
	case ".flac":
		streamer, format, err = flac.Decode(file)
	default:
		return nil, beep.Format{}, fmt.Errorf("%s: %w", name, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("failed to decode %s: %w", name, err)
	}

	return streamer, format, nil
}

// fileStream closes the underlying file together with its decoder
type fileStream struct {
	beep.StreamSeekCloser
	file fs.File
}

func (s *fileStream) Close() error {
	err := s.StreamSeekCloser.Close()
	if cerr := s.file.Close(); cerr != nil && !errors.Is(cerr, fs.ErrClosed) && err == nil {
		err = cerr
	}
	return err
}
