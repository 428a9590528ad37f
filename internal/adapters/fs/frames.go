package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bft-labs/paintwatch/internal/domain"
	"github.com/bft-labs/paintwatch/internal/ports"
)

// Directory names under a scene.
const (
	dirAnimateIn   = "Animate-In"
	dirAnimateOut  = "Animate-Out"
	dirAnimatePeek = "Animate-Peek"
	dirStatic      = "Static"
)

// LibraryConfig describes where a scene's frames live.
type LibraryConfig struct {
	// Root is the assets directory containing one directory per scene.
	Root string

	// Scene is the scene directory name.
	Scene string

	// Prefix is the file name prefix of every frame.
	Prefix string

	// Last frame index of each sequence; frames 0..Last are loaded.
	InLast   int
	OutLast  int
	PeekLast int
}

// FrameLibrary holds every frame of one scene in memory.
// It implements ports.FrameCache and ports.FrameStore.
type FrameLibrary struct {
	config LibraryConfig
	logger ports.Logger

	mu        sync.RWMutex
	sequences map[domain.SequenceKey]domain.Sequence
	data      map[domain.FrameID][]byte
}

// NewFrameLibrary creates an empty library. Call Load before use.
func NewFrameLibrary(config LibraryConfig, logger ports.Logger) *FrameLibrary {
	return &FrameLibrary{
		config:    config,
		logger:    logger,
		sequences: make(map[domain.SequenceKey]domain.Sequence),
		data:      make(map[domain.FrameID][]byte),
	}
}

// Load reads all frames from disk. Missing sequence frames are skipped;
// a missing static frame is an error.
func (l *FrameLibrary) Load(ctx context.Context) error {
	data := make(map[domain.FrameID][]byte)
	sequences := make(map[domain.SequenceKey]domain.Sequence)

	for _, name := range []domain.StaticName{domain.StaticDefault, domain.StaticRemoved} {
		path := l.StaticPath(name)
		b, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("load static frame %s: %w", path, err)
		}
		data[domain.StaticFrameID(name)] = b
	}

	for _, key := range []domain.SequenceKey{domain.SequenceIn, domain.SequenceOut, domain.SequencePeek} {
		seq := domain.Sequence{Key: key}
		missing := 0
		for i := 0; i <= l.last(key); i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			path := l.SequencePath(key, i)
			b, err := os.ReadFile(path)
			if err != nil {
				missing++
				l.logger.Warn("frame missing, skipping",
					ports.String("path", path),
					ports.Err(err))
				continue
			}
			id := domain.SequenceFrameID(key, i)
			data[id] = b
			seq.Frames = append(seq.Frames, id)
		}
		sequences[key] = seq
		l.logger.Info("sequence loaded",
			ports.String("sequence", string(key)),
			ports.Int("frames", seq.Len()),
			ports.Int("missing", missing))
	}

	l.mu.Lock()
	l.sequences = sequences
	l.data = data
	l.mu.Unlock()
	return nil
}

// SequencePath returns the file path of frame i of a sequence.
func (l *FrameLibrary) SequencePath(key domain.SequenceKey, i int) string {
	return filepath.Join(l.sceneDir(), sequenceDir(key), fmt.Sprintf("%s%02d.jpg", l.config.Prefix, i))
}

// StaticPath returns the file path of a static frame.
func (l *FrameLibrary) StaticPath(name domain.StaticName) string {
	file := l.config.Prefix + ".jpg"
	if name == domain.StaticRemoved {
		file = l.config.Prefix + "_Edited.jpg"
	}
	return filepath.Join(l.sceneDir(), dirStatic, file)
}

// Sequence implements ports.FrameCache.
func (l *FrameLibrary) Sequence(key domain.SequenceKey) domain.Sequence {
	l.mu.RLock()
	defer l.mu.RUnlock()
	seq, ok := l.sequences[key]
	if !ok {
		return domain.Sequence{Key: key}
	}
	return seq
}

// Static implements ports.FrameCache.
func (l *FrameLibrary) Static(name domain.StaticName) domain.FrameID {
	return domain.StaticFrameID(name)
}

// Frame implements ports.FrameStore.
func (l *FrameLibrary) Frame(id domain.FrameID) ([]byte, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	b, ok := l.data[id]
	return b, ok
}

func (l *FrameLibrary) sceneDir() string {
	return filepath.Join(l.config.Root, l.config.Scene)
}

func (l *FrameLibrary) last(key domain.SequenceKey) int {
	switch key {
	case domain.SequenceIn:
		return l.config.InLast
	case domain.SequenceOut:
		return l.config.OutLast
	case domain.SequencePeek:
		return l.config.PeekLast
	default:
		return -1
	}
}

func sequenceDir(key domain.SequenceKey) string {
	switch key {
	case domain.SequenceIn:
		return dirAnimateIn
	case domain.SequenceOut:
		return dirAnimateOut
	default:
		return dirAnimatePeek
	}
}

var (
	_ ports.FrameCache = (*FrameLibrary)(nil)
	_ ports.FrameStore = (*FrameLibrary)(nil)
)
