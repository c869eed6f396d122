package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jwebster45206/narrative-engine/pkg/storage"
	"github.com/jwebster45206/narrative-engine/pkg/story"
	"gopkg.in/yaml.v3"
)

// Story files live under <dataDir>/stories/<story_id>/:
//
//	story.yaml       metadata, defaults, checkpoints and optional inline events
//	events/*.yaml    additional event lists, loaded in file name order
const (
	storiesDir    = "stories"
	storyFileName = "story.yaml"
	eventsDir     = "events"
)

// ErrStoryIDMismatch is returned when story.yaml names an id other than its
// directory. Stories are looked up by directory, so saved games could not resume.
var ErrStoryIDMismatch = errors.New("story id does not match its directory")

// storyDir serves story content from <dataDir>/stories. Every game-state
// backend embeds it.
type storyDir struct {
	dataDir string
	logger  *slog.Logger
}

func newStoryDir(dataDir string, logger *slog.Logger) storyDir {
	if dataDir == "" {
		dataDir = "./data"
	}
	return storyDir{dataDir: dataDir, logger: logger}
}

func (r *storyDir) ListStories(ctx context.Context) ([]story.Info, error) {
	root := filepath.Join(r.dataDir, storiesDir)
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []story.Info{}, nil
		}
		return nil, fmt.Errorf("failed to read stories directory: %w", err)
	}

	infos := make([]story.Info, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		s, err := readStoryFile(filepath.Join(root, entry.Name()))
		if err != nil {
			r.logger.Warn("Skipping unreadable story", "story_id", entry.Name(), "error", err)
			continue
		}
		infos = append(infos, s.Info())
	}

	slices.SortFunc(infos, func(a, b story.Info) int {
		return strings.Compare(a.Title, b.Title)
	})
	return infos, nil
}

func (r *storyDir) GetStory(ctx context.Context, storyID string) (*story.Story, error) {
	if storyID == "" || storyID != filepath.Base(storyID) || strings.HasPrefix(storyID, ".") {
		return nil, fmt.Errorf("%w: invalid id %q", storage.ErrStoryNotFound, storyID)
	}

	s, overridden, err := LoadStoryDir(filepath.Join(r.dataDir, storiesDir, storyID))
	if err != nil {
		return nil, err
	}
	if len(overridden) > 0 {
		r.logger.Warn("Duplicate event ids, last definition wins", "story_id", storyID, "event_ids", overridden)
	}
	return s, nil
}

// LoadStoryDir reads a story directory and merges its event files.
// It also returns the ids of events that were overridden by a later definition.
func LoadStoryDir(dir string) (*story.Story, []string, error) {
	s, err := readStoryFile(dir)
	if err != nil {
		return nil, nil, err
	}

	sets := [][]story.Event{s.Events}
	entries, err := os.ReadDir(filepath.Join(dir, eventsDir))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, nil, fmt.Errorf("failed to read events directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !isYAML(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, eventsDir, entry.Name())
		events, err := readEventsFile(path)
		if err != nil {
			return nil, nil, err
		}
		sets = append(sets, events)
	}

	var overridden []string
	s.Events, overridden = story.MergeEvents(sets...)
	return s, overridden, nil
}

func readStoryFile(dir string) (*story.Story, error) {
	path := filepath.Join(dir, storyFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", storage.ErrStoryNotFound, filepath.Base(dir))
		}
		return nil, fmt.Errorf("failed to read story file: %w", err)
	}

	var s story.Story
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	name := filepath.Base(filepath.Clean(dir))
	switch s.ID {
	case "":
		s.ID = name
	case name:
	default:
		return nil, fmt.Errorf("%w: %s declares id %q", ErrStoryIDMismatch, path, s.ID)
	}
	return &s, nil
}

func readEventsFile(path string) ([]story.Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read events file: %w", err)
	}
	var events []story.Event
	if err := yaml.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	return events, nil
}

func isYAML(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
