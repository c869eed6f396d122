package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jwebster45206/narrative-engine/internal/storage"
	"github.com/jwebster45206/narrative-engine/pkg/story"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <story_dir> [story_dir...]\n", os.Args[0])
		os.Exit(1)
	}

	failed := false
	for _, dir := range os.Args[1:] {
		ok, err := validateDir(dir, os.Stdout)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			failed = true
			continue
		}
		if !ok {
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

// validateDir loads and lints one story directory, writing a report to w.
// It returns false when the story has errors.
func validateDir(dir string, w io.Writer) (bool, error) {
	fmt.Fprintf(w, "Validating %s...\n", dir)

	s, overridden, err := storage.LoadStoryDir(dir)
	if err != nil {
		return false, err
	}

	result := story.Validate(s)
	for _, id := range overridden {
		result.Warnings = append(result.Warnings, fmt.Sprintf("event %q is defined more than once; the last definition wins", id))
	}
	if !isValidID(filepath.Base(filepath.Clean(dir))) {
		result.Warnings = append(result.Warnings, "story directory name should be lowercase snake_case")
	}
	for _, ev := range s.Events {
		if ev.ID != "" && !isValidID(ev.ID) {
			result.Warnings = append(result.Warnings, fmt.Sprintf("event ID '%s' should be lowercase snake_case", ev.ID))
		}
	}

	report(w, "Errors", result.Errors)
	report(w, "Warnings", result.Warnings)

	if !result.Valid() {
		fmt.Fprintf(w, "%s has %d error(s)\n", dir, len(result.Errors))
		return false, nil
	}
	fmt.Fprintf(w, "Story %q is valid! (%d events, %d checkpoints)\n", s.Title, len(s.Events), len(s.Checkpoints))
	return true, nil
}

func report(w io.Writer, heading string, lines []string) {
	if len(lines) == 0 {
		return
	}
	fmt.Fprintf(w, "%s:\n", heading)
	for _, l := range lines {
		fmt.Fprintf(w, "  - %s\n", l)
	}
}

var validIDRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)

func isValidID(id string) bool {
	// Allow 'x.' prefix for experimental stories
	return validIDRegex.MatchString(strings.TrimPrefix(id, "x."))
}
