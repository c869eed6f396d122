package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/jwebster45206/narrative-engine/pkg/chat"
	"github.com/jwebster45206/narrative-engine/pkg/effects"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
)

type ConsoleConfig struct {
	APIBaseURL string
	Timeout    time.Duration
	Width      int
}

const helpText = `Commands:
  <number>              pick a numbered choice
  <text>                do something else
  /save                 show the game id to resume later
  /debug                print the current game state
  /copy                 copy the last narrative to the clipboard
  /force_event <id>     run an event by id
  /help                 show this help
  /quit                 leave the game`

var errQuit = errors.New("quit")

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	choiceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow
)

func main() {
	cfg := &ConsoleConfig{
		APIBaseURL: getEnv("API_BASE_URL", "http://localhost:8080"),
		Timeout:    3 * time.Minute,
		Width:      80,
	}
	if w, err := strconv.Atoi(os.Getenv("CONSOLE_WIDTH")); err == nil && w > 20 {
		cfg.Width = w
	}

	api := &apiClient{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.APIBaseURL, "/"),
	}

	if !api.testConnection() {
		fmt.Fprintf(os.Stderr, "Could not connect to API. Please ensure the API is running.\nTry: docker-compose up -d\n")
		os.Exit(1)
	}

	in := bufio.NewScanner(os.Stdin)
	s := &session{api: api, out: os.Stdout, width: cfg.Width}

	var arg string
	if len(os.Args) > 1 {
		arg = os.Args[1]
	}
	if err := s.start(arg, in); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start game: %v\n", err)
		os.Exit(1)
	}

	if err := s.run(in); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// session is one interactive game against the API.
type session struct {
	api     *apiClient
	out     io.Writer
	width   int
	gameID  uuid.UUID
	choices []effects.Choice
	ended   bool
	last    string // most recent narrative
}

// start resumes a game when arg is a game id, starts the story named by arg,
// or asks the player to pick a story.
func (s *session) start(arg string, in *bufio.Scanner) error {
	if id, err := uuid.Parse(arg); err == nil {
		gs, err := s.api.getGameState(id)
		if err != nil {
			return err
		}
		s.gameID = gs.ID
		s.ended = gs.IsEnded()
		fmt.Fprintf(s.out, "Resuming game %s\n\n", gs.ID)
		s.print(gs.Narrative)
		return nil
	}

	storyID := arg
	if storyID == "" {
		var err error
		if storyID, err = s.pickStory(in); err != nil {
			return err
		}
	}

	resp, err := s.api.createGame(storyID)
	if err != nil {
		return err
	}
	s.show(resp)
	return nil
}

func (s *session) pickStory(in *bufio.Scanner) (string, error) {
	infos, err := s.api.listStories()
	if err != nil {
		return "", err
	}
	if len(infos) == 0 {
		return "", errors.New("no stories available")
	}

	fmt.Fprintln(s.out, titleStyle.Render("Available Stories:"))
	for i, info := range infos {
		fmt.Fprintf(s.out, "  %d - %s (%s)\n", i+1, info.Title, info.ID)
	}
	fmt.Fprint(s.out, "\nSelect a story by number: ")

	if !in.Scan() {
		return "", errors.New("no selection")
	}
	n, err := strconv.Atoi(strings.TrimSpace(in.Text()))
	if err != nil || n < 1 || n > len(infos) {
		return "", errors.New("invalid selection")
	}
	return infos[n-1].ID, nil
}

func (s *session) run(in *bufio.Scanner) error {
	for {
		fmt.Fprint(s.out, "\n> ")
		if !in.Scan() {
			return in.Err()
		}
		err := s.handle(in.Text())
		if errors.Is(err, errQuit) {
			fmt.Fprintln(s.out, "Goodbye.")
			return nil
		}
		if err != nil {
			fmt.Fprintln(s.out, errorStyle.Render(fmt.Sprintf("Error: %v", err)))
		}
	}
}

// handle processes one line of player input.
func (s *session) handle(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	if strings.HasPrefix(line, "/") {
		cmd, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)
		switch cmd {
		case "/quit", "/exit":
			return errQuit
		case "/help":
			fmt.Fprintln(s.out, helpText)
		case "/save":
			fmt.Fprintf(s.out, "Game id: %s\nResume with: console %s\n", s.gameID, s.gameID)
		case "/debug":
			gs, err := s.api.getGameState(s.gameID)
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(gs, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(s.out, string(data))
		case "/copy":
			if s.last == "" {
				return errors.New("nothing to copy yet")
			}
			if err := clipboard.WriteAll(s.last); err != nil {
				return fmt.Errorf("failed to copy: %w", err)
			}
			fmt.Fprintln(s.out, "Copied.")
		case "/force_event":
			if arg == "" {
				return errors.New("usage: /force_event <event_id>")
			}
			resp, err := s.api.forceEvent(s.gameID, arg)
			if err != nil {
				return err
			}
			s.show(resp)
		default:
			return fmt.Errorf("unknown command %s (try /help)", cmd)
		}
		return nil
	}

	if s.ended {
		return errors.New("the story has ended; /quit to leave")
	}

	req := chat.TurnRequest{GameStateID: s.gameID, Message: line}
	if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(s.choices) {
		c := s.choices[n-1]
		req.Message = c.Label
		req.ActionID = c.Action
	}

	resp, err := s.api.turn(req)
	if err != nil {
		return err
	}
	s.show(resp)
	return nil
}

func (s *session) show(resp *chat.TurnResponse) {
	s.gameID = resp.GameStateID
	s.print(resp.Narrative)

	for _, d := range resp.Diagnostics {
		fmt.Fprintf(s.out, "%s %s\n", warningStyle.Render("[warning]"), d)
	}

	if resp.Ended != nil {
		s.ended = true
		s.choices = nil
		if resp.Ended.Message != nil && *resp.Ended.Message != "" {
			s.print(*resp.Ended.Message)
		}
		if resp.Ended.Success {
			fmt.Fprintln(s.out, titleStyle.Render("*** You have won. ***"))
		} else {
			fmt.Fprintln(s.out, titleStyle.Render("*** The story is over. ***"))
		}
		return
	}

	// Keep the previous choices when an action produced none.
	if len(resp.Choices) > 0 {
		s.choices = resp.Choices
	}
	for i, c := range s.choices {
		fmt.Fprintf(s.out, "  %d. %s\n", i+1, choiceStyle.Render(c.Label))
	}
}

func (s *session) print(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	s.last = text
	wrapped := wordwrap.String(text, s.width-2)
	fmt.Fprintf(s.out, "%s\n\n", indent.String(wrapped, 2))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
