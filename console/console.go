// Package console drives the sound manager and music player from a line
// oriented command stream, usually stdin.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"sfxd/logger"
	"sfxd/sound"
)

// ErrUsage is returned for a command with the wrong number of arguments
var ErrUsage = errors.New("usage")

// Effects is the sound effect facade
type Effects interface {
	Load(id sound.ResourceID)
	PlayRepeat(id sound.ResourceID, volume float64, repetitions int)
	Unload(id sound.ResourceID)
	Cancel()
	Loaded(id sound.ResourceID) bool
}

// Music is the single track player
type Music interface {
	Play(id sound.ResourceID) error
	Stop()
}

// Pauser pauses the whole output
type Pauser interface {
	Pause()
	Resume()
}

// Host groups what the console controls. Music and Output are optional.
type Host struct {
	Effects Effects
	Music   Music
	Output  Pauser
}

// Console executes commands against a Host
type Console struct {
	host   Host
	out    io.Writer
	logger *slog.Logger
}

// New creates a console writing replies to out
func New(host Host, out io.Writer) *Console {
	return &Console{
		host:   host,
		out:    out,
		logger: logger.WithComponent("console"),
	}
}

const help = `commands:
  load <id>                          load a sound effect
  unload <id>                        unload a sound effect
  play <id> [volume] [repetitions]   play a loaded sound effect
  status <id>                        report whether a sound effect is loaded
  music <id>                         play a music track, replacing the current one
  stop                               stop the music track
  pause | resume                     pause or resume all output
  cancel | quit                      stop the sound manager and exit`

// Run executes lines from r until EOF, a quit command or ctx is done
func (c *Console) Run(ctx context.Context, r io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	scanErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return ctx.Err()
				}
			}

			quit, err := c.Exec(line)
			if err != nil {
				fmt.Fprintf(c.out, "error: %v\n", err)
				c.logger.Debug("Command failed", slog.String("line", line), slog.Any("error", err))
			}
			if quit {
				return nil
			}
		}
	}
}

// Exec runs a single command line. quit is true after cancel or quit.
func (c *Console) Exec(line string) (quit bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return false, nil
	}

	cmd, args := strings.ToLower(fields[0]), fields[1:]
	switch cmd {
	case "load", "unload", "status", "music":
		if len(args) != 1 {
			return false, fmt.Errorf("%w: %s <id>", ErrUsage, cmd)
		}
		id, err := parseID(args[0])
		if err != nil {
			return false, err
		}
		return false, c.withID(cmd, id)

	case "play":
		return false, c.play(args)

	case "stop":
		if c.host.Music == nil {
			return false, errors.New("music is not available")
		}
		c.host.Music.Stop()

	case "pause", "resume":
		if c.host.Output == nil {
			return false, errors.New("output cannot be paused")
		}
		if cmd == "pause" {
			c.host.Output.Pause()
		} else {
			c.host.Output.Resume()
		}

	case "cancel", "quit", "exit":
		c.host.Effects.Cancel()
		return true, nil

	case "help":
		fmt.Fprintln(c.out, help)

	default:
		return false, fmt.Errorf("unknown command %q, try help", cmd)
	}
	return false, nil
}

func (c *Console) withID(cmd string, id sound.ResourceID) error {
	switch cmd {
	case "load":
		c.host.Effects.Load(id)
	case "unload":
		c.host.Effects.Unload(id)
	case "status":
		state := "not loaded"
		if c.host.Effects.Loaded(id) {
			state = "loaded"
		}
		fmt.Fprintf(c.out, "%d: %s\n", id, state)
	case "music":
		if c.host.Music == nil {
			return errors.New("music is not available")
		}
		return c.host.Music.Play(id)
	}
	return nil
}

func (c *Console) play(args []string) error {
	if len(args) < 1 || len(args) > 3 {
		return fmt.Errorf("%w: play <id> [volume] [repetitions]", ErrUsage)
	}

	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	volume := sound.DefaultVolume
	if len(args) > 1 {
		volume, err = strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid volume %q: %w", args[1], err)
		}
	}

	repetitions := 0
	if len(args) > 2 {
		repetitions, err = strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid repetitions %q: %w", args[2], err)
		}
	}

	c.host.Effects.PlayRepeat(id, volume, repetitions)
	return nil
}

func parseID(s string) (sound.ResourceID, error) {
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid resource id %q: %w", s, err)
	}
	return sound.ResourceID(id), nil
}
