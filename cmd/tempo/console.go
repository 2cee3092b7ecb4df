package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	tempo "github.com/tphakala/go-audio-tempo"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Interactive timestretch administration",
	Long: `Read administration commands from standard input, one per line.

Session commands:
  create [id]            create a session (random UUID when id is omitted)
  hangup <id>            end a session and release its engine
  list                   list live sessions
  show <id>              print a session's timestretch variables
  quit                   leave the console

Administration commands (the "timestretch" prefix is optional):
  timestretch enable <uuid>
  timestretch disable <uuid>
  timestretch tempo <uuid> <value>`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		cfg, err := loadConfig(logger)
		if err != nil {
			return err
		}
		c := newConsole(cfg, logger)
		defer c.registry.Close()
		return c.run(cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

// console holds the live sessions behind the administration REPL.
type console struct {
	registry   *tempo.Registry
	controller *tempo.Controller
	player     *tempo.Player
}

func newConsole(cfg tempo.Config, logger *slog.Logger) *console {
	registry := tempo.NewRegistry(logger)
	proc := tempo.NewProcessor(tempo.ProcessorConfig{Logger: logger})
	return &console{
		registry:   registry,
		controller: tempo.NewController(cfg, registry, logger),
		player:     tempo.NewPlayer(cfg, proc, logger),
	}
}

var errQuit = errors.New("quit")

// run executes lines from r until EOF or quit.
func (c *console) run(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := c.exec(line, w); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			if !errors.Is(err, tempo.ErrUnknownCommand) {
				return err
			}
		}
	}
	return scanner.Err()
}

// exec runs one console line.
func (c *console) exec(line string, w io.Writer) error {
	fields := strings.Fields(line)

	switch strings.ToLower(fields[0]) {
	case "quit", "exit":
		return errQuit

	case "create":
		var sess *tempo.Session
		if len(fields) > 1 {
			var err error
			if sess, err = c.registry.CreateWithID(fields[1]); err != nil {
				_, werr := fmt.Fprintf(w, "-ERR %v\n", err)
				return werr
			}
		} else {
			sess = c.registry.Create()
		}
		_, err := fmt.Fprintf(w, "+OK %s\n", sess.ID())
		return err

	case "hangup":
		if len(fields) < 2 {
			_, err := fmt.Fprintln(w, "-USAGE: hangup <uuid>")
			return err
		}
		if !c.registry.Hangup(fields[1]) {
			_, err := fmt.Fprintln(w, "-ERR Session not found")
			return err
		}
		_, err := fmt.Fprintf(w, "+OK %s hung up\n", fields[1])
		return err

	case "list":
		for _, id := range c.registry.IDs() {
			if _, err := fmt.Fprintln(w, id); err != nil {
				return err
			}
		}
		_, err := fmt.Fprintf(w, "+OK %d sessions\n", c.registry.Len())
		return err

	case "show":
		if len(fields) < 2 {
			_, err := fmt.Fprintln(w, "-USAGE: show <uuid>")
			return err
		}
		return c.show(fields[1], w)

	case tempo.CommandName:
		return c.controller.Execute(strings.Join(fields[1:], " "), w)

	default:
		return c.controller.Execute(line, w)
	}
}

func (c *console) show(id string, w io.Writer) error {
	sess, ok := c.registry.Locate(id)
	if !ok {
		_, err := fmt.Fprintln(w, "-ERR Session not found")
		return err
	}

	override := "none"
	if t := c.player.TempoOverride(sess); t > 0 {
		override = tempo.FormatTempo(t)
	}
	engine := "idle"
	if st := sess.State(); st != nil {
		engine = fmt.Sprintf("%d Hz, %d channels, tempo %s", st.Rate(), st.Channels(), tempo.FormatTempo(st.Tempo()))
	}
	_, err := fmt.Fprintf(w, "+OK %s enabled=%t tempo=%s engine=%s\n",
		id, c.player.Enabled(sess), override, engine)
	return err
}
