package tempo

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
)

// CommandName is the administrative command word.
const CommandName = "timestretch"

// Usage lines written for malformed administrative commands.
const (
	usageCommand = "-USAGE: " + CommandName + " <enable|disable|tempo> <uuid> [value]"
	usageTempo   = "-USAGE: " + CommandName + " tempo <uuid> <value>"

	respNotFound = "-ERR Session not found"
)

// Controller implements the enable, disable and tempo administrative
// commands. It only writes session variables, except that disable also
// releases the session's processing state.
type Controller struct {
	cfg      Config
	sessions Locator
	logger   *slog.Logger
}

// NewController creates a Controller. A nil logger uses slog.Default().
func NewController(cfg Config, sessions Locator, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{cfg: cfg, sessions: sessions, logger: logger}
}

func (c *Controller) locate(id string) (*Session, error) {
	sess, ok := c.sessions.Locate(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, nil
}

// Enable turns tempo processing on for a session.
func (c *Controller) Enable(id string) error {
	sess, err := c.locate(id)
	if err != nil {
		return err
	}
	sess.SetVar(VarEnabled, "true")
	c.logger.Info("tempo processing enabled", "session", id)
	return nil
}

// Disable turns tempo processing off for a session and releases its
// processing state immediately.
func (c *Controller) Disable(id string) error {
	sess, err := c.locate(id)
	if err != nil {
		return err
	}
	sess.SetVar(VarEnabled, "false")
	released := ReleaseState(sess)
	c.logger.Info("tempo processing disabled", "session", id, "released", released)
	return nil
}

// SetTempo parses value, clamps it to the configured tempo bounds, stores
// it as the session's tempo override and enables processing. It returns
// the stored text.
func (c *Controller) SetTempo(id, value string) (string, error) {
	sess, err := c.locate(id)
	if err != nil {
		return "", err
	}

	t, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(t) {
		return "", fmt.Errorf("%w: invalid tempo %q", ErrUsage, value)
	}
	text := FormatTempo(c.cfg.ClampTempo(t))

	sess.SetVar(VarTempo, text)
	sess.SetVar(VarEnabled, "true")
	c.logger.Info("tempo override set", "session", id, "tempo", text)
	return text, nil
}

// FormatTempo formats a tempo value the way it is stored in VarTempo.
func FormatTempo(t float64) string {
	return strconv.FormatFloat(t, 'f', 3, 64)
}

// Execute runs one administrative command line and writes a single-line
// response to w:
//
//	enable <uuid>
//	disable <uuid>
//	tempo <uuid> <value>
//
// Responses start with +OK, -ERR or -USAGE. Malformed arguments and
// unknown sessions are reported in the response only; the returned error
// is non-nil for an unrecognized subcommand or a failed write.
func (c *Controller) Execute(line string, w io.Writer) error {
	response, cmdErr := c.run(strings.Fields(line))
	if _, err := fmt.Fprintln(w, response); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return cmdErr
}

func (c *Controller) run(args []string) (string, error) {
	if len(args) < 2 {
		return usageCommand, nil
	}
	sub, id := args[0], args[1]

	if _, ok := c.sessions.Locate(id); !ok {
		return respNotFound, nil
	}

	switch strings.ToLower(sub) {
	case "enable":
		if err := c.Enable(id); err != nil {
			return respNotFound, nil
		}
		return fmt.Sprintf("+OK tempo stretching enabled for session %s", id), nil

	case "disable":
		if err := c.Disable(id); err != nil {
			return respNotFound, nil
		}
		return fmt.Sprintf("+OK tempo stretching disabled for session %s", id), nil

	case "tempo":
		if len(args) < 3 {
			return usageTempo, nil
		}
		text, err := c.SetTempo(id, args[2])
		if err != nil {
			if errors.Is(err, ErrUsage) {
				return usageTempo, nil
			}
			return respNotFound, nil
		}
		return fmt.Sprintf("+OK tempo set to %s for session %s", text, id), nil

	default:
		return "-ERR Unknown command: " + sub, fmt.Errorf("%w: %s", ErrUnknownCommand, sub)
	}
}
