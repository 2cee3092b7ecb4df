package tempo

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
)

// Player is the playback-side glue: it reads a session's variables to
// decide whether and how to stretch a frame, then calls the Processor.
// Playback never fails because of tempo processing; frames that cannot be
// processed are passed through unchanged.
type Player struct {
	cfg    Config
	proc   *Processor
	logger *slog.Logger
}

// NewPlayer creates a Player. A nil logger uses slog.Default().
func NewPlayer(cfg Config, proc *Processor, logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.Default()
	}
	return &Player{cfg: cfg, proc: proc, logger: logger}
}

// Enabled reports whether tempo processing applies to sess. An unset
// variable falls back to Config.DefaultEnabled.
func (p *Player) Enabled(sess *Session) bool {
	v, ok := sess.LookupVar(VarEnabled)
	if !ok {
		return p.cfg.DefaultEnabled
	}
	return isTrue(v)
}

// TempoOverride returns the session's tempo override clamped to the
// configured bounds, or 0 when none is set or it does not parse.
func (p *Player) TempoOverride(sess *Session) float64 {
	v, ok := sess.LookupVar(VarTempo)
	if !ok {
		return 0
	}
	t, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || !(t > 0) {
		return 0
	}
	return p.cfg.ClampTempo(t)
}

// Play writes one frame of output for sess to out. With processing
// enabled the frame goes through the Processor at the given speed level;
// otherwise, or when the session's engine is unavailable or the channel
// layout is unsupported, input is written as is.
func (p *Player) Play(sess *Session, input []int16, out io.Writer, speed, rate, channels int) error {
	if !p.Enabled(sess) {
		return passThrough(input, out)
	}

	params := Params{
		Speed:    speed,
		Rate:     rate,
		Channels: channels,
		Tempo:    p.TempoOverride(sess),
	}
	err := p.proc.Process(sess, input, out, params)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrEngineCreate), errors.Is(err, ErrSessionClosed), errors.Is(err, ErrInvalidConfig):
		p.logger.Warn("tempo processing skipped", "session", sess.ID(), "error", err)
		return passThrough(input, out)
	default:
		return err
	}
}

func passThrough(input []int16, out io.Writer) error {
	buf := make([]byte, len(input)*bytesPerInt16)
	PutInt16LE(buf, input)
	if _, err := out.Write(buf); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// isTrue reports whether a variable value reads as enabled.
func isTrue(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "yes", "on", "enabled", "active", "allow", "1":
		return true
	}
	return false
}
