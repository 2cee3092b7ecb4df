package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-audio/audio"
	"github.com/spf13/cobra"

	tempo "github.com/tphakala/go-audio-tempo"
)

const (
	defaultFrameMs = 20
	msPerSecond    = 1000
)

var stretchOpts struct {
	speed   int
	tempo   float64
	frameMs int
}

var stretchCmd = &cobra.Command{
	Use:   "stretch [flags] input.wav output.wav",
	Short: "Stretch a 16-bit WAV file",
	Long: `Stretch a 16-bit PCM WAV file to a new tempo, keeping its pitch.

The file is fed through a tempo session in playback-sized frames, the
same way a media session would be, and the engine tail is flushed at
the end.

Examples:
  tempo stretch --speed 2 speech.wav fast.wav    # 1.5x
  tempo stretch --speed -1 speech.wav slow.wav   # 0.75x
  tempo stretch --tempo 1.1 music.wav out.wav    # 1.1x`,
	Args: cobra.ExactArgs(2),
	RunE: runStretch,
}

func init() {
	stretchCmd.Flags().IntVarP(&stretchOpts.speed, "speed", "s", 0, "speed level, -2 (0.5x) to +2 (1.5x)")
	stretchCmd.Flags().Float64VarP(&stretchOpts.tempo, "tempo", "t", 0, "tempo multiplier; overrides --speed, clamped to min-tempo..max-tempo")
	stretchCmd.Flags().IntVar(&stretchOpts.frameMs, "frame-ms", defaultFrameMs, "playback frame length in milliseconds")
}

func runStretch(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	cfg, err := loadConfig(logger)
	if err != nil {
		return err
	}

	inputPath, outputPath := args[0], args[1]
	if verbose {
		log.Printf("Input: %s", inputPath)
		log.Printf("Output: %s", outputPath)
		if stretchOpts.tempo > 0 {
			log.Printf("Tempo: %s", tempo.FormatTempo(cfg.ClampTempo(stretchOpts.tempo)))
		} else {
			log.Printf("Speed level: %d (%.2fx)", tempo.ClampSpeed(stretchOpts.speed), tempo.Multiplier(stretchOpts.speed))
		}
	}

	start := time.Now()
	stats, err := stretchWAV(inputPath, outputPath, cfg, logger, stretchOpts.speed, stretchOpts.tempo, stretchOpts.frameMs)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Stretched %s -> %s\n", filepath.Base(inputPath), filepath.Base(outputPath))
	fmt.Fprintf(out, "  %d Hz, %d channels, tempo %.3fx\n", stats.rate, stats.channels, stats.tempo)
	fmt.Fprintf(out, "  %d frames -> %d frames\n", stats.inputFrames, stats.outputFrames)
	if elapsed > 0 && stats.rate > 0 {
		fmt.Fprintf(out, "  Duration: %.2fs, Speed: %.1fx realtime\n",
			elapsed.Seconds(),
			float64(stats.inputFrames)/float64(stats.rate)/elapsed.Seconds())
	}
	return nil
}

type stretchStats struct {
	rate         int
	channels     int
	tempo        float64
	inputFrames  int64
	outputFrames int64
}

// stretchWAV runs a WAV file through one tempo session. A positive
// tempoValue is applied as the session's tempo override through the
// administrative controller; otherwise speed selects the tempo.
func stretchWAV(inputPath, outputPath string, cfg tempo.Config, logger *slog.Logger, speed int, tempoValue float64, frameMs int) (stats *stretchStats, err error) {
	if frameMs <= 0 {
		return nil, fmt.Errorf("frame length must be positive, got %d ms", frameMs)
	}

	input, err := openWAVInput(inputPath, verbose)
	if err != nil {
		return nil, err
	}
	defer func() { _ = input.Close() }()

	if input.rate <= 0 || input.channels <= 0 {
		return nil, fmt.Errorf("invalid WAV format: %d Hz, %d channels", input.rate, input.channels)
	}

	output, err := createWAVOutput(outputPath, input.rate, input.channels)
	if err != nil {
		return nil, err
	}
	// Close output, capturing close errors on success path (important for WAV header updates)
	defer func() {
		if closeErr := output.Close(); err == nil {
			err = closeErr
		}
	}()

	registry := tempo.NewRegistry(logger)
	defer registry.Close()
	sess := registry.Create()

	if tempoValue > 0 {
		ctl := tempo.NewController(cfg, registry, logger)
		if _, err := ctl.SetTempo(sess.ID(), strconv.FormatFloat(tempoValue, 'g', -1, 64)); err != nil {
			return nil, err
		}
	} else {
		sess.SetVar(tempo.VarEnabled, "true")
	}

	proc := tempo.NewProcessor(tempo.ProcessorConfig{Logger: logger})
	player := tempo.NewPlayer(cfg, proc, logger)

	frameSamples := max(1, input.rate*frameMs/msPerSecond) * input.channels
	intBuffer := &audio.IntBuffer{
		Data:   make([]int, frameSamples),
		Format: input.format,
	}
	pcm := make([]int16, frameSamples)
	var pending bytes.Buffer

	stats = &stretchStats{rate: input.rate, channels: input.channels}
	progress := newProgressTracker(input.totalSamples, verbose)

	for {
		n, err := input.decoder.PCMBuffer(intBuffer)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to read audio data: %w", err)
		}
		if n == 0 {
			break
		}

		for i, v := range intBuffer.Data[:n] {
			pcm[i] = int16(v)
		}
		stats.inputFrames += int64(n / input.channels)

		if err := player.Play(sess, pcm[:n], &pending, speed, input.rate, input.channels); err != nil {
			return nil, err
		}
		written, err := output.WritePCM(pending.Bytes())
		if err != nil {
			return nil, err
		}
		stats.outputFrames += int64(written / input.channels)
		pending.Reset()

		progress.reportIfNeeded(stats.inputFrames)
	}

	if err := proc.Flush(sess, &pending); err != nil {
		return nil, err
	}
	written, err := output.WritePCM(pending.Bytes())
	if err != nil {
		return nil, err
	}
	stats.outputFrames += int64(written / input.channels)

	if st := sess.State(); st != nil {
		stats.tempo = st.Tempo()
	} else {
		stats.tempo = 1
	}
	return stats, nil
}
