package main

import (
	"fmt"
	"log"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	tempo "github.com/tphakala/go-audio-tempo"
)

const (
	supportedBitDepth = 16
	wavFormatPCM      = 1

	progressInterval = 10 // Print progress every N%
	percentScale     = 100
)

// wavInputInfo holds validated input file information.
type wavInputInfo struct {
	file         *os.File
	decoder      *wav.Decoder
	rate         int
	channels     int
	totalSamples int64
	format       *audio.Format
}

// openWAVInput opens a 16-bit PCM WAV file and returns its format.
func openWAVInput(path string, verbose bool) (*wavInputInfo, error) {
	inputFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}

	decoder := wav.NewDecoder(inputFile)
	if !decoder.IsValidFile() {
		_ = inputFile.Close()
		return nil, fmt.Errorf("invalid WAV file: %s", path)
	}

	format := decoder.Format()
	bitDepth := int(decoder.BitDepth)
	if bitDepth != supportedBitDepth {
		_ = inputFile.Close()
		return nil, fmt.Errorf("unsupported bit depth %d: only 16-bit PCM is supported", bitDepth)
	}

	if verbose {
		log.Printf("Input format: %d Hz, %d channels, %d-bit", format.SampleRate, format.NumChannels, bitDepth)
	}

	// Duration is only used for progress reporting.
	duration, err := decoder.Duration()
	if err != nil {
		duration = 0
	}

	return &wavInputInfo{
		file:         inputFile,
		decoder:      decoder,
		rate:         format.SampleRate,
		channels:     format.NumChannels,
		totalSamples: int64(duration.Seconds() * float64(format.SampleRate)),
		format:       format,
	}, nil
}

// Close closes the input file.
func (w *wavInputInfo) Close() error {
	return w.file.Close()
}

// wavOutputWriter wraps the output file and its WAV encoder.
type wavOutputWriter struct {
	file    *os.File
	encoder *wav.Encoder
	format  *audio.Format
	ints    []int
}

// createWAVOutput creates a 16-bit PCM WAV file.
func createWAVOutput(path string, sampleRate, channels int) (*wavOutputWriter, error) {
	outputFile, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	return &wavOutputWriter{
		file:    outputFile,
		encoder: wav.NewEncoder(outputFile, sampleRate, supportedBitDepth, channels, wavFormatPCM),
		format:  &audio.Format{SampleRate: sampleRate, NumChannels: channels},
	}, nil
}

// WritePCM writes little-endian 16-bit samples and returns the number of
// samples written.
func (w *wavOutputWriter) WritePCM(pcm []byte) (int, error) {
	samples := tempo.Int16sFromLE(pcm)
	if len(samples) == 0 {
		return 0, nil
	}

	w.ints = w.ints[:0]
	for _, s := range samples {
		w.ints = append(w.ints, int(s))
	}
	buf := &audio.IntBuffer{
		Data:           w.ints,
		Format:         w.format,
		SourceBitDepth: supportedBitDepth,
	}
	if err := w.encoder.Write(buf); err != nil {
		return 0, fmt.Errorf("failed to write audio data: %w", err)
	}
	return len(samples), nil
}

// Close finalizes the WAV header and closes the file.
func (w *wavOutputWriter) Close() error {
	if err := w.encoder.Close(); err != nil {
		_ = w.file.Close()
		return err
	}
	return w.file.Close()
}

// progressTracker handles progress reporting.
type progressTracker struct {
	totalSamples int64
	lastProgress int
	verbose      bool
}

// newProgressTracker creates a new progress tracker.
func newProgressTracker(totalSamples int64, verbose bool) *progressTracker {
	return &progressTracker{
		totalSamples: totalSamples,
		verbose:      verbose,
	}
}

// reportIfNeeded reports progress if threshold crossed.
func (p *progressTracker) reportIfNeeded(currentSamples int64) {
	if !p.verbose || p.totalSamples == 0 {
		return
	}

	progress := int(float64(currentSamples) / float64(p.totalSamples) * percentScale)
	if progress >= p.lastProgress+progressInterval {
		log.Printf("Progress: %d%%", progress)
		p.lastProgress = progress
	}
}
