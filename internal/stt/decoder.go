package stt

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/swarsmriti/voice-core/internal/config"
	"github.com/swarsmriti/voice-core/internal/fault"
)

const pcmFormat = 1

// Decoder transcribes canonical WAV files against the shared recognition
// engine. Format preconditions are enforced before any engine work: the
// input must be mono, 16-bit, uncompressed PCM.
type Decoder struct {
	engines    EngineProvider
	frameBlock int
	logger     *slog.Logger
}

func NewDecoder(cfg config.STTConfig, engines EngineProvider, logger *slog.Logger) *Decoder {
	return &Decoder{
		engines:    engines,
		frameBlock: cfg.FrameBlock,
		logger:     logger.With(slog.String("component", "stt-decoder")),
	}
}

// Decode consumes the whole file in one call, feeding fixed-size frame
// blocks to a fresh recognizer stream and appending each finalized partial
// in playback order. The trailing flush result is appended last; the
// transcript is the trimmed space-joined concatenation.
func (d *Decoder) Decode(ctx context.Context, wavPath string) (string, error) {
	f, err := os.Open(wavPath)
	if err != nil {
		return "", fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return "", fault.New(fault.KindInvalidAudio, "decode", "not a readable WAV file")
	}
	if decoder.NumChans != 1 || decoder.BitDepth != 16 || decoder.WavAudioFormat != pcmFormat {
		return "", fault.New(fault.KindInvalidAudio, "decode",
			fmt.Sprintf("audio must be mono 16-bit PCM, got channels=%d bits=%d format=%d",
				decoder.NumChans, decoder.BitDepth, decoder.WavAudioFormat))
	}
	sampleRate := int(decoder.SampleRate)

	engine, err := d.engines.Engine(ctx)
	if err != nil {
		return "", err
	}
	stream, err := engine.NewStream(sampleRate)
	if err != nil {
		return "", err
	}
	defer stream.Close()

	var pieces []string
	buf := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:   make([]int, d.frameBlock),
	}
	pcm := make([]byte, 2*d.frameBlock)
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		n, err := decoder.PCMBuffer(buf)
		if err != nil {
			return "", fmt.Errorf("read audio frames: %w", err)
		}
		if n == 0 {
			break
		}
		for i := 0; i < n; i++ {
			binary.LittleEndian.PutUint16(pcm[2*i:], uint16(int16(buf.Data[i])))
		}
		text, final, err := stream.Feed(pcm[:2*n])
		if err != nil {
			return "", fmt.Errorf("feed recognizer: %w", err)
		}
		if final && text != "" {
			pieces = append(pieces, text)
		}
	}

	tail, err := stream.Flush()
	if err != nil {
		return "", fmt.Errorf("finalize recognizer: %w", err)
	}
	if tail != "" {
		pieces = append(pieces, tail)
	}

	transcript := strings.TrimSpace(strings.Join(pieces, " "))
	d.logger.Debug("decoded audio",
		slog.String("path", wavPath),
		slog.Int("transcript_chars", len(transcript)))
	return transcript, nil
}
