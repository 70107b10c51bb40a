package service

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"

	"github.com/windfall/spellcheck_service/internal/errors"
)

// Converter turns an arbitrary recording into 16 kHz mono 16-bit PCM WAV.
type Converter interface {
	// Normalize writes srcPath + ".wav" and returns that path.
	Normalize(ctx context.Context, srcPath string) (string, error)
}

// CommandRunner runs an external command and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// FFmpegConverter normalizes audio with the ffmpeg binary.
type FFmpegConverter struct {
	binary string
	run    CommandRunner
	log    zerolog.Logger
}

// NewFFmpegConverter creates a converter using the given ffmpeg binary.
func NewFFmpegConverter(binary string, log zerolog.Logger) *FFmpegConverter {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &FFmpegConverter{
		binary: binary,
		run:    execRunner,
		log:    log.With().Str("component", "converter").Logger(),
	}
}

// WithRunner replaces the command runner.
func (c *FFmpegConverter) WithRunner(run CommandRunner) *FFmpegConverter {
	c.run = run
	return c
}

// ffmpegArgs builds the argument list for converting src into out.
func ffmpegArgs(src, out string) []string {
	return []string{
		"-nostdin",
		"-y",
		"-i", src,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		"-f", "wav",
		out,
	}
}

// Normalize converts srcPath into a WAV file next to it.
func (c *FFmpegConverter) Normalize(ctx context.Context, srcPath string) (string, error) {
	out := srcPath + ".wav"

	output, err := c.run(ctx, c.binary, ffmpegArgs(srcPath, out)...)
	if err != nil {
		_ = os.Remove(out)
		c.log.Error().
			Err(err).
			Str("ffmpeg_output", string(output)).
			Msg("FFmpeg conversion failed")
		return "", errors.Wrap(errors.ErrConversion,
			fmt.Sprintf("ffmpeg failed: %s", strings.TrimSpace(string(output))), err)
	}

	return out, nil
}
