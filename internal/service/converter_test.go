package service

import (
	"context"
	stderrors "errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windfall/spellcheck_service/internal/errors"
	"github.com/windfall/spellcheck_service/internal/logger"
)

func TestFFmpegConverter_Args(t *testing.T) {
	var gotName string
	var gotArgs []string
	c := NewFFmpegConverter("/usr/bin/ffmpeg", logger.NewNop()).
		WithRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
			gotName, gotArgs = name, args
			return nil, nil
		})

	out, err := c.Normalize(context.Background(), "/tmp/abc_input.webm")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/abc_input.webm.wav", out)
	assert.Equal(t, "/usr/bin/ffmpeg", gotName)
	assert.Equal(t, []string{
		"-nostdin", "-y", "-i", "/tmp/abc_input.webm", "-vn",
		"-acodec", "pcm_s16le", "-ar", "16000", "-ac", "1", "-f", "wav",
		"/tmp/abc_input.webm.wav",
	}, gotArgs)
}

func TestFFmpegConverter_Failure(t *testing.T) {
	c := NewFFmpegConverter("", logger.NewNop()).
		WithRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return []byte("Invalid data found when processing input\n"), stderrors.New("exit status 1")
		})

	_, err := c.Normalize(context.Background(), "/tmp/x")
	require.Error(t, err)
	assert.Equal(t, errors.ErrConversion, errors.CodeOf(err))
	assert.Contains(t, err.Error(), "Invalid data found")
}

func TestFFmpegConverter_RealBinary(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}

	src := filepath.Join(t.TempDir(), "garbage_input.webm")
	require.NoError(t, os.WriteFile(src, []byte("definitely not audio"), 0o600))

	_, err := NewFFmpegConverter("ffmpeg", logger.NewNop()).Normalize(context.Background(), src)
	assert.Equal(t, errors.ErrConversion, errors.CodeOf(err))
}

func TestFFmpegConverter_FailureRemovesPartialOutput(t *testing.T) {
	src := filepath.Join(t.TempDir(), "take_input.webm")
	require.NoError(t, os.WriteFile(src, []byte("webm"), 0o600))

	c := NewFFmpegConverter("ffmpeg", logger.NewNop()).
		WithRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
			require.NoError(t, os.WriteFile(args[len(args)-1], []byte("RIFF"), 0o600))
			return []byte("Error while decoding stream\n"), stderrors.New("exit status 1")
		})

	_, err := c.Normalize(context.Background(), src)
	require.Error(t, err)
	assert.NoFileExists(t, src+".wav")
}
