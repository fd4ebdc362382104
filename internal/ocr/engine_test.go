// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ocr

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/faillink/pkg/types"
)

// fakeTesseract emulates the tesseract CLI: --version succeeds unless
// versionErr is set or ctx has ended, and recognition echoes the staged
// image bytes.
type fakeTesseract struct {
	versionErr error
	versions   atomic.Int32

	mu       sync.Mutex
	args     [][]string
	workDirs map[string]bool
}

func (f *fakeTesseract) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	if len(args) == 1 && args[0] == "--version" {
		f.versions.Add(1)
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		if f.versionErr != nil {
			return nil, []byte("not installed"), f.versionErr
		}
		return []byte("tesseract 5.3.0"), nil, nil
	}

	f.mu.Lock()
	f.args = append(f.args, append([]string{name}, args...))
	if f.workDirs == nil {
		f.workDirs = map[string]bool{}
	}
	f.workDirs[filepath.Dir(args[0])] = true
	f.mu.Unlock()

	img, err := os.ReadFile(args[0])
	if err != nil {
		return nil, nil, err
	}
	return []byte("ocr:" + string(img) + "\r\n\f"), nil, nil
}

func TestLocalEngine_RecognizeAndClose(t *testing.T) {
	fake := &fakeTesseract{}
	e := NewLocalEngine(types.OCRConfig{}, fake, nil)

	text, err := e.Recognize(context.Background(), types.RasterPage{Index: 2, Image: []byte("bilan")})
	require.NoError(t, err)
	assert.Equal(t, "ocr:bilan", text)

	require.Len(t, fake.args, 1)
	assert.Equal(t, "tesseract", fake.args[0][0])
	assert.Equal(t, []string{"stdout", "-l", "fra"}, fake.args[0][2:])
	assert.True(t, strings.HasPrefix(filepath.Base(fake.args[0][1]), "page-2-"))

	_, err = os.Stat(fake.args[0][1])
	assert.True(t, os.IsNotExist(err), "staged image should be removed after recognition")

	require.Len(t, fake.workDirs, 1)
	var workDir string
	for d := range fake.workDirs {
		workDir = d
	}
	require.NoError(t, e.Close())
	_, err = os.Stat(workDir)
	assert.True(t, os.IsNotExist(err), "work directory should be removed on Close")

	_, err = e.Recognize(context.Background(), types.RasterPage{Index: 1})
	assert.ErrorIs(t, err, ErrClosed)
	assert.NoError(t, e.Close(), "second Close is a no-op")
}

func TestLocalEngine_StartsOnceUnderConcurrency(t *testing.T) {
	fake := &fakeTesseract{}
	e := NewLocalEngine(types.OCRConfig{Language: "nld"}, fake, nil)
	defer e.Close()

	res, err := Recognize(context.Background(), e, makePages(10), 4)
	require.NoError(t, err)
	assert.Len(t, res.PerPageText, 10)
	assert.Equal(t, int32(1), fake.versions.Load())
	for _, a := range fake.args {
		assert.Equal(t, "nld", a[len(a)-1])
	}
}

func TestLocalEngine_StartFailureIsSticky(t *testing.T) {
	fake := &fakeTesseract{versionErr: errors.New("exec: not found")}
	e := NewLocalEngine(types.OCRConfig{Tesseract: "/opt/tess"}, fake, nil)

	_, err := e.Recognize(context.Background(), types.RasterPage{Index: 1})
	require.ErrorIs(t, err, ErrEngineUnavailable)
	assert.Contains(t, err.Error(), "/opt/tess unavailable")

	_, err = e.Recognize(context.Background(), types.RasterPage{Index: 2})
	require.ErrorIs(t, err, ErrEngineUnavailable)
	assert.Equal(t, int32(1), fake.versions.Load())
	assert.NoError(t, e.Close())
}

func TestLocalEngine_StartRetriedAfterCancelledContext(t *testing.T) {
	fake := &fakeTesseract{}
	e := NewLocalEngine(types.OCRConfig{}, fake, nil)
	defer e.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Recognize(ctx, types.RasterPage{Index: 1, Image: []byte("a")})
	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrEngineUnavailable)

	text, err := e.Recognize(context.Background(), types.RasterPage{Index: 1, Image: []byte("actif")})
	require.NoError(t, err)
	assert.Equal(t, "ocr:actif", text)
	assert.Equal(t, int32(2), fake.versions.Load())
}

func TestRecognize_EngineThatCannotStartFailsTheBatch(t *testing.T) {
	fake := &fakeTesseract{versionErr: errors.New("exec: not found")}
	e := NewLocalEngine(types.OCRConfig{}, fake, nil)
	defer e.Close()

	res, err := Recognize(context.Background(), e, makePages(3), 2)
	require.ErrorIs(t, err, ErrEngineUnavailable)
	var partial *PartialRecognitionError
	assert.False(t, errors.As(err, &partial))
	assert.Empty(t, res.PerPageText)
	assert.Empty(t, res.Failures)
}

func TestCloseBeforeUse(t *testing.T) {
	fake := &fakeTesseract{}
	e := NewLocalEngine(types.OCRConfig{}, fake, nil)
	require.NoError(t, e.Close())
	assert.Equal(t, int32(0), fake.versions.Load())
}

// fakeRuntime is a container.Runtime double.
type fakeRuntime struct {
	imageErr error
	image    string
	args     []string
}

func (f *fakeRuntime) Name() string { return "podman" }

func (f *fakeRuntime) EnsureImage(_ context.Context, image string) error {
	f.image = image
	return f.imageErr
}

func (f *fakeRuntime) Run(_ context.Context, image string, args []string, stdin io.Reader, stdout io.Writer) error {
	f.args = args
	data, _ := io.ReadAll(stdin)
	_, _ = stdout.Write(append([]byte("ctr:"), bytes.ToUpper(data)...))
	return nil
}

func TestContainerEngine(t *testing.T) {
	rt := &fakeRuntime{}
	e := NewContainerEngine(types.OCRConfig{}, rt, nil)
	defer e.Close()

	text, err := e.Recognize(context.Background(), types.RasterPage{Index: 1, Image: []byte("actif")})
	require.NoError(t, err)
	assert.Equal(t, "ctr:ACTIF", text)
	assert.Equal(t, DefaultImage, rt.image)
	assert.Equal(t, []string{"stdin", "stdout", "-l", "fra"}, rt.args)
}

func TestContainerEngine_MissingImage(t *testing.T) {
	rt := &fakeRuntime{imageErr: errors.New("image not found")}
	e := NewContainerEngine(types.OCRConfig{Image: "tess:dev"}, rt, nil)

	_, err := e.Recognize(context.Background(), types.RasterPage{Index: 1})
	require.ErrorIs(t, err, ErrEngineUnavailable)
	assert.Contains(t, err.Error(), "podman:tess:dev")
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "a\nb", cleanText("a\r\nb\r\n\n\f"))
	assert.Equal(t, "", cleanText("\f"))
}
