package services

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wenlng/go-captcha/v2/rotate"
)

// recordingStore remembers the last angle written so tests can answer correctly
type recordingStore struct {
	*MemoryStore
	lastAngle int
}

func (s *recordingStore) Put(ctx context.Context, id string, angle int, ttl time.Duration) error {
	s.lastAngle = angle
	return s.MemoryStore.Put(ctx, id, angle, ttl)
}

// answer finds a user angle the validator accepts (or rejects) for target
func answer(target int, accepted bool) float64 {
	for a := 0; a < 360; a++ {
		if rotate.Validate(a, target, 5) == accepted {
			return float64(a)
		}
	}
	return -1
}

func newTestCaptcha(t *testing.T) (CaptchaService, *recordingStore) {
	t.Helper()
	store := &recordingStore{MemoryStore: NewMemoryStore(time.Hour)}
	t.Cleanup(store.Close)

	svc, err := NewCaptchaServiceRotate(store, time.Minute, 5, 160, nil, zerolog.Nop())
	require.NoError(t, err)
	return svc, store
}

func TestCaptchaRotateRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestCaptcha(t)

	challenge, err := svc.GenerateRotate(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, challenge.ID)
	assert.NotEmpty(t, challenge.MasterImageBase64)
	assert.NotEmpty(t, challenge.ThumbImageBase64)

	correct := answer(store.lastAngle, true)
	require.GreaterOrEqual(t, correct, 0.0)
	assert.True(t, svc.VerifyRotate(ctx, challenge.ID, correct))
	assert.False(t, svc.VerifyRotate(ctx, challenge.ID, correct), "a challenge is single use")
}

func TestCaptchaRotateWrongAngleConsumesChallenge(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestCaptcha(t)

	challenge, err := svc.GenerateRotate(ctx)
	require.NoError(t, err)

	wrong := answer(store.lastAngle, false)
	require.GreaterOrEqual(t, wrong, 0.0)
	assert.False(t, svc.VerifyRotate(ctx, challenge.ID, wrong))
	assert.False(t, svc.VerifyRotate(ctx, challenge.ID, answer(store.lastAngle, true)))
}

func TestCaptchaUnknownChallenge(t *testing.T) {
	svc, _ := newTestCaptcha(t)
	assert.False(t, svc.VerifyRotate(context.Background(), "missing", 0))
}

func TestNewCaptchaServiceRequiresStore(t *testing.T) {
	_, err := NewCaptchaServiceRotate(nil, time.Minute, 5, 160, nil, zerolog.Nop())
	assert.Error(t, err)
}

func TestLoadCaptchaBackgroundsScales(t *testing.T) {
	dir := t.TempDir()
	src := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for x := 0; x < 40; x++ {
		src.Set(x, 5, color.RGBA{R: 255, A: 255})
	}
	f, err := os.Create(filepath.Join(dir, "bg.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, src))
	require.NoError(t, f.Close())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0o600))

	imgs, err := LoadCaptchaBackgrounds(dir, 64)
	require.NoError(t, err)
	require.Len(t, imgs, 1)
	assert.Equal(t, image.Rect(0, 0, 64, 64), imgs[0].Bounds())

	none, err := LoadCaptchaBackgrounds("", 64)
	assert.NoError(t, err)
	assert.Empty(t, none)
}
