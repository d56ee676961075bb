package testing

import (
	"errors"
	"sync"
	gotesting "testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuardPanic(t *gotesting.T) {
	t.Run("PanicBecomesError", func(t *gotesting.T) {
		u, err := guardPanic(func() (string, error) {
			panic("rootless Docker not found")
		})
		require.Error(t, err)
		assert.Empty(t, u)
		assert.Contains(t, err.Error(), "rootless Docker not found")
	})

	t.Run("PassesThrough", func(t *gotesting.T) {
		u, err := guardPanic(func() (string, error) {
			return "postgres://localhost/postgres", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "postgres://localhost/postgres", u)

		_, err = guardPanic(func() (string, error) {
			return "", errors.New("boom")
		})
		assert.EqualError(t, err, "boom")
	})
}

func TestSetupTestDBSkipsWithoutServer(t *gotesting.T) {
	serverOnce.Do(func() {})
	serverURL, serverErr = "", errors.New("no docker provider")
	t.Cleanup(func() {
		serverOnce = sync.Once{}
		serverURL, serverErr = "", nil
	})

	var skipped bool
	t.Run("Skipped", func(t *gotesting.T) {
		defer func() { skipped = t.Skipped() }()
		SetupTestDB(t)
		t.Error("SetupTestDB returned without a server")
	})
	assert.True(t, skipped)
}
