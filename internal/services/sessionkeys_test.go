package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionKeyService(t *testing.T) {
	ctx := context.Background()

	t.Run("derives one 32 byte key per secret", func(t *testing.T) {
		svc := NewSessionKeyService([]string{"newest-secret", "older-secret"})

		keys, err := svc.GetSessionKeys(ctx)
		assert.NoError(t, err)
		assert.Len(t, keys, 2)
		for _, key := range keys {
			assert.Len(t, key, 32)
		}
		assert.NotEqual(t, keys[0], keys[1])
	})

	t.Run("derivation is deterministic", func(t *testing.T) {
		first, err := NewSessionKeyService([]string{"secret"}).GetSessionKeys(ctx)
		assert.NoError(t, err)
		second, err := NewSessionKeyService([]string{"secret"}).GetSessionKeys(ctx)
		assert.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("derives once per service", func(t *testing.T) {
		svc := NewSessionKeyService([]string{"secret"})
		first, err := svc.GetSessionKeys(ctx)
		assert.NoError(t, err)
		second, err := svc.GetSessionKeys(ctx)
		assert.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("skips blank secrets", func(t *testing.T) {
		svc := NewSessionKeyService([]string{"  ", "real-secret"})
		keys, err := svc.GetSessionKeys(ctx)
		assert.NoError(t, err)
		assert.Len(t, keys, 1)
	})

	t.Run("fails with no secrets", func(t *testing.T) {
		_, err := NewSessionKeyService(nil).GetSessionKeys(ctx)
		assert.Error(t, err)
	})

	t.Run("fails with only blank secrets", func(t *testing.T) {
		_, err := NewSessionKeyService([]string{"", "   "}).GetSessionKeys(ctx)
		assert.Error(t, err)
	})
}
