package services

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/hkdf"
)

// sessionKeyInfo binds the derived keys to their purpose so the same secret
// can never double as key material for anything else.
const sessionKeyInfo = "azuread-login/session-cookie-key"

// SessionKeyService derives the session cookie encryption keys from the
// configured secrets. Secrets are listed newest first; each one is stretched
// to a 32 byte key with HKDF-SHA256, so rotation works the same way
// regardless of secret length.
type SessionKeyService struct {
	secrets  []string
	onceFunc func() ([][]byte, error)
}

// NewSessionKeyService creates a new session key service
func NewSessionKeyService(secrets []string) *SessionKeyService {
	s := &SessionKeyService{
		secrets: secrets,
	}

	// Derivation is deterministic, so a single pass per process is enough;
	// every caller shares the result.
	s.onceFunc = sync.OnceValues(func() ([][]byte, error) {
		return s.deriveSessionKeys(context.Background())
	})

	return s
}

// GetSessionKeys returns the derived session keys, newest first.
func (s *SessionKeyService) GetSessionKeys(ctx context.Context) ([][]byte, error) {
	return s.onceFunc()
}

func (s *SessionKeyService) deriveSessionKeys(ctx context.Context) ([][]byte, error) {
	logger := zerolog.Ctx(ctx)

	if len(s.secrets) == 0 {
		return nil, fmt.Errorf("no session secrets configured")
	}

	keys := make([][]byte, 0, len(s.secrets))
	for i, secret := range s.secrets {
		if strings.TrimSpace(secret) == "" {
			logger.Warn().
				Int("index", i).
				Msg("Empty session secret, skipping")
			continue
		}

		key := make([]byte, 32)
		reader := hkdf.New(sha256.New, []byte(secret), nil, []byte(sessionKeyInfo))
		if _, err := io.ReadFull(reader, key); err != nil {
			return nil, fmt.Errorf("failed to derive session key %d: %w", i, err)
		}

		keys = append(keys, key)
	}

	if len(keys) == 0 {
		return nil, fmt.Errorf("no usable session secrets configured")
	}

	logger.Info().Int("key_count", len(keys)).Msg("Derived session keys")

	return keys, nil
}
