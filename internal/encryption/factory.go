package encryption

import (
	"fmt"

	"postify/internal/config"
	"postify/internal/postify"
)

// NewEncryptorFromConfig creates the Encryptor selected by the configuration
// type. Type "none" returns nil, which stores the session in plaintext.
// An age encryptor has its key pair generated on first use.
func NewEncryptorFromConfig(cfg config.EncryptionConfig) (postify.Encryptor, error) {
	switch cfg.Type {
	case "age", "":
		e := NewAgeEncryptor(cfg)
		if err := e.EnsureKeys(); err != nil {
			return nil, fmt.Errorf("preparing age keys: %w", err)
		}
		return e, nil
	case "test":
		return NewTestEncryptor(), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Type)
	}
}
