package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/pfrederiksen/worldcup-events/internal/crypto"
)

// EncryptedBackend encrypts data before it reaches the wrapped backend.
// Sealed data is stored base64 encoded so text-only backends such as Gist
// can hold it. A plaintext JSON snapshot written before encryption was
// enabled is still readable.
type EncryptedBackend struct {
	next      Backend
	encryptor *crypto.Encryptor
}

// NewEncryptedBackend wraps next. An empty passphrase returns next as is.
func NewEncryptedBackend(next Backend, passphrase string) Backend {
	enc := crypto.NewEncryptor(passphrase)
	if enc == nil {
		return next
	}
	return &EncryptedBackend{next: next, encryptor: enc}
}

func (e *EncryptedBackend) String() string {
	return "encrypted+" + e.next.String()
}

// Read decrypts the wrapped backend's data.
func (e *EncryptedBackend) Read(ctx context.Context) ([]byte, error) {
	data, err := e.next.Read(ctx)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if bytes.HasPrefix(data, []byte("{")) {
		return data, nil
	}

	sealed := make([]byte, base64.StdEncoding.DecodedLen(len(data)))
	n, err := base64.StdEncoding.Decode(sealed, data)
	if err != nil {
		return nil, fmt.Errorf("decoding encrypted snapshot: %w", err)
	}

	plain, err := e.encryptor.Open(sealed[:n])
	if err != nil {
		return nil, fmt.Errorf("decrypting snapshot: %w", err)
	}
	return plain, nil
}

// Write encrypts data for the wrapped backend.
func (e *EncryptedBackend) Write(ctx context.Context, data []byte) error {
	sealed, err := e.encryptor.Seal(data)
	if err != nil {
		return fmt.Errorf("encrypting snapshot: %w", err)
	}
	encoded := make([]byte, base64.StdEncoding.EncodedLen(len(sealed)))
	base64.StdEncoding.Encode(encoded, sealed)
	return e.next.Write(ctx, encoded)
}

// Close closes the wrapped backend when it holds resources.
func (e *EncryptedBackend) Close() error {
	if c, ok := e.next.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
