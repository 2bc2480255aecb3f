package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/redis/go-redis/v9"
)

// Options selects and configures a backend.
type Options struct {
	Backend       string // file, s3, gist, redis, sqlite or postgres
	Path          string
	S3Bucket      string
	S3Key         string
	S3Region      string
	S3Endpoint    string
	GistID        string
	GistToken     string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisKey      string
	SQLDSN        string
	SQLName       string
	EncryptionKey string
}

// Open builds the store described by opts.
func Open(ctx context.Context, opts Options) (*BlobStore, error) {
	backend, err := openBackend(ctx, opts)
	if err != nil {
		return nil, err
	}
	return New(NewEncryptedBackend(backend, opts.EncryptionKey)), nil
}

func openBackend(ctx context.Context, opts Options) (Backend, error) {
	switch opts.Backend {
	case "", "file":
		return NewFileBackend(opts.Path)
	case "s3":
		return NewS3BackendFromEnv(ctx, opts.S3Region, opts.S3Endpoint, opts.S3Bucket, opts.S3Key)
	case "gist":
		return NewGistBackend(opts.GistID, opts.GistToken)
	case "redis":
		if opts.RedisAddr == "" {
			return nil, fmt.Errorf("redis address is required")
		}
		client := redis.NewClient(&redis.Options{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		})
		return NewRedisBackend(client, opts.RedisKey), nil
	case string(DialectSQLite):
		dsn := opts.SQLDSN
		if dsn == "" {
			dsn = opts.Path
		}
		return OpenSQLBackend(ctx, DialectSQLite, dsn, opts.SQLName)
	case string(DialectPostgres):
		return OpenSQLBackend(ctx, DialectPostgres, opts.SQLDSN, opts.SQLName)
	}
	return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
}

// Close releases the backend's connections, if any.
func (s *BlobStore) Close() error {
	if c, ok := s.backend.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
