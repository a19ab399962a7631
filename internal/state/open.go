package state

import (
	"context"
	"fmt"
)

// Backend kinds accepted by Open.
const (
	KindFile     = "file"
	KindRedis    = "redis"
	KindPostgres = "postgres"
	KindMemory   = "memory"
)

// Options selects and configures a backend.
type Options struct {
	Kind            string
	Dir             string
	Redis           RedisOptions
	PostgresDSN     string
	CompressArchive bool
}

// Open builds a Store on the backend named by opts.Kind.
func Open(ctx context.Context, opts Options) (*Store, error) {
	var (
		b   Backend
		err error
	)
	switch opts.Kind {
	case KindFile, "":
		b, err = NewFileBackend(opts.Dir)
	case KindRedis:
		b, err = NewRedisBackend(ctx, opts.Redis)
	case KindPostgres:
		b, err = NewPostgresBackend(ctx, opts.PostgresDSN)
	case KindMemory:
		b = NewMemoryBackend()
	default:
		return nil, fmt.Errorf("unknown state backend %q", opts.Kind)
	}
	if err != nil {
		return nil, err
	}

	var storeOpts []StoreOption
	if opts.CompressArchive {
		storeOpts = append(storeOpts, WithCompressedArchive())
	}
	return NewStore(b, storeOpts...), nil
}
