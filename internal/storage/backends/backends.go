package backends

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/carson-networks/ledger-server/internal/config"
	"github.com/carson-networks/ledger-server/internal/storage"
	"github.com/carson-networks/ledger-server/internal/storage/memory"
	"github.com/carson-networks/ledger-server/internal/storage/postgres"
)

// Open returns the backend named by env.Backend.
func Open(ctx context.Context, env *config.Config) (storage.Backend, error) {
	log := logrus.WithField("backend", env.Backend)

	switch env.Backend {
	case config.BackendPostgres:
		log.WithField("address", env.PostgresAddress).Info("Storage.Open")
		return postgres.Open(ctx, env)
	case config.BackendFile:
		log.WithField("dataFile", env.DataFile).Info("Storage.Open")
		return memory.Open(env.DataFile)
	case config.BackendMemory:
		log.Info("Storage.Open")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", env.Backend)
	}
}
