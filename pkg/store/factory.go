package store

import (
	"fmt"

	"modelctl/pkg/config"
	"modelctl/pkg/constants"
	"modelctl/pkg/interfaces"
	"modelctl/pkg/store/file"
	"modelctl/pkg/store/httpstore"
	"modelctl/pkg/store/journal"
	"modelctl/pkg/store/memory"
	"modelctl/pkg/store/redis"
)

// CloseFunc releases a store's connections
type CloseFunc func() error

func noopClose() error { return nil }

// CreateStatusReader creates the supervisor-side status reader for the configured backend
func CreateStatusReader(cfg *config.Config) (interfaces.StatusReader, CloseFunc, error) {
	switch cfg.Status.Backend {
	case constants.StatusBackendFile, "":
		return file.NewStatusStore(cfg.Status.Path), noopClose, nil
	case constants.StatusBackendRedis:
		client, err := redis.NewRedisClient(cfg.Status.Redis)
		if err != nil {
			return nil, nil, err
		}
		return redis.NewStatusRepository(client, cfg.Status.Redis.Key, 0), client.Close, nil
	case constants.StatusBackendHTTP:
		if cfg.Status.HTTP.URL == "" {
			return nil, nil, fmt.Errorf("status.http.url is required for the http backend")
		}
		return httpstore.NewStatusClient(cfg.Status.HTTP.URL, cfg.Status.HTTP.Token, cfg.Status.HTTP.Timeout), noopClose, nil
	default:
		return nil, nil, fmt.Errorf("unsupported status backend: %s", cfg.Status.Backend)
	}
}

// CreateStatusWriter creates the worker-side writer for the configured backend.
// The http backend keeps the record in memory; the caller serves it over HTTP.
func CreateStatusWriter(cfg *config.Config) (interfaces.StatusWriter, CloseFunc, error) {
	switch cfg.Status.Backend {
	case constants.StatusBackendFile, "":
		return file.NewStatusStore(cfg.Status.Path), noopClose, nil
	case constants.StatusBackendRedis:
		client, err := redis.NewRedisClient(cfg.Status.Redis)
		if err != nil {
			return nil, nil, err
		}
		// a dead worker's record expires on its own
		ttl := 4 * cfg.Status.StalenessThreshold
		return redis.NewStatusRepository(client, cfg.Status.Redis.Key, ttl), client.Close, nil
	case constants.StatusBackendHTTP:
		return memory.NewStatusStore(), noopClose, nil
	default:
		return nil, nil, fmt.Errorf("unsupported status backend: %s", cfg.Status.Backend)
	}
}

// CreateJournal opens the lifecycle journal; returns a nil recorder when disabled
func CreateJournal(cfg *config.Config) (interfaces.EventRecorder, CloseFunc, error) {
	if cfg.Journal.Driver == "" {
		return nil, noopClose, nil
	}
	ds, err := journal.NewDatastore(cfg.Journal.Driver, cfg.Journal.DSN)
	if err != nil {
		return nil, nil, err
	}
	return journal.NewEventRepository(ds), ds.Close, nil
}
