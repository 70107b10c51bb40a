// Package app wires configuration into stores and services shared by the binaries.
package app

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/windfall/spellcheck_service/internal/client"
	"github.com/windfall/spellcheck_service/internal/config"
	"github.com/windfall/spellcheck_service/internal/errors"
	"github.com/windfall/spellcheck_service/internal/repository"
	"github.com/windfall/spellcheck_service/internal/service"
)

// Stores holds the repositories selected by STORAGE_DRIVER.
type Stores struct {
	Spells   repository.SpellRepository
	Audio    repository.AudioRepository
	Users    repository.UserRepository
	Postgres *client.PostgresClient
}

// Close releases the database pool, if any.
func (s *Stores) Close() {
	if s.Postgres != nil {
		s.Postgres.Close()
	}
}

// OpenStores connects the metadata repositories.
func OpenStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Stores, error) {
	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		log.Warn().Msg("Using in-memory storage, data is lost on restart")
		return &Stores{
			Spells: repository.NewMemorySpellRepository(),
			Audio:  repository.NewMemoryAudioRepository(),
			Users:  repository.NewMemoryUserRepository(),
		}, nil
	case config.StorageDriverPostgres:
		pg, err := client.NewPostgresClient(ctx, cfg.DatabaseURL, cfg.DatabaseName, cfg.DatabaseMaxConns)
		if err != nil {
			return nil, err
		}
		log.Info().Msg("Postgres client initialized")
		return &Stores{
			Spells:   repository.NewPostgresSpellRepository(pg.Pool),
			Audio:    repository.NewPostgresAudioRepository(pg.Pool),
			Users:    repository.NewPostgresUserRepository(pg.Pool),
			Postgres: pg,
		}, nil
	default:
		return nil, errors.Configuration("unknown STORAGE_DRIVER " + cfg.StorageDriver)
	}
}

// BlobStore is a service.BlobStore with an optional Close.
type BlobStore struct {
	service.BlobStore
	close func()
}

// Close releases the blob client, if it holds resources.
func (b *BlobStore) Close() {
	if b.close != nil {
		b.close()
	}
}

// OpenBlobStore connects the backend selected by BLOB_BACKEND.
func OpenBlobStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*BlobStore, error) {
	switch cfg.BlobBackend {
	case config.BlobBackendMemory:
		log.Warn().Msg("Using in-memory blob store, audio is lost on restart")
		return &BlobStore{BlobStore: client.NewMemoryBlobStore()}, nil
	case config.BlobBackendR2:
		r2, err := client.NewCloudflareClient(ctx,
			cfg.CloudflareAccessKeyID,
			cfg.CloudflareSecretKey,
			cfg.CloudflareR2Endpoint,
			cfg.CloudflareBucketName,
		)
		if err != nil {
			return nil, err
		}
		log.Info().Str("bucket", cfg.CloudflareBucketName).Msg("Cloudflare R2 client initialized")
		return &BlobStore{BlobStore: r2}, nil
	case config.BlobBackendGCS:
		gcs, err := client.NewStorageClient(ctx, cfg.GCSBucketName, cfg.GCSCredentialsFile)
		if err != nil {
			return nil, err
		}
		log.Info().Str("bucket", cfg.GCSBucketName).Msg("GCS client initialized")
		return &BlobStore{BlobStore: gcs, close: gcs.Close}, nil
	default:
		return nil, errors.Configuration("unknown BLOB_BACKEND " + cfg.BlobBackend)
	}
}

// NewLocalAssessor builds the in-process assessment pipeline. The returned
// cleanup closes the optional event publisher.
func NewLocalAssessor(ctx context.Context, cfg *config.Config, log zerolog.Logger, store *service.AudioStore) (*service.AssessmentService, func(), error) {
	if err := cfg.ValidateSpeech(); err != nil {
		return nil, nil, err
	}

	speech, err := client.NewAzureSpeechClient(cfg.AzureAISpeechKey, cfg.AzureServiceRegion,
		client.WithSpeechEndpoint(cfg.AzureSpeechEndpoint),
		client.WithSpeechLanguage(cfg.SpeechLanguage),
	)
	if err != nil {
		return nil, nil, err
	}

	assessor := service.NewAssessmentService(
		store,
		service.NewFFmpegConverter(cfg.FFmpegPath, log),
		service.NewSpeechScorer(speech, log),
		cfg.AudioTempDir,
		log,
	)

	cleanup := func() {}
	if cfg.PubSubProjectID != "" && cfg.PubSubTopic != "" {
		ps, err := client.NewPubSubClient(ctx, cfg.PubSubProjectID, cfg.PubSubTopic)
		if err != nil {
			log.Error().Err(err).Msg("Failed to initialize Pub/Sub client, attempt events disabled")
		} else {
			log.Info().Str("topic", cfg.PubSubTopic).Msg("Pub/Sub client initialized")
			assessor.WithEvents(ps)
			cleanup = ps.Close
		}
	}

	return assessor, cleanup, nil
}
