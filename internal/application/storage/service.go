package storage

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-socfony/internal/domain"
	s3infra "github.com/go-socfony/internal/infrastructure/s3"
	"github.com/go-socfony/internal/pkg/id"
	"github.com/go-socfony/internal/telemetry"
)

const (
	UploadURLExpiry   = 6 * time.Hour
	DownloadURLExpiry = 12 * time.Hour
)

type Service interface {
	// CreateUploadIntent reserves an object location and returns a PUT URL
	// bound to the given checksum, size and type.
	CreateUploadIntent(ctx context.Context, userID string, req domain.CreateUploadIntentRequest) (*domain.UploadIntent, error)
	// ResolveDownloadURL signs a GET for location. rawQuery is a
	// key=value&... string applied as both signed headers and query.
	ResolveDownloadURL(ctx context.Context, location, rawQuery string) (string, error)
	Get(ctx context.Context, storageID string) (*domain.StorageObject, error)
}

type objectSigner interface {
	SignURL(ctx context.Context, key string, opts s3infra.SignOptions) (string, error)
}

type storageStore interface {
	Create(ctx context.Context, s *domain.StorageObject) error
	Get(ctx context.Context, storageID string) (*domain.StorageObject, error)
}

type ServiceDeps struct {
	Signer      objectSigner
	StorageRepo storageStore
	Metrics     *telemetry.Metrics
	Now         func() time.Time
}

type service struct {
	signer  objectSigner
	repo    storageStore
	metrics *telemetry.Metrics
	now     func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		signer:  deps.Signer,
		repo:    deps.StorageRepo,
		metrics: deps.Metrics,
		now:     now,
	}
}

func (s *service) CreateUploadIntent(ctx context.Context, userID string, req domain.CreateUploadIntentRequest) (*domain.UploadIntent, error) {
	sum, err := hex.DecodeString(req.MD5)
	if err != nil || len(sum) != 16 {
		return nil, fmt.Errorf("md5 must be 32 hex characters: %w", domain.ErrBadRequest)
	}
	if req.Size < 0 {
		return nil, fmt.Errorf("size must not be negative: %w", domain.ErrBadRequest)
	}
	if req.MimeType == "" {
		return nil, fmt.Errorf("mime_type is required: %w", domain.ErrBadRequest)
	}

	meta, err := MetadataFor(req.MimeType)
	if err != nil {
		s.metrics.ObserveUploadIntent(string(domain.KindOf(err)))
		return nil, err
	}

	key, err := id.Long()
	if err != nil {
		return nil, err
	}
	location := fmt.Sprintf("%s/%s.%s", s.now().UTC().Format("2006/01/02"), key, meta.Extension)

	signed := url.Values{
		"Content-MD5":    {base64.StdEncoding.EncodeToString(sum)},
		"Content-Type":   {req.MimeType},
		"Content-Length": {strconv.FormatInt(req.Size, 10)},
	}
	headers := make(http.Header, len(signed))
	for k, vs := range signed {
		headers.Set(k, vs[0])
	}
	uploadURL, err := s.signer.SignURL(ctx, location, s3infra.SignOptions{
		Method:    http.MethodPut,
		Headers:   headers,
		ExpiresIn: UploadURLExpiry,
	})
	if err != nil {
		s.metrics.ObserveUploadIntent(string(domain.KindSigningFailure))
		return nil, domain.NewError(domain.KindSigningFailure, "failed to sign upload url", err)
	}

	storageID, err := id.Long()
	if err != nil {
		return nil, err
	}
	obj := &domain.StorageObject{
		StorageID:  storageID,
		Location:   location,
		IsUploaded: false,
		UserID:     userID,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.repo.Create(ctx, obj); err != nil {
		s.metrics.ObserveUploadIntent(string(domain.KindPersistenceFailure))
		slog.Warn("upload intent signed but not recorded", "location", location, "err", err)
		return nil, domain.NewError(domain.KindPersistenceFailure, "failed to record storage object", err)
	}

	s.metrics.ObserveUploadIntent("ok")
	return &domain.UploadIntent{
		ID:      storageID,
		URL:     uploadURL,
		Headers: signed.Encode(),
	}, nil
}

func (s *service) ResolveDownloadURL(ctx context.Context, location, rawQuery string) (string, error) {
	overrides, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "", fmt.Errorf("invalid query overrides: %w", domain.ErrBadRequest)
	}
	headers := make(http.Header, len(overrides))
	for k, vs := range overrides {
		for _, v := range vs {
			headers.Add(k, v)
		}
	}
	signedURL, err := s.signer.SignURL(ctx, location, s3infra.SignOptions{
		Method:    http.MethodGet,
		Headers:   headers,
		Query:     overrides,
		ExpiresIn: DownloadURLExpiry,
	})
	if err != nil {
		return "", domain.NewError(domain.KindSigningFailure, "failed to sign download url", err)
	}
	return signedURL, nil
}

func (s *service) Get(ctx context.Context, storageID string) (*domain.StorageObject, error) {
	return s.repo.Get(ctx, storageID)
}
