package media

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/okelo-dev/sokowear-backend/internal/products"
	pkgerrors "github.com/okelo-dev/sokowear-backend/pkg/errors"
)

type gcsClient interface {
	SignedURL(bucket, object, contentType string, expires time.Duration) (string, error)
	PublicURL(bucket, object string) string
}

type productUpdater interface {
	SetImageURL(ctx context.Context, productID uuid.UUID, imageURL string) (*products.ProductDTO, error)
}

// Service exposes the product image upload flow: presign a PUT URL, then
// attach the uploaded object to the product once the client finishes.
type Service interface {
	PresignProductImage(ctx context.Context, productID uuid.UUID, input PresignInput) (*PresignOutput, error)
	AttachProductImage(ctx context.Context, productID uuid.UUID, gcsKey string) (string, error)
}

type service struct {
	gcs            gcsClient
	products       productUpdater
	bucket         string
	uploadTTL      time.Duration
	maxUploadBytes int64
}

// NewService constructs a media service backed by the provided GCS signer.
func NewService(gcs gcsClient, products productUpdater, bucket string, uploadTTL time.Duration, maxUploadMB int) (Service, error) {
	if gcs == nil {
		return nil, fmt.Errorf("gcs client required")
	}
	if products == nil {
		return nil, fmt.Errorf("products service required")
	}
	if bucket == "" {
		return nil, fmt.Errorf("gcs bucket required")
	}
	if uploadTTL <= 0 {
		return nil, fmt.Errorf("upload ttl must be positive")
	}
	if maxUploadMB <= 0 {
		return nil, fmt.Errorf("max upload size must be positive")
	}
	return &service{
		gcs:            gcs,
		products:       products,
		bucket:         bucket,
		uploadTTL:      uploadTTL,
		maxUploadBytes: int64(maxUploadMB) * 1024 * 1024,
	}, nil
}

// PresignInput models the payload required to request an upload URL.
type PresignInput struct {
	MimeType  string
	FileName  string
	SizeBytes int64
}

// PresignOutput contains the signed PUT URL handed back to the admin client.
type PresignOutput struct {
	GCSKey       string    `json:"gcs_key"`
	SignedPUTURL string    `json:"signed_put_url"`
	ContentType  string    `json:"content_type"`
	ExpiresAt    time.Time `json:"expires_at"`
}

var allowedImageMimes = []string{"image/png", "image/jpeg", "image/webp", "image/gif"}

func (s *service) PresignProductImage(ctx context.Context, productID uuid.UUID, input PresignInput) (*PresignOutput, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}

	fileName := strings.TrimSpace(input.FileName)
	if fileName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file_name is required")
	}

	if input.SizeBytes <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "size_bytes must be positive")
	}
	if input.SizeBytes > s.maxUploadBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("size_bytes must be ≤ %d bytes", s.maxUploadBytes))
	}

	mimeType := strings.TrimSpace(input.MimeType)
	if mimeType == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mime_type is required")
	}
	if !isAllowedMime(mimeType) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mime_type not allowed for product images")
	}

	gcsKey := buildGCSKey(productID, fileName)

	expiresAt := time.Now().Add(s.uploadTTL)
	signedURL, err := s.gcs.SignedURL(s.bucket, gcsKey, mimeType, s.uploadTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign upload url")
	}

	return &PresignOutput{
		GCSKey:       gcsKey,
		SignedPUTURL: signedURL,
		ContentType:  mimeType,
		ExpiresAt:    expiresAt,
	}, nil
}

// AttachProductImage points the product at the uploaded object and returns
// the public URL stored on the row.
func (s *service) AttachProductImage(ctx context.Context, productID uuid.UUID, gcsKey string) (string, error) {
	if productID == uuid.Nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	key := strings.TrimSpace(gcsKey)
	if key == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "gcs_key is required")
	}
	expectedPrefix := fmt.Sprintf("products/%s/", productID)
	if !strings.HasPrefix(key, expectedPrefix) {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "gcs_key does not belong to this product")
	}

	publicURL := s.gcs.PublicURL(s.bucket, key)
	if _, err := s.products.SetImageURL(ctx, productID, publicURL); err != nil {
		return "", err
	}
	return publicURL, nil
}

func isAllowedMime(mimeType string) bool {
	for _, candidate := range allowedImageMimes {
		if strings.EqualFold(candidate, mimeType) {
			return true
		}
	}
	return false
}

func buildGCSKey(productID uuid.UUID, fileName string) string {
	cleanName := sanitizeFileName(fileName)
	if cleanName == "" {
		cleanName = uuid.NewString()
	}
	return fmt.Sprintf("products/%s/%s", productID.String(), cleanName)
}

func sanitizeFileName(name string) string {
	if name == "" {
		return ""
	}
	clean := path.Base(strings.TrimSpace(name))
	if clean == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(clean))
	for _, r := range clean {
		switch {
		case r == '/' || r == '\\' || unicode.IsControl(r):
			continue
		case unicode.IsSpace(r):
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-_.")
}
