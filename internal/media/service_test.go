package media

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/okelo-dev/sokowear-backend/internal/products"
	pkgerrors "github.com/okelo-dev/sokowear-backend/pkg/errors"
)

type stubGCS struct {
	signedURL  string
	signErr    error
	lastObject string
	lastMime   string
}

func (s *stubGCS) SignedURL(bucket, object, contentType string, expires time.Duration) (string, error) {
	if s.signErr != nil {
		return "", s.signErr
	}
	s.lastObject = object
	s.lastMime = contentType
	return s.signedURL, nil
}

func (s *stubGCS) PublicURL(bucket, object string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, object)
}

type stubProducts struct {
	lastID  uuid.UUID
	lastURL string
	err     error
}

func (s *stubProducts) SetImageURL(ctx context.Context, productID uuid.UUID, imageURL string) (*products.ProductDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.lastID = productID
	s.lastURL = imageURL
	return &products.ProductDTO{ID: productID, ImageURL: &imageURL}, nil
}

func newMediaService(t *testing.T, gcs *stubGCS, products *stubProducts) Service {
	t.Helper()
	svc, err := NewService(gcs, products, "sokowear-assets", 15*time.Minute, 10)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestPresignProductImage(t *testing.T) {
	gcs := &stubGCS{signedURL: "https://signed.example.com/put"}
	svc := newMediaService(t, gcs, &stubProducts{})
	productID := uuid.New()

	out, err := svc.PresignProductImage(context.Background(), productID, PresignInput{
		MimeType:  "image/png",
		FileName:  "Front View.png",
		SizeBytes: 1024,
	})
	if err != nil {
		t.Fatalf("presign: %v", err)
	}

	wantPrefix := fmt.Sprintf("products/%s/", productID)
	if !strings.HasPrefix(out.GCSKey, wantPrefix) {
		t.Errorf("key %q missing product prefix", out.GCSKey)
	}
	if strings.Contains(out.GCSKey, " ") {
		t.Errorf("key %q should not contain spaces", out.GCSKey)
	}
	if out.SignedPUTURL != "https://signed.example.com/put" {
		t.Errorf("unexpected signed url %q", out.SignedPUTURL)
	}
	if gcs.lastMime != "image/png" {
		t.Errorf("signer saw mime %q", gcs.lastMime)
	}
	if out.ExpiresAt.Before(time.Now()) {
		t.Error("expiry should be in the future")
	}
}

func TestPresignProductImageValidation(t *testing.T) {
	svc := newMediaService(t, &stubGCS{signedURL: "u"}, &stubProducts{})
	productID := uuid.New()

	tests := []struct {
		name  string
		id    uuid.UUID
		input PresignInput
	}{
		{"nil product", uuid.Nil, PresignInput{MimeType: "image/png", FileName: "a.png", SizeBytes: 1}},
		{"blank file name", productID, PresignInput{MimeType: "image/png", FileName: "  ", SizeBytes: 1}},
		{"zero size", productID, PresignInput{MimeType: "image/png", FileName: "a.png"}},
		{"oversized", productID, PresignInput{MimeType: "image/png", FileName: "a.png", SizeBytes: 11 * 1024 * 1024}},
		{"bad mime", productID, PresignInput{MimeType: "application/pdf", FileName: "a.pdf", SizeBytes: 1}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.PresignProductImage(context.Background(), tc.id, tc.input)
			if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestAttachProductImage(t *testing.T) {
	products := &stubProducts{}
	svc := newMediaService(t, &stubGCS{signedURL: "u"}, products)
	productID := uuid.New()
	key := fmt.Sprintf("products/%s/front.png", productID)

	url, err := svc.AttachProductImage(context.Background(), productID, key)
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	want := fmt.Sprintf("https://storage.googleapis.com/sokowear-assets/%s", key)
	if url != want {
		t.Errorf("url = %q, want %q", url, want)
	}
	if products.lastID != productID || products.lastURL != want {
		t.Error("product image url not persisted")
	}
}

func TestAttachProductImageForeignKey(t *testing.T) {
	svc := newMediaService(t, &stubGCS{signedURL: "u"}, &stubProducts{})

	_, err := svc.AttachProductImage(context.Background(), uuid.New(), fmt.Sprintf("products/%s/other.png", uuid.New()))
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for another product's key, got %v", err)
	}
}
