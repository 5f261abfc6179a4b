// Package imagestore wraps Cloudinary for screenshot and document uploads.
// Uploads are fatal to the calling operation when they fail; deletes are
// best effort because the row referencing the image is already gone.
package imagestore

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"octa-backend/pkg/config"
)

// Upload folders
const (
	FolderPayments    = "payments"
	FolderStockImages = "stock_images"
	FolderKYCDocs     = "kyc_docs"
	FolderPaymentQR   = "payment_qr"
)

// Store uploads and deletes images
type Store struct {
	cld     *cloudinary.Cloudinary
	timeout time.Duration
}

// New creates an image store from configuration
func New(cfg *config.Config) (*Store, error) {
	cld, err := cloudinary.NewFromParams(
		cfg.Cloudinary.CloudName,
		cfg.Cloudinary.APIKey,
		cfg.Cloudinary.APISecret,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloudinary client: %w", err)
	}
	return &Store{
		cld:     cld,
		timeout: cfg.Cloudinary.UploadTimeout,
	}, nil
}

// Upload stores an image in the given folder and returns its secure URL and
// public ID
func (s *Store) Upload(ctx context.Context, file io.Reader, folder string) (url, publicID string, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:   folder,
		PublicID: xid.New().String(),
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to upload image: %w", err)
	}
	if resp.Error.Message != "" {
		return "", "", fmt.Errorf("failed to upload image: %s", resp.Error.Message)
	}

	return resp.SecureURL, resp.PublicID, nil
}

// Delete removes an image by public ID. Failures are logged and swallowed:
// the referencing row is already deleted and an orphaned image is harmless.
func (s *Store) Delete(ctx context.Context, publicID string) {
	if publicID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		logrus.WithError(err).WithField("public_id", publicID).Warn("Failed to delete image")
	}
}

// PublicIDFromURL recovers the public ID from a Cloudinary delivery URL, for
// rows that only stored the URL. Returns "" when the URL does not look like
// a Cloudinary upload URL.
func PublicIDFromURL(rawURL string) string {
	const marker = "/upload/"
	idx := strings.Index(rawURL, marker)
	if idx < 0 {
		return ""
	}
	rest := rawURL[idx+len(marker):]

	// Skip the version segment (v1234567890/)
	if len(rest) > 1 && rest[0] == 'v' {
		if slash := strings.IndexByte(rest, '/'); slash > 0 {
			if _, err := strconv.Atoi(rest[1:slash]); err == nil {
				rest = rest[slash+1:]
			}
		}
	}

	if dot := strings.LastIndexByte(rest, '.'); dot > 0 {
		rest = rest[:dot]
	}
	return rest
}
