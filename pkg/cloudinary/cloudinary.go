package cloudinary

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/cloudinary/cloudinary-go/v2/asset"
	"github.com/rs/zerolog"
)

// Config contains credentials required to talk to Cloudinary.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Service stores submission attachments in Cloudinary.
type Service struct {
	client *cloudinary.Cloudinary
	folder string
	logger zerolog.Logger
	now    func() time.Time
}

// New constructs a Cloudinary service instance.
func New(cfg Config, logger zerolog.Logger) (*Service, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials must be provided")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return &Service{
		client: cld,
		folder: strings.Trim(cfg.Folder, "/"),
		logger: logger.With().Str("component", "cloudinary").Logger(),
		now:    time.Now,
	}, nil
}

// Upload stores the file and returns its public id and the resource type Cloudinary
// assigned to it. Both are needed to sign or delete the asset later.
func (s *Service) Upload(ctx context.Context, name string, reader io.Reader) (string, string, error) {
	params := uploader.UploadParams{
		Folder:       s.folder,
		PublicID:     buildPublicID(name, s.now()),
		ResourceType: "auto",
	}

	result, err := s.client.Upload.Upload(ctx, reader, params)
	if err != nil {
		return "", "", fmt.Errorf("failed to upload asset: %w", err)
	}
	if result.Error.Message != "" {
		return "", "", fmt.Errorf("failed to upload asset: %s", result.Error.Message)
	}

	s.logger.Info().Str("public_id", result.PublicID).Str("resource_type", result.ResourceType).Msg("file uploaded to cloudinary")

	return result.PublicID, result.ResourceType, nil
}

// Delete removes the asset. Missing assets are not an error.
func (s *Service) Delete(ctx context.Context, publicID, resourceType string) error {
	result, err := s.client.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: normalizeResourceType(resourceType),
	})
	if err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}
	if result.Error.Message != "" {
		return fmt.Errorf("failed to delete asset: %s", result.Error.Message)
	}

	s.logger.Info().Str("public_id", publicID).Str("result", result.Result).Msg("file removed from cloudinary")
	return nil
}

// SignedURL builds a signed delivery URL for the asset.
func (s *Service) SignedURL(_ context.Context, publicID, resourceType string) (string, error) {
	var (
		media *asset.Asset
		err   error
	)

	switch normalizeResourceType(resourceType) {
	case "image":
		media, err = s.client.Image(publicID)
	case "video":
		media, err = s.client.Video(publicID)
	default:
		media, err = s.client.File(publicID)
	}
	if err != nil {
		return "", fmt.Errorf("failed to build asset url: %w", err)
	}

	media.Config.URL.Secure = true
	media.Config.URL.SignURL = true

	url, err := media.String()
	if err != nil {
		return "", fmt.Errorf("failed to sign asset url: %w", err)
	}
	return url, nil
}

func normalizeResourceType(resourceType string) string {
	switch strings.ToLower(resourceType) {
	case "image", "video":
		return strings.ToLower(resourceType)
	default:
		return "raw"
	}
}

func buildPublicID(name string, now time.Time) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '-'
	}, base)

	base = strings.Trim(base, "-")
	if base == "" {
		base = "upload"
	}

	return fmt.Sprintf("%s-%d", base, now.UnixNano())
}
