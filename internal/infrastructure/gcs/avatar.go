// Package gcs stores profile avatars in Google Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"

	"github.com/oksasatya/social-account-service/internal/application"
	"github.com/oksasatya/social-account-service/pkg/helpers"
)

var ErrNotConfigured = errors.New("gcs not configured")

type AvatarStorage struct {
	Client *storage.Client
	Bucket string
}

func NewAvatarStorage(client *storage.Client, bucket string) *AvatarStorage {
	return &AvatarStorage{Client: client, Bucket: bucket}
}

// ObjectPath places avatars under avatars/{user}/{uuid}{ext}.
func ObjectPath(userID, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return filepath.ToSlash(filepath.Join("avatars", userID, uuid.NewString()+ext))
}

func (s *AvatarStorage) Upload(ctx context.Context, userID, filename, contentType string, r io.Reader) (string, error) {
	if s == nil || s.Client == nil || s.Bucket == "" {
		return "", ErrNotConfigured
	}
	return helpers.UploadObject(ctx, s.Client, s.Bucket, ObjectPath(userID, filename), contentType, r)
}

var _ application.AvatarStorage = (*AvatarStorage)(nil)
