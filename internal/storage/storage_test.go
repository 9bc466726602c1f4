package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"alcyxob/coach-app/internal/config"

	"github.com/stretchr/testify/require"
)

func TestExerciseMediaKey(t *testing.T) {
	key := ExerciseMediaKey("press-banca", "Demo.MP4")
	require.True(t, strings.HasPrefix(key, "exercises/press-banca/"))
	require.True(t, strings.HasSuffix(key, ".mp4"))
	require.NotEqual(t, key, ExerciseMediaKey("press-banca", "Demo.MP4"))

	require.False(t, strings.Contains(ExerciseMediaKey("x", "noext"), "."))
}

func TestPresignedURLsAreSignedLocally(t *testing.T) {
	fs, err := NewS3Storage(config.S3Config{
		Endpoint:        "http://localhost:9000",
		Region:          "us-east-1",
		AccessKeyID:     "minio",
		SecretAccessKey: "minio123",
		BucketName:      "media",
	})
	require.NoError(t, err)

	put, err := fs.GeneratePresignedUploadURL(context.Background(), "exercises/a/b.jpg", "image/jpeg", time.Minute)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(put, "http://localhost:9000/media/exercises/a/b.jpg?"))
	require.Contains(t, put, "X-Amz-Signature=")

	get, err := fs.GeneratePresignedDownloadURL(context.Background(), "exercises/a/b.jpg", 0)
	require.NoError(t, err)
	require.Contains(t, get, "X-Amz-Expires=900")
}
