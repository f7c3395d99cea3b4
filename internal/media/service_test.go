package media

import (
	"context"
	"encoding/base64"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kosfinder/internal/audit"
	dErrors "kosfinder/pkg/domain-errors"
)

func newMediaService() (*Service, *InMemoryBlobStore) {
	blobs := NewInMemoryBlobStore("http://blobs.local/kosfinder")
	publisher := audit.NewPublisher(32, slog.Default())
	return NewService(blobs, publisher, slog.Default()), blobs
}

func dataURI(contentType string, payload []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(payload)
}

func TestUploadImagesStoresBatch(t *testing.T) {
	svc, blobs := newMediaService()

	images, err := svc.UploadImages(context.Background(), []string{
		dataURI("image/png", []byte("png-bytes")),
		dataURI("image/jpeg", []byte("jpg-bytes")),
	})
	require.NoError(t, err)
	require.Len(t, images, 2)

	assert.True(t, strings.HasSuffix(images[0].Key, ".png"))
	assert.True(t, strings.HasSuffix(images[1].Key, ".jpg"))
	for _, img := range images {
		assert.True(t, strings.HasPrefix(img.Key, "kos/"))
		assert.Equal(t, "http://blobs.local/kosfinder/"+img.Key, img.URL)
		_, stored := blobs.Object(img.Key)
		assert.True(t, stored)
	}
}

func TestUploadImagesBareBase64DefaultsToJPEG(t *testing.T) {
	svc, _ := newMediaService()

	images, err := svc.UploadImages(context.Background(),
		[]string{base64.StdEncoding.EncodeToString([]byte("raw"))})
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.True(t, strings.HasSuffix(images[0].Key, ".jpg"))
}

func TestUploadImagesValidation(t *testing.T) {
	svc, blobs := newMediaService()

	cases := map[string][]string{
		"empty batch":      {},
		"too many":         make([]string, maxImagesPerUpload+1),
		"not base64":       {"data:image/png;base64,???not-base64???"},
		"unsupported type": {dataURI("application/pdf", []byte("doc"))},
		"empty payload":    {dataURI("image/png", nil)},
	}
	for i := range cases["too many"] {
		cases["too many"][i] = dataURI("image/png", []byte("x"))
	}
	for name, payloads := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.UploadImages(context.Background(), payloads)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation), "got %v", err)
		})
	}
	assert.Zero(t, blobs.Len(), "invalid batches store nothing")
}

func TestDeleteImagesIgnoresMissingKeys(t *testing.T) {
	svc, blobs := newMediaService()

	images, err := svc.UploadImages(context.Background(),
		[]string{dataURI("image/png", []byte("bytes"))})
	require.NoError(t, err)

	err = svc.DeleteImages(context.Background(), []string{images[0].Key, "kos/already-gone.png"})
	require.NoError(t, err)
	assert.Zero(t, blobs.Len())

	err = svc.DeleteImages(context.Background(), []string{"../../etc/passwd"})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}
