package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/crystal-dz/storefront_api/shared"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjectStore struct {
	puts        []string
	contentType string
	body        []byte
	err         error
}

func (f *fakeObjectStore) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	return true, nil
}

func (f *fakeObjectStore) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	return nil
}

func (f *fakeObjectStore) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.err != nil {
		return minio.UploadInfo{}, f.err
	}
	f.puts = append(f.puts, objectName)
	f.contentType = opts.ContentType
	f.body, _ = io.ReadAll(reader)
	return minio.UploadInfo{Bucket: bucketName, Key: objectName, Size: objectSize}, nil
}

// fileHeader builds a multipart.FileHeader the way fiber hands one to a handler.
func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("image", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(10<<20))
	return req.MultipartForm.File["image"][0]
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

func TestUploadImage_StoresUnderDatedKey(t *testing.T) {
	store := &fakeObjectStore{}
	svc := NewMinIOService(store, "storefront", "https://cdn.example.com/storefront/")
	svc.now = func() time.Time { return time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC) }

	resp, err := svc.UploadImage(context.Background(), fileHeader(t, "photo.bin", pngHeader))
	require.NoError(t, err)

	require.Len(t, store.puts, 1)
	assert.True(t, strings.HasPrefix(resp.Key, "orders/2026/03/"), resp.Key)
	assert.True(t, strings.HasSuffix(resp.Key, ".png"), "extension follows the sniffed type")
	assert.Equal(t, "https://cdn.example.com/storefront/"+resp.Key, resp.URL)
	assert.Equal(t, "image/png", resp.ContentType)
	assert.Equal(t, "image/png", store.contentType)
	assert.Equal(t, pngHeader, store.body, "the full file is uploaded after sniffing")
}

func TestUploadImage_Rejections(t *testing.T) {
	svc := NewMinIOService(&fakeObjectStore{}, "storefront", "https://cdn.example.com")

	tests := []struct {
		name string
		file *multipart.FileHeader
	}{
		{"missing", nil},
		{"not an image", fileHeader(t, "notes.png", []byte("hello, plain text"))},
		{"too large", func() *multipart.FileHeader {
			fh := fileHeader(t, "big.png", pngHeader)
			fh.Size = MaxImageSize + 1
			return fh
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UploadImage(context.Background(), tt.file)
			appErr, ok := shared.GetAppError(err)
			require.True(t, ok)
			assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
		})
	}
}

func TestUploadImage_StorageFailure(t *testing.T) {
	svc := NewMinIOService(&fakeObjectStore{err: errors.New("connection refused")}, "storefront", "https://cdn.example.com")

	_, err := svc.UploadImage(context.Background(), fileHeader(t, "photo.png", pngHeader))
	appErr, ok := shared.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusServiceUnavailable, appErr.StatusCode)
}
