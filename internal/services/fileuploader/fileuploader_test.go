package fileuploader

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/agri4/agri-server/internal/services/filestorage"
	"github.com/agri4/agri-server/internal/utils/hashutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

type memoryStorage struct {
	mu    sync.Mutex
	files map[string]filestorage.FileInfo
	err   error
}

func (s *memoryStorage) Upload(_ context.Context, file filestorage.FileInfo) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.files == nil {
		s.files = map[string]filestorage.FileInfo{}
	}
	s.files[file.Filename()] = file
	return "/file/" + file.Filename(), nil
}

func (s *memoryStorage) GetFile(_ context.Context, filename string) (*filestorage.FileInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	file, ok := s.files[filename]
	if !ok {
		return nil, filestorage.ErrFileNotFound
	}
	return &file, nil
}

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.SetRGBA(2, 2, color.RGBA{R: 30, G: 160, B: 40, A: 255})
	return img
}

func encodePNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage()))
	return buf.Bytes()
}

func TestUploadImagePNG(t *testing.T) {
	storage := &memoryStorage{}
	uploader := NewFileUploader(storage, 2)
	defer uploader.Stop()

	data := encodePNG(t)
	result, err := uploader.UploadImage(context.Background(), data)
	require.NoError(t, err)

	want := hashutil.Blake3Hash(data) + ".png"
	assert.Equal(t, want, result.Filename)
	assert.Equal(t, "/file/"+want, result.URL)
	assert.Equal(t, "image/png", storage.files[want].ContentType)
}

func TestUploadImageConvertsBitmap(t *testing.T) {
	storage := &memoryStorage{}
	uploader := NewFileUploader(storage, 1)
	defer uploader.Stop()

	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, testImage()))

	result, err := uploader.UploadImage(context.Background(), buf.Bytes())
	require.NoError(t, err)
	assert.Contains(t, result.Filename, ".png")

	stored := storage.files[result.Filename]
	_, err = png.Decode(bytes.NewReader(stored.Content))
	assert.NoError(t, err)
}

func TestUploadImageRejectsNonImages(t *testing.T) {
	uploader := NewFileUploader(&memoryStorage{}, 1)
	defer uploader.Stop()

	_, err := uploader.UploadImage(context.Background(), []byte("just some text"))
	assert.ErrorIs(t, err, ErrNotAnImage)

	_, err = uploader.UploadImage(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyUpload)
}

func TestUploadPropagatesStorageErrors(t *testing.T) {
	uploader := NewFileUploader(&memoryStorage{err: errors.New("disk full")}, 1)
	defer uploader.Stop()

	_, err := uploader.UploadImage(context.Background(), encodePNG(t))
	assert.EqualError(t, err, "disk full")

	nilUploader := NewFileUploader(nil, 1)
	defer nilUploader.Stop()
	_, err = nilUploader.UploadImage(context.Background(), encodePNG(t))
	assert.ErrorIs(t, err, ErrNoStorage)
}

func TestUploadBytesAsync(t *testing.T) {
	storage := &memoryStorage{}
	uploader := NewFileUploader(storage, 4)

	response := make(chan Result, 3)
	for _, content := range []string{"a", "b", "c"} {
		uploader.UploadBytes(context.Background(), []byte(content), ".txt", response)
	}
	uploader.Stop()
	close(response)

	var urls []string
	for result := range response {
		require.NoError(t, result.Err)
		urls = append(urls, result.URL)
	}
	assert.Len(t, urls, 3)
}
