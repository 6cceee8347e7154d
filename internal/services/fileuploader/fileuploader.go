package fileuploader

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/agri4/agri-server/internal/services/filestorage"
	"github.com/agri4/agri-server/internal/utils/hashutil"
	"github.com/agri4/agri-server/internal/utils/imageutil"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gammazero/workerpool"
)

var (
	ErrNotAnImage  = errors.New("uploaded file is not an image")
	ErrNoStorage   = errors.New("file storage is not configured")
	ErrEmptyUpload = errors.New("uploaded file is empty")
)

type Result struct {
	URL      string
	Filename string
	Err      error
}

type Uploader struct {
	wp          *workerpool.WorkerPool
	filestorage filestorage.FileStorage
}

func NewFileUploader(filestorage filestorage.FileStorage, maxWorkers int) *Uploader {
	wp := workerpool.New(maxWorkers)

	return &Uploader{
		wp:          wp,
		filestorage: filestorage,
	}
}

func (w *Uploader) Stop() {
	w.wp.StopWait()
}

func (w *Uploader) Upload(ctx context.Context, file filestorage.FileInfo, response chan Result) {
	upload := func() {
		w.upload(ctx, file, response)
	}

	w.wp.Submit(upload)
}

// UploadBytes names the content by its blake3 hash and queues it for upload.
func (w *Uploader) UploadBytes(ctx context.Context, file []byte, extension string, response chan Result) {
	fileHash := hashutil.Blake3Hash(file)
	fileInfo := filestorage.FileInfo{
		Name:      fileHash,
		Extension: extension,
		Content:   file,
		IsTemp:    false,
	}

	w.Upload(ctx, fileInfo, response)
}

// UploadImage validates that data is an image, converts formats browsers
// cannot show to png, and blocks until the stored URL is known.
func (w *Uploader) UploadImage(ctx context.Context, data []byte) (Result, error) {
	content, ext, contentType, err := NormalizeImage(data)
	if err != nil {
		return Result{}, err
	}

	response := make(chan Result, 1)
	fileInfo := filestorage.FileInfo{
		Name:        hashutil.Blake3Hash(content),
		Extension:   ext,
		Content:     content,
		ContentType: contentType,
	}
	w.Upload(ctx, fileInfo, response)

	select {
	case result := <-response:
		return result, result.Err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// NormalizeImage returns the bytes to store, their extension and content type.
func NormalizeImage(data []byte) ([]byte, string, string, error) {
	if len(data) == 0 {
		return nil, "", "", ErrEmptyUpload
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, "", "", fmt.Errorf("%w: detected %s", ErrNotAnImage, mtype.String())
	}

	switch {
	case mtype.Is("image/bmp"), mtype.Is("image/tiff"):
		from := strings.TrimPrefix(mtype.Extension(), ".")
		if from == "tif" {
			from = "tiff"
		}
		converted, err := imageutil.ConvertImage(data, from, "png")
		if err != nil {
			return nil, "", "", fmt.Errorf("%w: %v", ErrNotAnImage, err)
		}
		return converted, ".png", "image/png", nil
	default:
		return data, mtype.Extension(), mtype.String(), nil
	}
}

func (w *Uploader) upload(ctx context.Context, file filestorage.FileInfo, response chan Result) {
	if w.filestorage == nil {
		response <- Result{Err: ErrNoStorage}
		return
	}

	url, err := w.filestorage.Upload(ctx, file)
	if err != nil {
		response <- Result{Err: err}
		return
	}

	response <- Result{URL: url, Filename: file.Filename()}
}
