package filestorage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/agri4/agri-server/internal/config"
)

var ErrFileNotFound = errors.New("file not found")

type FileInfo struct {
	Name        string
	Extension   string
	Content     []byte
	ContentType string
	IsTemp      bool
}

func (f FileInfo) Filename() string {
	return f.Name + f.Extension
}

type FileStorage interface {
	// Upload stores the file and returns the URL it is served from.
	Upload(ctx context.Context, file FileInfo) (string, error)
	GetFile(ctx context.Context, filename string) (*FileInfo, error)
}

func NewFileInfo(name string, extension string, content []byte, isTemp bool) FileInfo {
	return FileInfo{
		Name:      name,
		Extension: extension,
		Content:   content,
		IsTemp:    isTemp,
	}
}

func NewFileStorage(cfg *config.Config) (FileStorage, error) {
	switch strings.ToLower(cfg.Filesystem) {
	case config.FilesystemLocal:
		return NewLocalFileStorage(cfg)
	case config.FilesystemS3:
		return NewS3FileStorage(context.Background(), cfg)
	default:
		return nil, fmt.Errorf("invalid filesystem type %s", cfg.Filesystem)
	}
}
