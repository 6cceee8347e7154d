package filestorage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/agri4/agri-server/internal/config"
	"github.com/agri4/agri-server/internal/utils/pathutil"

	"github.com/gabriel-vasile/mimetype"
)

type LocalFileStorage struct {
	assetsDir string
	tempDir   string
	baseURL   string
}

func NewLocalFileStorage(cfg *config.Config) (*LocalFileStorage, error) {
	if !strings.EqualFold(cfg.Filesystem, config.FilesystemLocal) {
		return nil, fmt.Errorf("filesystem is not local")
	}

	return &LocalFileStorage{
		assetsDir: cfg.AssetsDir,
		tempDir:   cfg.TempDir,
		baseURL:   strings.TrimSuffix(cfg.PublicURL, "/"),
	}, nil
}

func (u *LocalFileStorage) Upload(_ context.Context, file FileInfo) (string, error) {
	dir := u.assetsDir
	if file.IsTemp {
		dir = u.tempDir
	}

	filedest, err := pathutil.SafeJoin(dir, file.Filename())
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(filedest), os.ModePerm); err != nil {
		return "", err
	}

	if err := os.WriteFile(filedest, file.Content, 0o644); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return fmt.Sprintf("%s/file/%s", u.baseURL, file.Filename()), nil
}

func (u *LocalFileStorage) GetFile(_ context.Context, filename string) (*FileInfo, error) {
	path, err := pathutil.SafeJoin(u.assetsDir, filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, filename)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, filename)
		}
		return nil, err
	}

	ext := filepath.Ext(filename)
	return &FileInfo{
		Name:        strings.TrimSuffix(filename, ext),
		Extension:   ext,
		Content:     content,
		ContentType: mimetype.Detect(content).String(),
	}, nil
}
