package modelfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/agri4/agri-server/internal/utils/pathutil"

	"github.com/cenkalti/backoff/v4"
	"github.com/vbauerster/mpb/v7"
	"github.com/vbauerster/mpb/v7/decor"
	"go.uber.org/zap"
)

var ErrEmptyArtifact = errors.New("downloaded artifact is empty")

type Fetcher struct {
	dir        string
	client     *http.Client
	output     io.Writer
	hfBase     string
	hfToken    string
	maxElapsed time.Duration
	logger     *zap.Logger
}

type Option func(*Fetcher)

func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithOutput sets where progress bars are drawn. Nil hides them.
func WithOutput(w io.Writer) Option {
	return func(f *Fetcher) {
		f.output = w
	}
}

// WithHuggingface sets the hub base URL, empty keeps the public hub, and the
// token sent with hf: downloads.
func WithHuggingface(baseURL, token string) Option {
	return func(f *Fetcher) {
		if baseURL != "" {
			f.hfBase = baseURL
		}
		f.hfToken = token
	}
}

func WithMaxElapsed(d time.Duration) Option {
	return func(f *Fetcher) {
		f.maxElapsed = d
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

func NewFetcher(dir string, opts ...Option) *Fetcher {
	f := &Fetcher{
		dir: dir,
		client: &http.Client{
			Timeout: 0, // No total timeout
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout: 60 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   60 * time.Second,
				ResponseHeaderTimeout: 60 * time.Second,
				IdleConnTimeout:       60 * time.Second,
			},
		},
		output:     os.Stderr,
		hfBase:     huggingfaceBaseURL,
		maxElapsed: 5 * time.Minute,
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fetch stores the artifact named by source in the models directory and
// returns its path. name overrides the stored filename.
func (f *Fetcher) Fetch(ctx context.Context, source, name string) (string, error) {
	src, err := ParseSource(source)
	if err != nil {
		return "", err
	}

	if name == "" {
		name = src.Filename()
	}
	destPath, err := pathutil.SafeJoin(f.dir, name)
	if err != nil {
		return "", fmt.Errorf("invalid artifact name %q: %w", name, err)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create models directory: %w", err)
	}

	if src.Type == SourceTypeFile {
		return destPath, f.copyLocal(src.Location, destPath)
	}

	url := src.URL(f.hfBase)
	f.logger.Info("Downloading model artifact",
		zap.String("source", src.Original),
		zap.String("url", url),
		zap.String("dest", destPath),
	)

	if err := f.downloadWithRetry(ctx, url, destPath, src.Type == SourceTypeHuggingface); err != nil {
		return "", err
	}

	return destPath, nil
}

func (f *Fetcher) copyLocal(src, destPath string) error {
	if err := verifyFile(src); err != nil {
		return fmt.Errorf("failed to verify local file: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}

	return nil
}

func (f *Fetcher) downloadWithRetry(ctx context.Context, url, destPath string, authenticate bool) error {
	tmpPath := destPath + ".tmp"

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = f.maxElapsed
	b.InitialInterval = 1 * time.Second
	b.MaxInterval = 30 * time.Second

	return backoff.Retry(func() error {
		return f.downloadWithResume(ctx, url, destPath, tmpPath, authenticate)
	}, backoff.WithContext(b, ctx))
}

func (f *Fetcher) downloadWithResume(ctx context.Context, url, destPath, tmpPath string, authenticate bool) error {
	// check for partial download
	var initialSize int64
	if info, err := os.Stat(tmpPath); err == nil {
		initialSize = info.Size()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	if initialSize > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", initialSize))
	}
	if authenticate && f.hfToken != "" {
		req.Header.Set("Authorization", "Bearer "+f.hfToken)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	flag := os.O_CREATE | os.O_WRONLY
	var totalSize int64
	switch {
	case initialSize > 0 && resp.StatusCode == http.StatusPartialContent:
		totalSize = initialSize + resp.ContentLength
		flag |= os.O_APPEND
	case resp.StatusCode == http.StatusOK:
		if initialSize > 0 {
			f.logger.Warn("Server doesn't support resume, starting download from beginning")
			initialSize = 0
		}
		totalSize = resp.ContentLength
		flag |= os.O_TRUNC
	case resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests:
		return backoff.Permanent(fmt.Errorf("download failed with status %d", resp.StatusCode))
	default:
		return fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	file, err := os.OpenFile(tmpPath, flag, 0o644)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("failed to open file: %w", err))
	}
	defer file.Close()

	progress := mpb.NewWithContext(ctx,
		mpb.WithOutput(f.output),
		mpb.WithWidth(60),
		mpb.WithRefreshRate(180*time.Millisecond),
	)
	bar := progress.AddBar(totalSize,
		mpb.PrependDecorators(
			decor.Name(filepath.Base(destPath), decor.WC{W: 40, C: decor.DidentRight}),
			decor.CountersKibiByte("% .2f / % .2f"),
		),
		mpb.AppendDecorators(
			decor.EwmaETA(decor.ET_STYLE_GO, 90),
			decor.Name(" ] "),
			decor.EwmaSpeed(decor.UnitKiB, "% .2f", 60),
		),
	)
	if initialSize > 0 {
		bar.SetCurrent(initialSize)
	}

	reader := bar.ProxyReader(resp.Body)
	written, copyErr := io.Copy(file, reader)
	reader.Close()

	downloadedSize := initialSize + written
	sizeMismatch := totalSize > 0 && downloadedSize != totalSize
	// A bar with a known total that never reaches it would block Wait.
	if copyErr != nil || sizeMismatch {
		bar.Abort(false)
	} else {
		bar.SetTotal(-1, true)
	}
	progress.Wait()

	if copyErr != nil {
		return fmt.Errorf("read failed: %w", copyErr)
	}
	if sizeMismatch {
		return fmt.Errorf("download size mismatch: expected %d, got %d", totalSize, downloadedSize)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}

	if err := verifyFile(tmpPath); err != nil {
		return backoff.Permanent(fmt.Errorf("failed to verify file: %w", err))
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return backoff.Permanent(fmt.Errorf("failed to move file: %w", err))
	}

	f.logger.Info("Model artifact saved", zap.String("path", destPath), zap.Int64("bytes", downloadedSize))
	return nil
}

func verifyFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	if info.Size() == 0 {
		return ErrEmptyArtifact
	}
	return nil
}
