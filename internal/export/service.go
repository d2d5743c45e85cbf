package export

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const defaultTimeout = 30 * time.Second

// Service turns rendered service pages into downloadable PDF brochures.
type Service struct {
	available func() error
	print     func(ctx context.Context, url string) ([]byte, error)
	timeout   time.Duration
	logger    *zap.Logger
}

// NewService creates a brochure exporter backed by headless Chrome.
func NewService(logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		available: findBrowser,
		print:     printWithChrome,
		timeout:   defaultTimeout,
		logger:    logger.Named("export"),
	}
}

// Available reports whether PDF export can run on this host.
func (s *Service) Available() error {
	return s.available()
}

// Brochure prints html to PDF. The page should carry a <base href> so that
// relative image and stylesheet URLs resolve outside the site.
func (s *Service) Brochure(ctx context.Context, title string, html []byte) (*Result, error) {
	if len(html) == 0 {
		return nil, ErrContentUnavailable
	}
	if err := s.available(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := time.Now()
	data, err := s.print(ctx, dataURL(html))
	if err != nil {
		return nil, fmt.Errorf("print brochure: %w", err)
	}
	s.logger.Info("brochure exported",
		zap.String("title", title),
		zap.Int("bytes", len(data)),
		zap.Duration("took", time.Since(started)),
	)

	return &Result{
		Data:     data,
		Filename: sanitizeFilename(title) + "-brochure.pdf",
		MimeType: "application/pdf",
	}, nil
}
