package scanner

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
)

// FrameSource delivers camera frames one at a time.  Close releases the
// underlying device or stream and must be safe to call more than once:
// the scan loop defers it so the camera is released on every exit path.
type FrameSource interface {
	NextFrame(ctx context.Context) (image.Image, error)
	Close() error
}

// MJPEGSource reads frames from an MJPEG-over-HTTP camera stream, the
// multipart/x-mixed-replace format served by IP cameras and most
// webcam streaming tools.
type MJPEGSource struct {
	url    string
	client *http.Client

	mu     sync.Mutex
	resp   *http.Response
	parts  *multipart.Reader
	closed bool
}

// NewMJPEGSource returns a source for the given stream URL.  The
// connection is opened lazily on the first NextFrame call.
func NewMJPEGSource(url string, client *http.Client) *MJPEGSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &MJPEGSource{url: url, client: client}
}

func (s *MJPEGSource) connect(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("open camera stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return fmt.Errorf("camera stream returned %s", resp.Status)
	}
	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		resp.Body.Close()
		return fmt.Errorf("not an MJPEG stream: content-type %q", resp.Header.Get("Content-Type"))
	}
	s.resp = resp
	s.parts = multipart.NewReader(resp.Body, params["boundary"])
	return nil
}

// NextFrame blocks until the next JPEG frame arrives and decodes it.
func (s *MJPEGSource) NextFrame(ctx context.Context) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("camera source is closed")
	}
	if s.parts == nil {
		if err := s.connect(ctx); err != nil {
			return nil, err
		}
	}
	part, err := s.parts.NextPart()
	if err != nil {
		return nil, fmt.Errorf("read camera frame: %w", err)
	}
	defer part.Close()
	img, err := jpeg.Decode(part)
	if err != nil {
		return nil, fmt.Errorf("decode camera frame: %w", err)
	}
	return img, nil
}

// Close terminates the stream.  Safe to call repeatedly.
func (s *MJPEGSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.resp != nil {
		return s.resp.Body.Close()
	}
	return nil
}
