package scanner

import (
	"context"
	"log"
	"time"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// Scanner runs the decode loop: grab a frame, try to read a QR code
// from it, repeat at a fixed cadence until something decodes or the
// context ends.  A frame with no QR code in it is the normal case, not
// an error; only camera failures abort the loop.
type Scanner struct {
	source   FrameSource
	reader   gozxing.Reader
	interval time.Duration
}

// New returns a Scanner over the given source.  interval controls how
// often frames are sampled; zero means a 200ms default, fast enough to
// feel instant at the door without decoding every frame of the stream.
func New(source FrameSource, interval time.Duration) *Scanner {
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	return &Scanner{
		source:   source,
		reader:   qrcode.NewQRCodeReader(),
		interval: interval,
	}
}

// Scan blocks until a QR code is decoded, then stops sampling and
// returns its text.  The frame source is closed before returning, on
// every path, so the camera is released whether the scan succeeded,
// failed or was cancelled.
func (s *Scanner) Scan(ctx context.Context) (string, error) {
	defer s.source.Close()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}

		img, err := s.source.NextFrame(ctx)
		if err != nil {
			return "", err
		}
		bmp, err := gozxing.NewBinaryBitmapFromImage(img)
		if err != nil {
			log.Printf("scanner: frame not convertible: %v", err)
			continue
		}
		result, err := s.reader.Decode(bmp, nil)
		if err != nil {
			// No QR code in this frame; keep sampling.
			continue
		}
		return result.GetText(), nil
	}
}
