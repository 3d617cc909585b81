// Package preview keeps the most recent live-view frame. The daemon pulls
// frames on a fixed interval, crops them square the way the original screen
// shows them, and callers fetch whatever is newest.
package preview

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nologo-earth/zerocam/pkg/camera"
)

// Cache holds the latest encoded frame.
type Cache struct {
	mu    sync.RWMutex
	frame []byte
	at    time.Time
}

func NewCache() *Cache {
	return &Cache{}
}

func (c *Cache) Set(frame []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frame = frame
	c.at = time.Now()
}

// Latest returns the newest frame, its capture time, and whether one exists.
func (c *Cache) Latest() ([]byte, time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frame, c.at, c.frame != nil
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// CropSquare crops a JPEG frame to a square: centered horizontally, anchored
// to the top edge, side length min(width, height).
func CropSquare(frame []byte) ([]byte, error) {
	img, err := jpeg.Decode(bytes.NewReader(frame))
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to decode frame")
	}

	b := img.Bounds()
	side := b.Dx()
	if b.Dy() < side {
		side = b.Dy()
	}
	x0 := b.Min.X + (b.Dx()-side)/2
	rect := image.Rect(x0, b.Min.Y, x0+side, b.Min.Y+side)

	si, ok := img.(subImager)
	if !ok {
		return nil, pkgerrors.Errorf("frame image type %T does not support cropping", img)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, si.SubImage(rect), &jpeg.Options{Quality: 80}); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to encode cropped frame")
	}
	return buf.Bytes(), nil
}

// Loop pulls frames from the camera until the context is cancelled. Frame
// errors are logged and the loop moves on; the preview never takes the
// daemon down. The interval is read through a getter before every wait, so
// a config reload changes the cadence without restarting the loop.
type Loop struct {
	cam      camera.Camera
	cache    *Cache
	interval func() time.Duration
}

func NewLoop(cam camera.Camera, cache *Cache, interval func() time.Duration) *Loop {
	return &Loop{cam: cam, cache: cache, interval: interval}
}

func (l *Loop) Run(ctx context.Context) {
	timer := time.NewTimer(l.interval())
	defer timer.Stop()

	logrus.Debugf("preview loop started (interval %s)", l.interval())
	for {
		select {
		case <-ctx.Done():
			logrus.Debug("preview loop stopped")
			return
		case <-timer.C:
			if frame, err := l.cam.CaptureFrame(ctx); err != nil {
				logrus.Debugf("preview frame capture failed: %v", err)
			} else if cropped, err := CropSquare(frame); err != nil {
				logrus.Debugf("preview frame crop failed: %v", err)
			} else {
				l.cache.Set(cropped)
			}
			timer.Reset(l.interval())
		}
	}
}
