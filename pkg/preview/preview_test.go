package preview

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nologo-earth/zerocam/pkg/camera"
)

func encodeTestJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestCropSquareLandscape(t *testing.T) {
	frame := encodeTestJPEG(t, 960, 720)

	cropped, err := CropSquare(frame)
	if err != nil {
		t.Fatalf("CropSquare returned error: %v", err)
	}

	img, err := jpeg.Decode(bytes.NewReader(cropped))
	if err != nil {
		t.Fatalf("failed to decode cropped frame: %v", err)
	}
	if got := img.Bounds(); got.Dx() != 720 || got.Dy() != 720 {
		t.Fatalf("expected 720x720 crop, got %dx%d", got.Dx(), got.Dy())
	}
}

func TestCropSquareAlreadySquare(t *testing.T) {
	frame := encodeTestJPEG(t, 400, 400)

	cropped, err := CropSquare(frame)
	if err != nil {
		t.Fatalf("CropSquare returned error: %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(cropped))
	if err != nil {
		t.Fatalf("failed to decode cropped frame: %v", err)
	}
	if got := img.Bounds(); got.Dx() != 400 || got.Dy() != 400 {
		t.Fatalf("expected 400x400, got %dx%d", got.Dx(), got.Dy())
	}
}

func TestCropSquareRejectsGarbage(t *testing.T) {
	if _, err := CropSquare([]byte("not a jpeg")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestLoopReadsIntervalEveryCycle(t *testing.T) {
	mock := camera.NewMock()
	mock.Frame = encodeTestJPEG(t, 64, 48)
	cache := NewCache()

	var reads atomic.Int32
	loop := NewLoop(mock, cache, func() time.Duration {
		reads.Add(1)
		return time.Millisecond
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for reads.Load() < 3 {
		select {
		case <-deadline:
			t.Fatal("interval getter not consulted per cycle")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	<-done

	if _, _, ok := cache.Latest(); !ok {
		t.Fatal("expected a cached frame")
	}
}

func TestCacheLatest(t *testing.T) {
	c := NewCache()

	if _, _, ok := c.Latest(); ok {
		t.Fatal("empty cache must report no frame")
	}

	c.Set([]byte{1, 2, 3})
	frame, at, ok := c.Latest()
	if !ok || len(frame) != 3 {
		t.Fatalf("expected cached frame, got ok=%v len=%d", ok, len(frame))
	}
	if at.IsZero() {
		t.Fatal("expected a capture timestamp")
	}
}
