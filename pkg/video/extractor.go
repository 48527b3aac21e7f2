package video

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image/jpeg"
	"io"
	"os/exec"

	"github.com/monkedh/monkedh/pkg/models"
)

const jpegQuality = 80

// Extractor streams sampled frames out of a video file. ffmpeg decodes the
// clip once, keeps every interval-th frame, and pipes them to us as a
// concatenated MJPEG stream.
type Extractor struct {
	cmd      *exec.Cmd
	stdout   io.ReadCloser
	reader   *bufio.Reader
	fps      float64
	interval int
	index    int
	closed   bool
}

// SampleInterval converts the sampling period in seconds into a frame stride,
// never below one frame.
func SampleInterval(fps, seconds float64) int {
	n := int(fps * seconds)
	if n < 1 {
		n = 1
	}
	return n
}

// NewExtractor starts the ffmpeg pipeline for one clip. Every interval-th
// frame is emitted; the caller must Close the extractor when done.
func NewExtractor(ctx context.Context, path string, fps float64, interval int) (*Extractor, error) {
	if interval < 1 {
		interval = 1
	}
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", path,
		"-vf", fmt.Sprintf(`select=not(mod(n\,%d))`, interval),
		"-vsync", "vfr",
		"-f", "image2pipe",
		"-c:v", "mjpeg",
		"-q:v", "2",
		"-loglevel", "error",
		"-",
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}
	return &Extractor{
		cmd:      cmd,
		stdout:   stdout,
		reader:   bufio.NewReaderSize(stdout, 1<<20),
		fps:      fps,
		interval: interval,
	}, nil
}

// Next returns the next sampled frame as a base64 data URI. It returns io.EOF
// when the stream ends, including when ffmpeg dies mid-stream; a truncated
// clip yields whatever frames decoded cleanly before the cut.
func (e *Extractor) Next() (*models.Frame, error) {
	raw, err := readJPEG(e.reader)
	if err != nil {
		e.Close()
		return nil, io.EOF
	}

	// Re-encode through image/jpeg so malformed ffmpeg output never reaches
	// downstream consumers.
	img, err := jpeg.Decode(bytes.NewReader(raw))
	if err != nil {
		e.Close()
		return nil, io.EOF
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		e.Close()
		return nil, io.EOF
	}

	frameNumber := e.index * e.interval
	e.index++

	seconds := 0.0
	if e.fps > 0 {
		seconds = float64(frameNumber) / e.fps
	}
	return &models.Frame{
		FrameNumber:      frameNumber,
		Timestamp:        formatDuration(seconds),
		TimestampSeconds: seconds,
		ImageBase64:      "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}

// Close tears the ffmpeg process down. Safe to call more than once.
func (e *Extractor) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	e.stdout.Close()
	if e.cmd.Process != nil {
		e.cmd.Process.Kill()
	}
	return e.cmd.Wait()
}

// readJPEG extracts one complete JPEG from a concatenated MJPEG stream. The
// standard decoder buffers past frame boundaries, so the split has to honor
// the marker structure itself: length-prefixed segments up to SOS, then an
// entropy-coded scan where 0xFF is only a marker when not followed by 0x00
// or a restart marker, ending at EOI.
func readJPEG(r *bufio.Reader) ([]byte, error) {
	var buf bytes.Buffer

	// Start of image.
	b0, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	b1, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if b0 != 0xFF || b1 != 0xD8 {
		return nil, fmt.Errorf("missing SOI marker")
	}
	buf.Write([]byte{b0, b1})

	for {
		marker, err := readMarker(r, &buf)
		if err != nil {
			return nil, err
		}
		switch {
		case marker == 0xD9: // EOI without a scan
			return buf.Bytes(), nil
		case marker == 0xDA: // start of scan
			if err := copyScan(r, &buf); err != nil {
				return nil, err
			}
			return buf.Bytes(), nil
		case marker >= 0xD0 && marker <= 0xD7: // restart, no payload
		case marker == 0x01: // TEM, no payload
		default:
			if err := copySegment(r, &buf); err != nil {
				return nil, err
			}
		}
	}
}

// readMarker consumes fill bytes and the next 0xFFxx marker, appending the
// consumed bytes to buf, and returns the marker code.
func readMarker(r *bufio.Reader, buf *bytes.Buffer) (byte, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	if b != 0xFF {
		return 0, fmt.Errorf("expected marker, got 0x%02X", b)
	}
	buf.WriteByte(b)
	for {
		b, err = r.ReadByte()
		if err != nil {
			return 0, err
		}
		buf.WriteByte(b)
		if b != 0xFF { // 0xFF fill bytes may precede the code
			return b, nil
		}
	}
}

// copySegment copies one length-prefixed marker segment body.
func copySegment(r *bufio.Reader, buf *bytes.Buffer) error {
	l0, err := r.ReadByte()
	if err != nil {
		return err
	}
	l1, err := r.ReadByte()
	if err != nil {
		return err
	}
	buf.Write([]byte{l0, l1})
	length := int(l0)<<8 | int(l1)
	if length < 2 {
		return fmt.Errorf("invalid segment length %d", length)
	}
	_, err = io.CopyN(buf, r, int64(length-2))
	return err
}

// copyScan copies entropy-coded data through the end-of-image marker,
// skipping byte-stuffed 0xFF00 pairs and restart markers.
func copyScan(r *bufio.Reader, buf *bytes.Buffer) error {
	// The SOS segment itself is length-prefixed.
	if err := copySegment(r, buf); err != nil {
		return err
	}
	for {
		b, err := r.ReadByte()
		if err != nil {
			return err
		}
		buf.WriteByte(b)
		if b != 0xFF {
			continue
		}
		next, err := r.ReadByte()
		if err != nil {
			return err
		}
		buf.WriteByte(next)
		switch {
		case next == 0x00: // stuffed 0xFF data byte
		case next >= 0xD0 && next <= 0xD7: // restart marker
		case next == 0xD9: // end of image
			return nil
		case next == 0xFF: // fill byte, re-examine
			if err := r.UnreadByte(); err != nil {
				return err
			}
			buf.Truncate(buf.Len() - 1)
		default:
			return fmt.Errorf("unexpected marker 0x%02X in scan", next)
		}
	}
}
