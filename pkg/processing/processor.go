package processing

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/ph-analyzer/pkg/vision"
)

// ErrUnknownFormat is returned when bytes do not decode as any registered format.
var ErrUnknownFormat = errors.New("image: unknown or unsupported format")

// Supported output formats.
const (
	FormatJPEG = "jpg"
	FormatPNG  = "png"
	FormatWebP = "webp"
)

// Processor handles image decoding, encoding and saving
type Processor struct {
	httpClient *http.Client
}

// NewProcessor creates a new image processor
func NewProcessor() *Processor {
	return &Processor{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// LoadImageFromURL downloads and loads an image from a URL
func (p *Processor) LoadImageFromURL(imageURL string) (image.Image, error) {
	// Validate URL
	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme: %s (only http and https are supported)", parsedURL.Scheme)
	}

	req, err := http.NewRequest(http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "pH-Analyzer/1.0")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: HTTP %d %s", resp.StatusCode, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("URL does not point to an image (Content-Type: %s)", contentType)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return p.DecodeBytes(imageData)
}

// LoadImage loads an image from a file path with WebP support
func (p *Processor) LoadImage(path string) (image.Image, error) {
	// Try imaging.Open (registered decoders)
	if img, err := imaging.Open(path); err == nil {
		return img, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	img, err := p.DecodeBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, path)
	}
	return img, nil
}

// LoadImageSmart loads an image from either a file path or URL
func (p *Processor) LoadImageSmart(source string) (image.Image, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return p.LoadImageFromURL(source)
	}
	return p.LoadImage(source)
}

// LoadImageFromReader decodes an image from r.
func (p *Processor) LoadImageFromReader(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	return p.DecodeBytes(data)
}

// DecodeBytes decodes an image from byte data with WebP support
func (p *Processor) DecodeBytes(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("image: empty input")
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err == nil {
		return img, nil
	}

	if webpImg, webpErr := webp.Decode(bytes.NewReader(data)); webpErr == nil {
		return webpImg, nil
	}

	// a recognized header with a broken body reports the decoder's error
	if !errors.Is(err, image.ErrFormat) {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return nil, ErrUnknownFormat
}

// DecodeBase64 decodes a base64 image payload. A data URL prefix
// ("data:image/png;base64,") is stripped and missing padding is restored.
func (p *Processor) DecodeBase64(payload string) (image.Image, error) {
	data, err := DecodeBase64Payload(payload)
	if err != nil {
		return nil, err
	}
	return p.DecodeBytes(data)
}

// DecodeBase64Payload returns the raw bytes of a base64 or data URL payload.
func DecodeBase64Payload(payload string) ([]byte, error) {
	payload = strings.TrimSpace(payload)
	if i := strings.IndexByte(payload, ','); i >= 0 {
		payload = payload[i+1:]
	}
	payload = strings.TrimRight(payload, "=")
	if payload == "" {
		return nil, fmt.Errorf("empty base64 payload")
	}

	data, err := base64.RawStdEncoding.DecodeString(payload)
	if err != nil {
		// url-safe alphabet
		if alt, altErr := base64.RawURLEncoding.DecodeString(payload); altErr == nil {
			return alt, nil
		}
		return nil, fmt.Errorf("invalid base64 payload: %w", err)
	}
	return data, nil
}

// EncodeImage writes img to w in the given format.
func (p *Processor) EncodeImage(w io.Writer, img image.Image, format string, quality int, lossless bool) error {
	switch normalizeFormat(format) {
	case FormatWebP:
		return webp.Encode(w, img, &webp.Options{Lossless: lossless, Quality: float32(quality)})
	case FormatPNG:
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		return enc.Encode(w, img)
	default:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	}
}

// EncodeDataURL encodes img as a base64 data URL.
func (p *Processor) EncodeDataURL(img image.Image, format string, quality int) (string, error) {
	var buf bytes.Buffer
	if err := p.EncodeImage(&buf, img, format, quality, false); err != nil {
		return "", err
	}
	return "data:" + MimeType(format) + ";base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// SaveImage saves an image to a file with the specified format and quality
func (p *Processor) SaveImage(img image.Image, path, format string, quality int, lossless bool) error {
	switch normalizeFormat(format) {
	case FormatWebP:
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		opts := &webp.Options{Lossless: lossless, Quality: float32(quality)}
		return webp.Encode(f, img, opts)
	case FormatPNG:
		return imaging.Save(img, path, imaging.PNGCompressionLevel(png.BestCompression))
	default:
		return imaging.Save(img, path, imaging.JPEGQuality(quality))
	}
}

// Extension returns the file extension for format, including the dot.
func Extension(format string) string {
	return "." + normalizeFormat(format)
}

// MimeType returns the content type for format.
func MimeType(format string) string {
	switch normalizeFormat(format) {
	case FormatWebP:
		return "image/webp"
	case FormatPNG:
		return "image/png"
	default:
		return "image/jpeg"
	}
}

// ValidFormat reports whether format is a supported output format.
func ValidFormat(format string) bool {
	switch strings.ToLower(format) {
	case "jpg", "jpeg", "png", "webp":
		return true
	}
	return false
}

func normalizeFormat(format string) string {
	switch strings.ToLower(format) {
	case "webp":
		return FormatWebP
	case "png":
		return FormatPNG
	default:
		return FormatJPEG
	}
}

// Overlay lists the regions drawn by CreateDebugOverlay. Empty regions are skipped.
type Overlay struct {
	Marker    vision.Region
	Strip     vision.Region
	Boundary  int
	PadWindow vision.Region
	Pad       vision.Region
}

// CreateDebugOverlay creates an overlay image showing the marker, strip window,
// boundary row and pad boxes
func (p *Processor) CreateDebugOverlay(img image.Image, o Overlay) image.Image {
	nrgba := imaging.Clone(img)
	w := nrgba.Bounds().Dx()
	h := nrgba.Bounds().Dy()

	// Colors
	gold := color.NRGBA{255, 204, 0, 255}    // marker
	blue := color.NRGBA{0, 170, 255, 255}    // strip window
	red := color.NRGBA{255, 0, 0, 255}       // boundary row
	magenta := color.NRGBA{255, 0, 255, 255} // pad window
	green := color.NRGBA{0, 255, 0, 255}     // pad

	stroke := int(math.Max(1, 0.004*float64(min(w, h)))) // ~0.4% of min side

	if !o.Marker.Empty() {
		drawBox(nrgba, o.Marker, gold, stroke)
	}
	if !o.Strip.Empty() {
		drawBox(nrgba, o.Strip, blue, stroke)
		y := o.Strip.Y + o.Boundary
		drawHLine(nrgba, y, o.Strip.X, o.Strip.X+o.Strip.Width, red)
	}
	if !o.PadWindow.Empty() {
		drawBox(nrgba, o.PadWindow, magenta, stroke)
	}
	if !o.Pad.Empty() {
		drawBox(nrgba, o.Pad, green, stroke)
		cx, cy := o.Pad.Center()
		arm := max(2, min(o.Pad.Width, o.Pad.Height)/4)
		drawHLine(nrgba, cy, cx-arm, cx+arm+1, green)
		drawVLine(nrgba, cx, cy-arm, cy+arm+1, green)
	}

	return nrgba
}

func drawBox(img *image.NRGBA, r vision.Region, c color.NRGBA, stroke int) {
	x0, y0, x1, y1 := r.X, r.Y, r.X+r.Width, r.Y+r.Height
	for s := 0; s < stroke; s++ {
		drawHLine(img, y0+s, x0, x1, c)
		drawHLine(img, y1-1-s, x0, x1, c)
		drawVLine(img, x0+s, y0, y1, c)
		drawVLine(img, x1-1-s, y0, y1, c)
	}
}

func drawHLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	if y < 0 || y >= img.Bounds().Dy() {
		return
	}
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	x0 = max(x0, 0)
	x1 = min(x1, img.Bounds().Dx())
	if x0 >= x1 {
		return
	}
	i := y*img.Stride + x0*4
	for x := x0; x < x1; x++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += 4
	}
}

func drawVLine(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	if x < 0 || x >= img.Bounds().Dx() {
		return
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	y0 = max(y0, 0)
	y1 = min(y1, img.Bounds().Dy())
	if y0 >= y1 {
		return
	}
	i := y0*img.Stride + x*4
	for y := y0; y < y1; y++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += img.Stride
	}
}
