// Package qr dibuja la URL de cotejo VERI*FACTU como código QR (PNG o SVG).
package qr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"io"
	"os"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"

	"github.com/jhoicas/verifactu-api/internal/application/billing"
)

// ErrInvalidOptions formato, destino o tamaño no admitidos.
var ErrInvalidOptions = errors.New("qr: opciones no válidas")

// Renderer implementa billing.QRRenderer con boombuler/barcode.
type Renderer struct {
	level qr.ErrorCorrectionLevel
}

// NewRenderer crea el renderizador con corrección de errores M.
func NewRenderer() *Renderer {
	return &Renderer{level: qr.M}
}

// Render codifica content y lo devuelve en memoria o lo escribe en opts.Dir.
func (r *Renderer) Render(ctx context.Context, content string, opts billing.QROptions) (*billing.QRImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if content == "" {
		return nil, fmt.Errorf("%w: contenido vacío", ErrInvalidOptions)
	}
	opts, err := normalize(opts)
	if err != nil {
		return nil, err
	}

	code, err := qr.Encode(content, r.level, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("qr: codificar: %w", err)
	}

	var data []byte
	switch opts.Format {
	case billing.QRFormatPNG:
		data, err = renderPNG(code, opts.Size)
	case billing.QRFormatSVG:
		data, err = renderSVG(code, opts.Size)
	}
	if err != nil {
		return nil, err
	}

	img := &billing.QRImage{Format: opts.Format}
	if opts.Destination == billing.QRDestinationMemory {
		img.Content = data
		return img, nil
	}

	f, err := os.CreateTemp(opts.Dir, "qr_*."+opts.Format)
	if err != nil {
		return nil, fmt.Errorf("qr: crear archivo: %w", err)
	}
	if img.Path, err = saveFile(f, data); err != nil {
		return nil, err
	}
	return img, nil
}

type file interface {
	io.WriteCloser
	Name() string
}

// saveFile escribe data y cierra f. Si algo falla el archivo se borra: no
// quedan QR a medio escribir en el directorio de destino.
func saveFile(f file, data []byte) (path string, err error) {
	defer func() {
		if err != nil {
			_ = os.Remove(f.Name())
		}
	}()
	if _, err = f.Write(data); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("qr: escribir archivo: %w", err)
	}
	if err = f.Close(); err != nil {
		return "", fmt.Errorf("qr: cerrar archivo: %w", err)
	}
	return f.Name(), nil
}

func normalize(opts billing.QROptions) (billing.QROptions, error) {
	opts.Format = strings.ToLower(strings.TrimSpace(opts.Format))
	opts.Destination = strings.ToLower(strings.TrimSpace(opts.Destination))
	if opts.Format == "" {
		opts.Format = billing.QRFormatPNG
	}
	if opts.Destination == "" {
		opts.Destination = billing.QRDestinationMemory
	}
	if opts.Size == 0 {
		opts.Size = billing.DefaultQRSize
	}
	if opts.Size < 0 {
		return opts, fmt.Errorf("%w: tamaño %d", ErrInvalidOptions, opts.Size)
	}
	if opts.Format != billing.QRFormatPNG && opts.Format != billing.QRFormatSVG {
		return opts, fmt.Errorf("%w: formato %q", ErrInvalidOptions, opts.Format)
	}
	if opts.Destination != billing.QRDestinationMemory && opts.Destination != billing.QRDestinationFile {
		return opts, fmt.Errorf("%w: destino %q", ErrInvalidOptions, opts.Destination)
	}
	if opts.Destination == billing.QRDestinationFile && opts.Dir == "" {
		opts.Dir = os.TempDir()
	}
	return opts, nil
}

func renderPNG(code barcode.Barcode, size int) ([]byte, error) {
	scaled, err := barcode.Scale(code, size, size)
	if err != nil {
		return nil, fmt.Errorf("qr: escalar a %dpx: %w", size, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, fmt.Errorf("qr: codificar PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// renderSVG dibuja un rect por módulo oscuro sobre una rejilla de un módulo por unidad.
func renderSVG(code barcode.Barcode, size int) ([]byte, error) {
	b := code.Bounds()
	w, h := b.Dx(), b.Dy()
	if size < w {
		return nil, fmt.Errorf("qr: %dpx no alcanza para %d módulos", size, w)
	}

	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" shape-rendering="crispEdges">`, size, size, w, h)
	fmt.Fprintf(&buf, `<rect width="%d" height="%d" fill="#ffffff"/>`, w, h)
	buf.WriteString(`<path fill="#000000" d="`)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if dark(code, x, y) {
				fmt.Fprintf(&buf, "M%d %dh1v1h-1z", x-b.Min.X, y-b.Min.Y)
			}
		}
	}
	buf.WriteString(`"/></svg>`)
	return buf.Bytes(), nil
}

func dark(code barcode.Barcode, x, y int) bool {
	r, g, b, _ := code.At(x, y).RGBA()
	return r+g+b < 3*0x8000
}

var _ billing.QRRenderer = (*Renderer)(nil)
