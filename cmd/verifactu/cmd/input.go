package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/verifactu-api/internal/application/dto"
	"github.com/jhoicas/verifactu-api/internal/domain/entity"
)

// Tipos de registro admitidos por --type.
const (
	kindInvoice      = "invoice"
	kindCancellation = "cancellation"
)

// openInput abre path ("-" es stdin) decodificando el charset indicado a UTF-8.
func openInput(path, charset string, stdin io.Reader) (io.ReadCloser, error) {
	var rc io.ReadCloser
	if path == "-" {
		rc = io.NopCloser(stdin)
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("abrir %s: %w", path, err)
		}
		rc = f
	}

	switch strings.ToLower(strings.TrimSpace(charset)) {
	case "", "utf-8", "utf8":
		return rc, nil
	case "windows-1252", "cp1252":
		return readCloser{transform.NewReader(rc, charmap.Windows1252.NewDecoder()), rc}, nil
	case "iso-8859-1", "iso8859-1", "latin1":
		return readCloser{transform.NewReader(rc, charmap.ISO8859_1.NewDecoder()), rc}, nil
	default:
		rc.Close()
		return nil, fmt.Errorf("charset no soportado: %q", charset)
	}
}

type readCloser struct {
	io.Reader
	io.Closer
}

func decodeJSON(path, charset string, stdin io.Reader, v any) error {
	rc, err := openInput(path, charset, stdin)
	if err != nil {
		return err
	}
	defer rc.Close()
	dec := json.NewDecoder(rc)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("leer %s: %w", path, err)
	}
	return nil
}

// loadRecord lee un alta o una anulación según kind.
func loadRecord(path, kind, charset string, stdin io.Reader) (entity.ChainedRecord, error) {
	switch kind {
	case kindInvoice:
		var in dto.InvoiceSubmissionRequest
		if err := decodeJSON(path, charset, stdin, &in); err != nil {
			return nil, err
		}
		return in.ToEntity(), nil
	case kindCancellation:
		var in dto.InvoiceCancellationRequest
		if err := decodeJSON(path, charset, stdin, &in); err != nil {
			return nil, err
		}
		return in.ToEntity(), nil
	default:
		return nil, fmt.Errorf("--type debe ser %s o %s", kindInvoice, kindCancellation)
	}
}
