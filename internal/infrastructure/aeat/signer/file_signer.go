package signer

import (
	"context"
	"crypto/tls"
	"sync"

	"github.com/jhoicas/verifactu-api/internal/application/billing"
	"github.com/jhoicas/verifactu-api/pkg/verifactu"
)

// FileSigner carga el certificado desde disco (una vez por ruta) y firma con el Signer subyacente.
type FileSigner struct {
	signer verifactu.Signer

	mu    sync.Mutex
	certs map[string]tls.Certificate
}

// NewFileSigner crea el firmador; si signer es nil usa DigitalSignatureService.
func NewFileSigner(signer verifactu.Signer) *FileSigner {
	if signer == nil {
		signer = NewDigitalSignatureService()
	}
	return &FileSigner{signer: signer, certs: make(map[string]tls.Certificate)}
}

// SignRecord implementa billing.RecordSigner.
func (f *FileSigner) SignRecord(ctx context.Context, xmlBytes []byte, ref billing.CertificateRef) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cert, err := f.Certificate(ref)
	if err != nil {
		return nil, err
	}
	return f.signer.Sign(xmlBytes, cert)
}

// Certificate devuelve el certificado de ref, cargándolo la primera vez.
func (f *FileSigner) Certificate(ref billing.CertificateRef) (tls.Certificate, error) {
	key := ref.Path + "|" + ref.KeyPath
	f.mu.Lock()
	defer f.mu.Unlock()
	if cert, ok := f.certs[key]; ok {
		return cert, nil
	}
	cert, err := Load(ref.Path, ref.KeyPath, ref.Password)
	if err != nil {
		return tls.Certificate{}, err
	}
	f.certs[key] = cert
	return cert, nil
}

var _ billing.RecordSigner = (*FileSigner)(nil)
