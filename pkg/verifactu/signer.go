package verifactu

import "crypto/tls"

// Signer firma el XML canónico de un registro (XAdES enveloped).
// La implementación concreta está en infrastructure/aeat/signer.
type Signer interface {
	Sign(xmlBytes []byte, cert tls.Certificate) ([]byte, error)
}
