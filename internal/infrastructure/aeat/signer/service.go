// Servicio de firma XAdES enveloped de registros VERI*FACTU.
// Inyecta <ds:Signature> como último hijo del elemento raíz del registro.

package signer

import (
	"bytes"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/ucarion/c14n"

	"github.com/jhoicas/verifactu-api/pkg/verifactu"
)

// DigitalSignatureService implementa la firma XAdES e inyecta el nodo en el XML.
type DigitalSignatureService struct {
	now func() time.Time
}

// NewDigitalSignatureService crea el servicio.
func NewDigitalSignatureService() *DigitalSignatureService {
	return &DigitalSignatureService{now: time.Now}
}

// Sign implementa pkg/verifactu.Signer.
func (s *DigitalSignatureService) Sign(xmlBytes []byte, cert tls.Certificate) ([]byte, error) {
	if len(bytes.TrimSpace(xmlBytes)) == 0 {
		return nil, errors.New("signer: XML vacío")
	}
	if len(cert.Certificate) == 0 {
		return nil, ErrNoCertificate
	}
	priv, ok := cert.PrivateKey.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("signer: el certificado debe incluir llave privada RSA")
	}
	x509Cert, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return nil, fmt.Errorf("signer: parsear certificado: %w", err)
	}

	// 1) Digest del registro completo (Reference URI="", enveloped + C14N)
	canonicalDoc, err := canonicalizeXML(xmlBytes)
	if err != nil {
		return nil, fmt.Errorf("signer: canonicalizar registro: %w", err)
	}
	docDigest := sha256.Sum256(canonicalDoc)
	docDigestB64 := base64.StdEncoding.EncodeToString(docDigest[:])

	// 2) SignedInfo firmado con RSA-SHA256
	signedInfoXML := buildSignedInfo(docDigestB64)
	canonicalSignedInfo, err := canonicalizeXML([]byte(signedInfoXML))
	if err != nil {
		return nil, fmt.Errorf("signer: canonicalizar SignedInfo: %w", err)
	}
	signHash := sha256.Sum256(canonicalSignedInfo)
	signatureValue, err := rsa.SignPKCS1v15(nil, priv, crypto.SHA256, signHash[:])
	if err != nil {
		return nil, fmt.Errorf("signer: firmar SignedInfo: %w", err)
	}

	// 3) KeyInfo y QualifyingProperties
	certDigestB64, issuerName, serial := CertDigestAndIssuerSerial(x509Cert)
	signatureXML := buildFullSignature(signature{
		signedInfo:    signedInfoXML,
		valueB64:      base64.StdEncoding.EncodeToString(signatureValue),
		certB64:       base64.StdEncoding.EncodeToString(x509Cert.Raw),
		signingTime:   s.now().UTC().Format(time.RFC3339),
		certDigestB64: certDigestB64,
		issuerName:    issuerName,
		serialNumber:  serial,
	})

	return injectSignature(xmlBytes, signatureXML)
}

type signature struct {
	signedInfo    string
	valueB64      string
	certB64       string
	signingTime   string
	certDigestB64 string
	issuerName    string
	serialNumber  string
}

func canonicalizeXML(data []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	return c14n.Canonicalize(dec)
}

func buildSignedInfo(docDigestB64 string) string {
	var sb strings.Builder
	sb.WriteString(`<ds:SignedInfo xmlns:ds="` + NamespaceDS + `">`)
	sb.WriteString(`<ds:CanonicalizationMethod Algorithm="` + AlgC14N + `"></ds:CanonicalizationMethod>`)
	sb.WriteString(`<ds:SignatureMethod Algorithm="` + AlgRSASHA256 + `"></ds:SignatureMethod>`)
	sb.WriteString(`<ds:Reference URI="">`)
	sb.WriteString(`<ds:Transforms><ds:Transform Algorithm="` + TransformEnveloped + `"></ds:Transform>`)
	sb.WriteString(`<ds:Transform Algorithm="` + AlgC14N + `"></ds:Transform></ds:Transforms>`)
	sb.WriteString(`<ds:DigestMethod Algorithm="` + AlgSHA256 + `"></ds:DigestMethod>`)
	sb.WriteString(`<ds:DigestValue>` + docDigestB64 + `</ds:DigestValue>`)
	sb.WriteString(`</ds:Reference>`)
	sb.WriteString(`</ds:SignedInfo>`)
	return sb.String()
}

func buildFullSignature(sig signature) string {
	var sb strings.Builder
	sb.WriteString(`<ds:Signature xmlns:ds="` + NamespaceDS + `" xmlns:xades="` + NamespaceXAdES + `">`)
	sb.WriteString(sig.signedInfo)
	sb.WriteString(`<ds:SignatureValue>` + sig.valueB64 + `</ds:SignatureValue>`)
	sb.WriteString(`<ds:KeyInfo><ds:X509Data><ds:X509Certificate>` + sig.certB64 + `</ds:X509Certificate></ds:X509Data></ds:KeyInfo>`)
	sb.WriteString(`<ds:Object><xades:QualifyingProperties>`)
	sb.WriteString(`<xades:SignedProperties Id="` + SignedPropertiesID + `">`)
	sb.WriteString(`<xades:SignedSignatureProperties>`)
	sb.WriteString(`<xades:SigningTime>` + sig.signingTime + `</xades:SigningTime>`)
	sb.WriteString(`<xades:SigningCertificate><xades:Cert><xades:CertDigest><ds:DigestMethod Algorithm="` + AlgSHA256 + `"></ds:DigestMethod>`)
	sb.WriteString(`<ds:DigestValue>` + sig.certDigestB64 + `</ds:DigestValue></xades:CertDigest>`)
	sb.WriteString(`<xades:IssuerSerial><ds:X509IssuerName>` + escapeXML(sig.issuerName) + `</ds:X509IssuerName>`)
	sb.WriteString(`<ds:X509SerialNumber>` + sig.serialNumber + `</ds:X509SerialNumber></xades:IssuerSerial></xades:Cert></xades:SigningCertificate>`)
	sb.WriteString(`<xades:SignaturePolicyIdentifier>`)
	if SigPolicyHashDigest != "" {
		sb.WriteString(`<xades:SignaturePolicyId><xades:SigPolicyId><xades:Identifier>` + SignaturePolicyURL + `</xades:Identifier></xades:SigPolicyId>`)
		sb.WriteString(`<xades:SigPolicyHash><ds:DigestMethod Algorithm="` + AlgSHA256 + `"></ds:DigestMethod><ds:DigestValue>` + SigPolicyHashDigest + `</ds:DigestValue></xades:SigPolicyHash>`)
		sb.WriteString(`</xades:SignaturePolicyId>`)
	} else {
		sb.WriteString(`<xades:SignaturePolicyImplied></xades:SignaturePolicyImplied>`)
	}
	sb.WriteString(`</xades:SignaturePolicyIdentifier>`)
	sb.WriteString(`</xades:SignedSignatureProperties></xades:SignedProperties></xades:QualifyingProperties></ds:Object>`)
	sb.WriteString(`</ds:Signature>`)
	return sb.String()
}

func escapeXML(s string) string {
	var b bytes.Buffer
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

func injectSignature(xmlBytes []byte, signatureXML string) ([]byte, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xmlBytes); err != nil {
		return nil, fmt.Errorf("signer: parsear XML: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, errors.New("signer: documento sin raíz")
	}
	if existing := root.SelectElement("Signature"); existing != nil {
		return nil, errors.New("signer: el registro ya está firmado")
	}
	sigDoc := etree.NewDocument()
	if err := sigDoc.ReadFromString(signatureXML); err != nil {
		return nil, fmt.Errorf("signer: parsear Signature: %w", err)
	}
	if sigRoot := sigDoc.Root(); sigRoot != nil {
		root.AddChild(sigRoot)
	}
	var out bytes.Buffer
	if _, err := doc.WriteTo(&out); err != nil {
		return nil, fmt.Errorf("signer: serializar XML firmado: %w", err)
	}
	return out.Bytes(), nil
}

var _ verifactu.Signer = (*DigitalSignatureService)(nil)
