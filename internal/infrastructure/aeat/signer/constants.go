// Constantes de la firma XAdES enveloped de los registros VERI*FACTU.

package signer

// Política de firma. Sin hash publicado se declara SignaturePolicyImplied.
const (
	SignaturePolicyURL = "https://sede.administracion.gob.es/politica_de_firma_anexo_1.pdf"
)

// SigPolicyHashDigest es el SHA-256 (Base64) del documento de política; vacío = política implícita.
var SigPolicyHashDigest = ""

// Namespaces y algoritmos XMLDSig / XAdES.
const (
	NamespaceDS        = "http://www.w3.org/2000/09/xmldsig#"
	NamespaceXAdES     = "http://uri.etsi.org/01903/v1.3.2#"
	AlgC14N            = "http://www.w3.org/TR/2001/REC-xml-c14n-20010315"
	AlgRSASHA256       = "http://www.w3.org/2001/04/xmldsig-more#rsa-sha256"
	AlgSHA256          = "http://www.w3.org/2001/04/xmlenc#sha256"
	TransformEnveloped = "http://www.w3.org/2000/09/xmldsig#enveloped-signature"
)

// Id de SignedProperties dentro de ds:Object.
const SignedPropertiesID = "xades-signed-props"
