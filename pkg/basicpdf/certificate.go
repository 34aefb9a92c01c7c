package basicpdf

import (
	"context"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"software.sslmate.com/src/go-pkcs12"
)

const unknownName = "Desconocido"

type CertificateInfo struct {
	SubjectName  string    `json:"subjectName"`
	IssuerName   string    `json:"issuerName"`
	ValidFrom    time.Time `json:"validFrom"`
	ValidTo      time.Time `json:"validTo"`
	SerialNumber string    `json:"serialNumber"`
	// SHA-256 of the DER certificate, upper-case hex
	Fingerprint string `json:"fingerprint"`
}

// CertificateParser opens a password protected certificate container.
type CertificateParser interface {
	Parse(ctx context.Context, data []byte, password string) (*CertificateInfo, error)
}

// PKCS12Parser reads PKCS#12 / PFX containers.
type PKCS12Parser struct{}

func NewPKCS12Parser() *PKCS12Parser {
	return &PKCS12Parser{}
}

func (p *PKCS12Parser) Parse(ctx context.Context, data []byte, password string) (*CertificateInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty container", ErrCertificateAuth)
	}

	_, cert, _, err := pkcs12.DecodeChain(data, password)
	if err != nil {
		if errors.Is(err, pkcs12.ErrIncorrectPassword) {
			return nil, fmt.Errorf("%w: %v", ErrCertificateAuth, err)
		}
		// some containers carry certificates only
		certs, trustErr := pkcs12.DecodeTrustStore(data, password)
		if trustErr != nil || len(certs) == 0 {
			return nil, fmt.Errorf("%w: %v", ErrCertificateAuth, err)
		}
		cert = certs[0]
	}
	if cert == nil {
		return nil, ErrNoCertificate
	}

	return CertificateInfoFromX509(cert), nil
}

func CertificateInfoFromX509(cert *x509.Certificate) *CertificateInfo {
	sum := sha256.Sum256(cert.Raw)

	return &CertificateInfo{
		SubjectName:  commonNameOr(cert.Subject.CommonName, unknownName),
		IssuerName:   commonNameOr(cert.Issuer.CommonName, unknownName),
		ValidFrom:    cert.NotBefore,
		ValidTo:      cert.NotAfter,
		SerialNumber: strings.ToUpper(cert.SerialNumber.Text(16)),
		Fingerprint:  strings.ToUpper(hex.EncodeToString(sum[:])),
	}
}

func commonNameOr(cn, fallback string) string {
	if strings.TrimSpace(cn) == "" {
		return fallback
	}
	return cn
}
