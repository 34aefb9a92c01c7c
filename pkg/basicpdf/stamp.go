package basicpdf

import (
	"fmt"
	"strings"
	"time"

	"github.com/skip2/go-qrcode"
)

type StampKind string

const (
	StampSignature   StampKind = "signature"
	StampCertificate StampKind = "certificate"
)

// Stamp is the visual element composited onto pages. It is immutable once built.
type Stamp interface {
	Kind() StampKind
	// Bind prepares the stamp for one document, e.g. embeds its images once.
	Bind(doc Document) (PaintFunc, error)
}

// PaintFunc draws a bound stamp into r on the given page of the bound document.
type PaintFunc func(page int, r DocumentRect) error

// SignatureStamp is a hand-drawn signature bitmap.
type SignatureStamp struct {
	data []byte
	size Size
}

// NewSignatureStamp validates a PNG (or JPEG) signature. Blank drawings are rejected.
func NewSignatureStamp(data []byte) (*SignatureStamp, error) {
	img, err := decodeImage(data)
	if err != nil {
		return nil, err
	}
	if !hasVisiblePixel(img) {
		return nil, ErrEmptySignature
	}

	b := img.Bounds()
	cp := make([]byte, len(data))
	copy(cp, data)

	return &SignatureStamp{
		data: cp,
		size: Size{Width: float64(b.Dx()), Height: float64(b.Dy())},
	}, nil
}

func (s *SignatureStamp) Kind() StampKind { return StampSignature }

// Size is the pixel size of the captured drawing.
func (s *SignatureStamp) Size() Size { return s.size }

func (s *SignatureStamp) Bind(doc Document) (PaintFunc, error) {
	img, err := doc.EmbedImage(s.data)
	if err != nil {
		return nil, fmt.Errorf("failed to embed signature: %w", err)
	}
	return func(page int, r DocumentRect) error {
		return doc.DrawImage(page, img, r)
	}, nil
}

var (
	certificateAccent     = rgb(0.1, 0.4, 0.8)
	certificateBackground = rgb(0.98, 0.98, 1)
	certificateLabelColor = rgb(0.4, 0.4, 0.4)
	certificateNameColor  = rgb(0.1, 0.1, 0.1)
	certificateTextColor  = rgb(0.3, 0.3, 0.3)
	certificateMutedColor = rgb(0.5, 0.5, 0.5)
)

const (
	certificateDateLayout     = "02/01/2006"
	certificateDateTimeLayout = "02/01/2006, 15:04:05"
	certificateSerialPreview  = 16
)

// CertificateStamp is the visual block describing a validated certificate.
type CertificateStamp struct {
	Info     CertificateInfo
	SignedAt time.Time
	// QRCode adds a QR code with the certificate fingerprint on the right side
	QRCode bool
}

func NewCertificateStamp(info CertificateInfo, signedAt time.Time, withQRCode bool) *CertificateStamp {
	return &CertificateStamp{Info: info, SignedAt: signedAt, QRCode: withQRCode}
}

func (s *CertificateStamp) Kind() StampKind { return StampCertificate }

// Lines returns the text lines of the block, top to bottom, footer excluded.
func (s *CertificateStamp) Lines() []string {
	serial := s.Info.SerialNumber
	if len(serial) > certificateSerialPreview {
		serial = serial[:certificateSerialPreview] + "..."
	}

	return []string{
		"FIRMADO DIGITALMENTE POR:",
		strings.ToUpper(s.Info.SubjectName),
		fmt.Sprintf("EMISOR: %s", s.Info.IssuerName),
		fmt.Sprintf("FECHA: %s", s.SignedAt.Format(certificateDateTimeLayout)),
		fmt.Sprintf("VALIDEZ: %s - %s", s.Info.ValidFrom.Format(certificateDateLayout), s.Info.ValidTo.Format(certificateDateLayout)),
		fmt.Sprintf("SERIAL: %s", serial),
	}
}

const certificateFooter = "VERIFICADO POR BASICPDF TOOLKIT"

type certificateLine struct {
	offset float64
	style  TextStyle
}

// vertical offsets below the first baseline, in points
var certificateLayout = []certificateLine{
	{0, TextStyle{Font: FontCourier, Size: 7, Color: certificateLabelColor}},
	{12, TextStyle{Font: FontCourierBold, Size: 9, Color: certificateNameColor}},
	{30, TextStyle{Font: FontCourier, Size: 7, Color: certificateTextColor}},
	{42, TextStyle{Font: FontCourier, Size: 7, Color: certificateTextColor}},
	{54, TextStyle{Font: FontCourier, Size: 7, Color: certificateTextColor}},
	{66, TextStyle{Font: FontCourier, Size: 6, Color: certificateMutedColor}},
}

func (s *CertificateStamp) Bind(doc Document) (PaintFunc, error) {
	var qr ImageRef
	if s.QRCode && s.Info.Fingerprint != "" {
		png, err := qrcode.Encode(s.Info.Fingerprint, qrcode.Medium, 256)
		if err != nil {
			return nil, fmt.Errorf("failed to generate QR code: %w", err)
		}
		qr, err = doc.EmbedImage(png)
		if err != nil {
			return nil, fmt.Errorf("failed to embed QR code: %w", err)
		}
	}

	lines := s.Lines()

	return func(page int, r DocumentRect) error {
		if err := doc.DrawRectangle(page, r, RectStyle{
			Fill:        &certificateBackground,
			Border:      &certificateAccent,
			BorderWidth: 1.5,
		}); err != nil {
			return err
		}

		// security bar on the left edge
		bar := r
		bar.Width = min(6, r.Width)
		if err := doc.DrawRectangle(page, bar, RectStyle{Fill: &certificateAccent}); err != nil {
			return err
		}

		textX := r.X + 15
		startY := r.Y + r.Height - 20
		for i, line := range lines {
			l := certificateLayout[i]
			if err := doc.DrawText(page, line, Position{X: textX, Y: startY - l.offset}, l.style); err != nil {
				return err
			}
		}

		footer := TextStyle{Font: FontCourierBold, Size: 6, Color: certificateAccent}
		if err := doc.DrawText(page, certificateFooter, Position{X: textX, Y: r.Y + 8}, footer); err != nil {
			return err
		}

		if qr != nil {
			side := r.Height - 16
			if side >= 24 && r.Width >= 2*r.Height {
				qrRect := DocumentRect{
					Position: Position{X: r.X + r.Width - side - 8, Y: r.Y + 8},
					Size:     Size{Width: side, Height: side},
				}
				if err := doc.DrawImage(page, qr, qrRect); err != nil {
					return err
				}
			}
		}
		return nil
	}, nil
}
