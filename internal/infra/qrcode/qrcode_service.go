package qrcode

import (
	"net/url"
	"strings"

	"eventboard/internal/domain/service"
	"eventboard/internal/errors"

	"github.com/skip2/go-qrcode"
)

const (
	defaultSize    = 256
	defaultBaseURL = "eventboard://events"
)

type qrcodeService struct {
	size                 int
	errorCorrectionLevel qrcode.RecoveryLevel
	baseURL              string
}

// NewQRCodeService creates a new QR code service instance. Codes encode
// baseURL followed by the event id, e.g. eventboard://events/abc.
func NewQRCodeService(size int, errorCorrectionLevel, baseURL string) service.QRCodeService {
	// Set error correction level
	var level qrcode.RecoveryLevel
	switch errorCorrectionLevel {
	case "L":
		level = qrcode.Low
	case "M":
		level = qrcode.Medium
	case "Q":
		level = qrcode.High
	case "H":
		level = qrcode.Highest
	default:
		level = qrcode.Medium
	}

	if size <= 0 {
		size = defaultSize
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}

	return &qrcodeService{
		size:                 size,
		errorCorrectionLevel: level,
		baseURL:              strings.TrimRight(baseURL, "/"),
	}
}

// EventLink returns the deep link encoded in an event's share code.
func (s *qrcodeService) EventLink(eventID string) string {
	return s.baseURL + "/" + url.PathEscape(eventID)
}

// GenerateEventQR generates a PNG QR code linking to the event
func (s *qrcodeService) GenerateEventQR(eventID string) ([]byte, error) {
	if eventID == "" {
		return nil, errors.New("event ID is required")
	}

	qrCode, err := qrcode.New(s.EventLink(eventID), s.errorCorrectionLevel)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create QR code")
	}

	pngBytes, err := qrCode.PNG(s.size)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate PNG")
	}

	return pngBytes, nil
}
