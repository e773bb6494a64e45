package service

// QRCodeService renders share codes for events
type QRCodeService interface {
	// EventLink returns the deep link a share code points at
	EventLink(eventID string) string

	// GenerateEventQR returns a PNG QR code linking to the event
	GenerateEventQR(eventID string) ([]byte, error)
}
