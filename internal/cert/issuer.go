// Package cert renders mastery certificates and persists them to object
// storage under deterministic keys.
package cert

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"codequest-service/internal/domain"
	"codequest-service/internal/logging"
)

// ArtifactStore uploads a rendered document and returns its public URL.
type ArtifactStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Issuer produces the certificate artifact for a fully completed
// language. The storage key is derived from (user, language) only, so
// re-issuing overwrites the previous object instead of duplicating it.
type Issuer struct {
	store ArtifactStore
	log   *logging.Logger
	now   func() time.Time
}

func NewIssuer(store ArtifactStore, log *logging.Logger) *Issuer {
	if log == nil {
		log = logging.NewNop()
	}
	return &Issuer{store: store, log: log, now: time.Now}
}

// WithClock is test-only for deterministic issue dates.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

// Issue renders the PDF and uploads it, returning the public URL.
func (i *Issuer) Issue(ctx context.Context, holderName, languageName, userID string) (string, error) {
	issuedAt := i.now()
	data, err := render(holderName, languageName, CertificateID(userID, issuedAt), issuedAt)
	if err != nil {
		return "", err
	}

	key := ArtifactKey(userID, languageName)
	url, err := i.store.Upload(ctx, key, data, "application/pdf")
	if err != nil {
		return "", fmt.Errorf("upload certificate: %w", err)
	}
	i.log.Info("certificate rendered", "key", key, "bytes", len(data))
	return url, nil
}

// ArtifactKey is the deterministic object key for a (user, language)
// certificate.
func ArtifactKey(userID, languageName string) string {
	return fmt.Sprintf("certificates/%s_%s_certificate.pdf", userID, slug(languageName))
}

// CertificateID is printed on the document: user suffix plus a base36
// issue timestamp.
func CertificateID(userID string, issuedAt time.Time) string {
	suffix := userID
	if len(suffix) > 8 {
		suffix = suffix[len(suffix)-8:]
	}
	return fmt.Sprintf("CQ-%s-%s",
		strings.ToUpper(suffix),
		strings.ToUpper(strconv.FormatInt(issuedAt.Unix(), 36)))
}

func slug(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "_")
}

// A4 landscape dimensions in millimetres.
const (
	pageW   = 297.0
	pageH   = 210.0
	marginX = 24.0
)

// render draws the fixed certificate layout: brand header, holder name,
// language plate, issue date and certificate identifier.
func render(holderName, languageName, certID string, issuedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	// Dark slate background.
	pdf.SetFillColor(15, 23, 42)
	pdf.Rect(0, 0, pageW, pageH, "F")

	// Accent corner strokes.
	pdf.SetDrawColor(96, 165, 250)
	pdf.SetLineWidth(0.8)
	corner := 14.0
	pdf.Line(marginX, 18, marginX+corner, 18)
	pdf.Line(marginX, 18, marginX, 18+corner)
	pdf.Line(pageW-marginX, 18, pageW-marginX-corner, 18)
	pdf.Line(pageW-marginX, 18, pageW-marginX, 18+corner)
	pdf.Line(marginX, pageH-18, marginX+corner, pageH-18)
	pdf.Line(marginX, pageH-18, marginX, pageH-18-corner)
	pdf.Line(pageW-marginX, pageH-18, pageW-marginX-corner, pageH-18)
	pdf.Line(pageW-marginX, pageH-18, pageW-marginX, pageH-18-corner)

	centered := func(y float64, text string, font string, style string, size float64, r, g, b int) {
		pdf.SetFont(font, style, size)
		pdf.SetTextColor(r, g, b)
		pdf.SetXY(marginX, y)
		pdf.CellFormat(pageW-2*marginX, size/2, text, "", 0, "C", false, 0, "")
	}

	centered(26, "CodeQuest", "Helvetica", "B", 30, 96, 165, 250)
	centered(40, "MASTER CERTIFICATE", "Helvetica", "", 12, 148, 163, 184)

	pdf.SetLineWidth(0.5)
	pdf.Line(pageW/2-25, 50, pageW/2+25, 50)

	centered(58, "CERTIFICATE OF ACHIEVEMENT", "Helvetica", "B", 26, 255, 255, 255)
	centered(76, "This certificate is proudly presented to", "Helvetica", "", 13, 203, 213, 225)

	nameSize := 34.0
	if len(holderName) > 26 {
		nameSize = 26.0
	} else if len(holderName) > 20 {
		nameSize = 30.0
	}
	centered(88, holderName, "Helvetica", "B", nameSize, 96, 165, 250)
	centered(108, "for successfully mastering", "Helvetica", "", 14, 226, 232, 240)

	// Language plate.
	plateW, plateH := 120.0, 24.0
	plateX := (pageW - plateW) / 2
	pdf.SetFillColor(30, 41, 59)
	pdf.SetDrawColor(96, 165, 250)
	pdf.Rect(plateX, 118, plateW, plateH, "FD")
	langSize := 24.0
	if len(languageName) > 18 {
		langSize = 18.0
	}
	centered(126, languageName, "Helvetica", "B", langSize, 96, 165, 250)

	centered(152, "Issued on", "Helvetica", "", 12, 203, 213, 225)
	centered(160, issuedAt.Format("January 2, 2006"), "Helvetica", "B", 16, 255, 255, 255)

	centered(180, "Verified by CodeQuest Learning Platform", "Helvetica", "", 9, 203, 213, 225)
	centered(186, "Certificate ID: "+certID, "Helvetica", "", 7, 203, 213, 225)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRenderFailed, err)
	}
	return buf.Bytes(), nil
}
