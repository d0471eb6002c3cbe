// Package pdf draws the application form directly onto an A4 page and reads
// generated PDFs back for inspection.
package pdf

import (
	"fmt"
	"time"

	"github.com/a3tai/sign-form/internal/form"
	"github.com/a3tai/sign-form/internal/signature"
)

// ContentType of emitted documents
const ContentType = "application/pdf"

// Page geometry in millimetres, top-left origin
const (
	PageWidth  = 210.0
	PageHeight = 297.0
	Margin     = 20.0
	FontSize   = 12.0

	SignatureWidth  = 60.0
	SignatureHeight = 30.0

	// SealText is printed next to the signature image
	SealText = "2002(인)"
)

// Align of a text operation relative to its X coordinate
type Align int

const (
	AlignLeft Align = iota
	AlignRight
)

// Op is a single absolutely positioned drawing operation
type Op interface {
	op()
}

// TextOp draws Text with its baseline at Y
type TextOp struct {
	X, Y  float64
	Text  string
	Align Align
}

// ImageOp draws a raster image into the box at X, Y sized W×H
type ImageOp struct {
	X, Y, W, H float64
	MIME       string
	Data       []byte
}

func (TextOp) op()  {}
func (ImageOp) op() {}

// FormatDate renders date as "YYYY년 MM월 DD일"
func FormatDate(date time.Time) string {
	return fmt.Sprintf("%04d년 %02d월 %02d일", date.Year(), int(date.Month()), date.Day())
}

// Layout returns the operations that make up the form page
func Layout(record form.Record, date time.Time, sig *signature.Image) []Op {
	y := Margin
	ops := []Op{
		TextOp{X: PageWidth - Margin, Y: y, Text: FormatDate(date), Align: AlignRight},
	}
	y += 20

	ops = append(ops, TextOp{X: Margin, Y: y, Text: "청구인 공간명 : " + record.SpaceName})
	y += 10
	ops = append(ops, TextOp{X: Margin, Y: y, Text: "주소: " + record.Address})
	y += 10
	ops = append(ops, TextOp{X: Margin, Y: y, Text: "신청자(대표) : " + record.Applicant})
	y += 20

	if sig != nil {
		ops = append(ops, ImageOp{X: Margin, Y: y, W: SignatureWidth, H: SignatureHeight, MIME: sig.MIME, Data: sig.Data})
	}
	ops = append(ops, TextOp{X: Margin + SignatureWidth + 5, Y: y + SignatureHeight/2 + 3, Text: SealText})
	return ops
}
