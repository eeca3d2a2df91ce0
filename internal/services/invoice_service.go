package services

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"time"

	"ridedesk/internal/domain/models"
	"ridedesk/internal/utils"

	"github.com/phpdave11/gofpdf"
)

const (
	DefaultInvoiceNumber  = "INV-0001"
	DefaultSupportContact = "For any queries please contact support."
)

// InvoiceOptions are the caller-supplied parts of an invoice.
// Zero values fall back to the defaults described on each field.
type InvoiceOptions struct {
	FileName      string
	InvoiceNumber string         // DefaultInvoiceNumber when empty
	InvoiceDate   *time.Time     // render time when nil
	Vendor        *models.Vendor // "N/A" when nil
	City          *models.City   // "N/A" when nil
}

// InvoiceLine is the display form of one ride ticket.
type InvoiceLine struct {
	SNo       int
	Recipient string
	MobileNo  string
	City      string
	Pickup    string
	Drop      string
	StartDate string
	StartTime string
	EndDate   string
	EndTime   string
	Cost      string
}

// InvoiceView is everything drawn on the invoice, already formatted.
type InvoiceView struct {
	Number       string
	Date         string
	BillToVendor string
	BillToCity   string
	Lines        []InvoiceLine
	Total        float64
	TotalLabel   string
}

// Document is a rendered, downloadable file.
type Document struct {
	FileName    string
	ContentType string
	Content     []byte
}

// InvoiceRenderer draws ride-ticket invoices and summaries as PDF.
type InvoiceRenderer struct {
	Logo           []byte
	SupportContact string
	Now            func() time.Time
	RequestID      string
}

// BuildInvoiceLines derives display rows; a nil cost shows "-".
func BuildInvoiceLines(rows []models.RideTicket) []InvoiceLine {
	lines := make([]InvoiceLine, 0, len(rows))
	for i, r := range rows {
		line := InvoiceLine{
			SNo:       i + 1,
			Recipient: utils.Fallback("-", r.UserName, r.UserID),
			MobileNo:  utils.Fallback("-", r.MobileNo),
			City:      "-",
			Pickup:    "-",
			Drop:      "-",
			StartDate: utils.DisplayDate(r.RideStartTime),
			StartTime: utils.DisplayTime(r.RideStartTime),
			EndDate:   utils.DisplayDate(r.RideEndTime),
			EndTime:   utils.DisplayTime(r.RideEndTime),
			Cost:      utils.FormatOptionalCurrency(r.Cost),
		}
		if r.City != nil {
			line.City = utils.Fallback("-", r.City.CityName)
		}
		if r.PickupLocation != nil {
			line.Pickup = utils.Fallback("-", r.PickupLocation.LocationName)
		}
		if r.DropLocation != nil {
			line.Drop = utils.Fallback("-", r.DropLocation.LocationName)
		}
		lines = append(lines, line)
	}
	return lines
}

// InvoiceTotal sums ticket costs, counting a missing cost as 0.
func InvoiceTotal(rows []models.RideTicket) float64 {
	var total float64
	for _, r := range rows {
		if r.Cost != nil {
			total += *r.Cost
		}
	}
	return total
}

// BuildInvoiceView applies every fallback of the invoice layout.
func (s InvoiceRenderer) BuildInvoiceView(rows []models.RideTicket, opts InvoiceOptions) InvoiceView {
	date := s.now()
	if opts.InvoiceDate != nil && !opts.InvoiceDate.IsZero() {
		date = *opts.InvoiceDate
	}

	view := InvoiceView{
		Number:       utils.Fallback(DefaultInvoiceNumber, opts.InvoiceNumber),
		Date:         utils.DisplayDate(&date),
		BillToVendor: "N/A",
		BillToCity:   "N/A",
		Lines:        BuildInvoiceLines(rows),
		Total:        InvoiceTotal(rows),
	}
	if opts.Vendor != nil {
		view.BillToVendor = utils.Fallback("N/A", opts.Vendor.VendorName)
	}
	if opts.City != nil {
		view.BillToCity = utils.Fallback("N/A", opts.City.CityName)
	}
	view.TotalLabel = utils.FormatCurrency(view.Total)
	return view
}

// RenderInvoice produces "<fileName>.pdf" with header, itemized table, total
// box and a support footer on every page.
func (s InvoiceRenderer) RenderInvoice(rows []models.RideTicket, opts InvoiceOptions) (Document, error) {
	view := s.BuildInvoiceView(rows, opts)
	utils.LogEvent(s.RequestID, "invoice", "render_invoice", fmt.Sprintf("rows=%d number=%s", len(view.Lines), view.Number))

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Ride Invoice "+view.Number, true)
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	s.installFooter(pdf, tr)

	pdf.AddPage()
	s.drawInvoiceHeader(pdf, tr, view)

	cols := invoiceColumns()
	drawTableHead(pdf, cols)
	for i, l := range view.Lines {
		ensureRoom(pdf, rowHeight, cols)
		drawTableRow(pdf, tr, cols, i, []string{
			fmt.Sprintf("%d", l.SNo), l.Recipient, l.MobileNo, l.City, l.Pickup, l.Drop,
			l.StartDate, l.StartTime, l.EndDate, l.EndTime, l.Cost,
		})
	}

	ensureRoom(pdf, 16, nil)
	pdf.Ln(4)
	drawTotalBox(pdf, view.TotalLabel)

	return s.output(pdf, opts.FileName, "invoice")
}

// BuildSummaryLines is BuildInvoiceLines with the recipient shown as the
// ticket's user id, not the display name.
func BuildSummaryLines(rows []models.RideTicket) []InvoiceLine {
	lines := BuildInvoiceLines(rows)
	for i := range lines {
		lines[i].Recipient = utils.Fallback("-", rows[i].UserID)
	}
	return lines
}

// RenderTicketSummary produces the plain "Ticket Summary" table used by the
// ticket list export.
func (s InvoiceRenderer) RenderTicketSummary(rows []models.RideTicket, fileName string) (Document, error) {
	lines := BuildSummaryLines(rows)
	utils.LogEvent(s.RequestID, "invoice", "render_summary", fmt.Sprintf("rows=%d", len(lines)))

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Ticket Summary", false)
	pdf.SetMargins(14, 14, 14)
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	s.installFooter(pdf, tr)

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Ticket Summary", "", 1, "L", false, 0, "")
	pdf.Ln(4)

	cols := summaryColumns()
	drawTableHead(pdf, cols)
	for i, l := range lines {
		ensureRoom(pdf, rowHeight, cols)
		drawTableRow(pdf, tr, cols, i, []string{
			fmt.Sprintf("%d", l.SNo), l.Recipient, l.MobileNo, l.City, l.Pickup, l.Drop, l.Cost,
		})
	}

	return s.output(pdf, fileName, "ticket_summary")
}

func (s InvoiceRenderer) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s InvoiceRenderer) installFooter(pdf *gofpdf.Fpdf, tr func(string) string) {
	notice := utils.Fallback(DefaultSupportContact, s.SupportContact)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-14)
		pdf.SetDrawColor(200, 200, 200)
		w, _ := pdf.GetPageSize()
		left, _, right, _ := pdf.GetMargins()
		pdf.Line(left, pdf.GetY(), w-right, pdf.GetY())
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(90, 90, 90)
		pdf.CellFormat(0, 6, tr(fmt.Sprintf("%s  |  Page %d", notice, pdf.PageNo())), "", 0, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	})
}

func (s InvoiceRenderer) drawInvoiceHeader(pdf *gofpdf.Fpdf, tr func(string) string, view InvoiceView) {
	left, top, _, _ := pdf.GetMargins()
	if !s.drawLogo(pdf, left, top) {
		pdf.SetFillColor(70, 95, 255)
		pdf.Rect(left, top, 24, 14, "F")
		pdf.SetXY(left, top)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.SetTextColor(255, 255, 255)
		pdf.CellFormat(24, 14, "RD", "", 0, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}

	pdf.SetXY(left+30, top)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(100, 8, "Ride Invoice", "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 8, "Invoice Date: "+view.Date, "", 1, "R", false, 0, "")
	pdf.SetX(left + 30)
	pdf.CellFormat(100, 6, tr("Invoice No: "+view.Number), "", 1, "L", false, 0, "")

	pdf.SetY(top + 20)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 6, "Bill To", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 5, tr("Vendor: "+view.BillToVendor), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, tr("City: "+view.BillToCity), "", 1, "L", false, 0, "")
	pdf.Ln(4)
}

// drawLogo places the configured logo; it reports false when there is none
// or it cannot be decoded, so the caller can draw a placeholder instead.
func (s InvoiceRenderer) drawLogo(pdf *gofpdf.Fpdf, x, y float64) bool {
	if len(s.Logo) == 0 {
		return false
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(s.Logo))
	if err != nil {
		return false
	}
	imageType := strings.ToUpper(format)
	if imageType == "JPEG" {
		imageType = "JPG"
	}
	opts := gofpdf.ImageOptions{ImageType: imageType, ReadDpi: true}
	pdf.RegisterImageOptionsReader("logo", opts, bytes.NewReader(s.Logo))
	if !pdf.Ok() {
		return false
	}
	pdf.ImageOptions("logo", x, y, 24, 0, false, opts, 0, "")
	return pdf.Ok()
}

func (s InvoiceRenderer) output(pdf *gofpdf.Fpdf, fileName, fallback string) (Document, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return Document{}, fmt.Errorf("render pdf: %w", err)
	}
	name := utils.SafeFilenamePart(utils.Fallback(fallback, strings.TrimSuffix(fileName, ".pdf")))
	return Document{
		FileName:    name + ".pdf",
		ContentType: "application/pdf",
		Content:     buf.Bytes(),
	}, nil
}

type tableColumn struct {
	Header string
	Width  float64
	Align  string
}

const rowHeight = 7.0

func invoiceColumns() []tableColumn {
	return []tableColumn{
		{"S.No", 12, "C"},
		{"Recipient", 32, "L"},
		{"Mobile No", 28, "C"},
		{"City", 26, "L"},
		{"Pickup Location", 34, "L"},
		{"Drop Location", 34, "L"},
		{"Start Date", 24, "C"},
		{"Start Time", 20, "C"},
		{"End Date", 24, "C"},
		{"End Time", 20, "C"},
		{"Cost", 23, "R"},
	}
}

func summaryColumns() []tableColumn {
	return []tableColumn{
		{"S.No", 12, "C"},
		{"Recipient", 30, "C"},
		{"Recipient No", 28, "C"},
		{"City", 24, "C"},
		{"Pickup Location", 32, "C"},
		{"Drop Location", 32, "C"},
		{"Cost", 24, "C"},
	}
}

func drawTableHead(pdf *gofpdf.Fpdf, cols []tableColumn) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(70, 95, 255)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	for _, c := range cols {
		pdf.CellFormat(c.Width, rowHeight+1, c.Header, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetTextColor(0, 0, 0)
}

func drawTableRow(pdf *gofpdf.Fpdf, tr func(string) string, cols []tableColumn, idx int, cells []string) {
	pdf.SetFont("Helvetica", "", 9)
	if idx%2 == 1 {
		pdf.SetFillColor(236, 243, 255)
	} else {
		pdf.SetFillColor(255, 255, 255)
	}
	for i, c := range cols {
		text := ""
		if i < len(cells) {
			text = fitText(pdf, tr(cells[i]), c.Width-2)
		}
		pdf.CellFormat(c.Width, rowHeight, text, "1", 0, c.Align, true, 0, "")
	}
	pdf.Ln(-1)
}

// ensureRoom starts a new page (re-drawing the table head when cols is set)
// if the next h millimetres would run into the footer.
func ensureRoom(pdf *gofpdf.Fpdf, h float64, cols []tableColumn) {
	_, pageH := pdf.GetPageSize()
	if pdf.GetY()+h <= pageH-20 {
		return
	}
	pdf.AddPage()
	if cols != nil {
		drawTableHead(pdf, cols)
	}
}

func drawTotalBox(pdf *gofpdf.Fpdf, total string) {
	w, _ := pdf.GetPageSize()
	_, _, right, _ := pdf.GetMargins()
	boxW := 70.0
	pdf.SetX(w - right - boxW)
	pdf.SetFillColor(236, 243, 255)
	pdf.SetDrawColor(70, 95, 255)
	pdf.SetLineWidth(0.4)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(35, 10, "Total", "LTB", 0, "L", true, 0, "")
	pdf.CellFormat(boxW-35, 10, total, "RTB", 1, "R", true, 0, "")
	pdf.SetLineWidth(0.1)
}

// fitText trims s with an ellipsis until it fits width w.
func fitText(pdf *gofpdf.Fpdf, s string, w float64) string {
	if pdf.GetStringWidth(s) <= w {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(string(r)+"...") > w {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}
