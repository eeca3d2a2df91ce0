package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"ridedesk/internal/domain"
	"ridedesk/internal/domain/models"
	"ridedesk/internal/repositories"
	"ridedesk/internal/services"
	"ridedesk/internal/utils"

	"github.com/gin-gonic/gin"
)

// GET /api/ride-tickets/invoice?vendor=&city=&from=&to=&fileName=&invoiceNumber=&invoiceDate=
func (a *API) Invoice(c *gin.Context) {
	var invoiceDate *time.Time
	if raw := strings.TrimSpace(c.Query("invoiceDate")); raw != "" {
		d, err := utils.ParseDate(raw, time.UTC)
		if err != nil {
			RespondDomainError(c, domain.ValidationError{Field: "invoiceDate", Msg: "invoiceDate must be YYYY-MM-DD"})
			return
		}
		invoiceDate = &d
	}

	rows, filter, ok := a.filteredTickets(c)
	if !ok {
		return
	}

	opts := services.InvoiceOptions{
		FileName:      c.Query("fileName"),
		InvoiceNumber: c.Query("invoiceNumber"),
		InvoiceDate:   invoiceDate,
	}
	ctx := c.Request.Context()
	if filter.Vendor != nil {
		v, err := repositories.VendorRepository{DB: a.db()}.GetByID(ctx, *filter.Vendor)
		if err != nil && !domain.IsNotFound(err) {
			RespondDomainError(c, err)
			return
		}
		if err == nil {
			opts.Vendor = &v
		}
	}
	if filter.City != nil {
		opts.City = a.billToCity(c, *filter.City)
	}

	doc, err := a.renderer(c).RenderInvoice(rows, opts)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	sendDocument(c, doc)
}

// billToCity resolves the city filter value to a city for the invoice header.
func (a *API) billToCity(c *gin.Context, value string) *models.City {
	if id, err := strconv.ParseInt(value, 10, 64); err == nil {
		city, err := repositories.CityRepository{DB: a.db()}.GetByID(c.Request.Context(), id)
		if err == nil {
			return &city
		}
		return nil
	}
	return &models.City{CityName: value}
}

// GET /api/ride-tickets/summary.pdf?fileName=&vendor=&city=&from=&to=
func (a *API) TicketSummary(c *gin.Context) {
	rows, _, ok := a.filteredTickets(c)
	if !ok {
		return
	}
	doc, err := a.renderer(c).RenderTicketSummary(rows, c.Query("fileName"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	sendDocument(c, doc)
}

func sendDocument(c *gin.Context, doc services.Document) {
	c.Header("Content-Disposition", `attachment; filename="`+doc.FileName+`"`)
	c.Data(http.StatusOK, doc.ContentType, doc.Content)
}
