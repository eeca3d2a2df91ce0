// Command invoice-export signs in to a ridedesk server, pulls ride tickets,
// filters them and saves the invoice PDF to disk.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"ridedesk/internal/apiclient"
	"ridedesk/internal/domain/models"
	"ridedesk/internal/services"
	"ridedesk/internal/utils"
)

type options struct {
	baseURL  string
	email    string
	password string
	vendor   string
	city     string
	from     string
	to       string
	fileName string
	number   string
	date     string
	logo     string
	outDir   string
	summary  bool
	timeout  time.Duration
}

func main() {
	var o options
	flag.StringVar(&o.baseURL, "api", envOr("RIDEDESK_API", "http://localhost:8080"), "ridedesk server base URL")
	flag.StringVar(&o.email, "email", os.Getenv("RIDEDESK_EMAIL"), "login email")
	flag.StringVar(&o.password, "password", os.Getenv("RIDEDESK_PASSWORD"), "login password")
	flag.StringVar(&o.vendor, "vendor", "", "vendor id filter")
	flag.StringVar(&o.city, "city", "", "city id or name filter")
	flag.StringVar(&o.from, "from", "", "pickup date from (YYYY-MM-DD)")
	flag.StringVar(&o.to, "to", "", "pickup date to (YYYY-MM-DD)")
	flag.StringVar(&o.fileName, "file", "invoice", "output file name without extension")
	flag.StringVar(&o.number, "number", "", "invoice number")
	flag.StringVar(&o.date, "date", "", "invoice date (YYYY-MM-DD), today when empty")
	flag.StringVar(&o.logo, "logo", os.Getenv("INVOICE_LOGO_PATH"), "PNG logo path")
	flag.StringVar(&o.outDir, "out", ".", "output directory")
	flag.BoolVar(&o.summary, "summary", false, "render the plain ticket summary instead of an invoice")
	flag.DurationVar(&o.timeout, "timeout", time.Minute, "overall timeout")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
	defer cancel()

	path, err := run(ctx, o)
	if err != nil {
		log.Fatalf("invoice-export: %v", err)
	}
	fmt.Println(path)
}

func run(ctx context.Context, o options) (string, error) {
	if o.email == "" || o.password == "" {
		return "", fmt.Errorf("email and password are required")
	}

	q := url.Values{}
	q.Set("vendor", o.vendor)
	q.Set("city", o.city)
	q.Set("from", o.from)
	q.Set("to", o.to)
	filter, err := services.ParseTicketFilter(q, time.UTC)
	if err != nil {
		return "", err
	}

	var invoiceDate *time.Time
	if o.date != "" {
		d, err := utils.ParseDate(o.date, time.UTC)
		if err != nil {
			return "", fmt.Errorf("invalid -date: %w", err)
		}
		invoiceDate = &d
	}

	client := apiclient.New(o.baseURL, o.timeout)
	if _, err := client.Login(ctx, o.email, o.password); err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	rows, err := client.ListRideTickets(ctx, "")
	if err != nil {
		return "", fmt.Errorf("list tickets: %w", err)
	}
	rows = services.FilterTickets(rows, filter)
	utils.LogEvent("", "export", "filter", fmt.Sprintf("rows=%d", len(rows)))

	renderer := services.InvoiceRenderer{SupportContact: os.Getenv("SUPPORT_CONTACT")}
	if o.logo != "" {
		if renderer.Logo, err = os.ReadFile(o.logo); err != nil {
			return "", fmt.Errorf("read logo: %w", err)
		}
	}

	var doc services.Document
	if o.summary {
		doc, err = renderer.RenderTicketSummary(rows, o.fileName)
	} else {
		opts := services.InvoiceOptions{FileName: o.fileName, InvoiceNumber: o.number, InvoiceDate: invoiceDate}
		if opts.Vendor, err = lookupVendor(ctx, client, filter.Vendor); err != nil {
			return "", err
		}
		if opts.City, err = lookupCity(ctx, client, filter.City); err != nil {
			return "", err
		}
		doc, err = renderer.RenderInvoice(rows, opts)
	}
	if err != nil {
		return "", fmt.Errorf("render: %w", err)
	}

	path := filepath.Join(o.outDir, doc.FileName)
	if err := os.WriteFile(path, doc.Content, 0o644); err != nil {
		return "", fmt.Errorf("save: %w", err)
	}
	return path, nil
}

func lookupVendor(ctx context.Context, c *apiclient.Client, id *int64) (*models.Vendor, error) {
	if id == nil {
		return nil, nil
	}
	vendors, err := c.ListVendors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list vendors: %w", err)
	}
	for i := range vendors {
		if vendors[i].ID == *id {
			return &vendors[i], nil
		}
	}
	return nil, nil
}

func lookupCity(ctx context.Context, c *apiclient.Client, value *string) (*models.City, error) {
	if value == nil {
		return nil, nil
	}
	cities, err := c.ListCities(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cities: %w", err)
	}
	id, idErr := strconv.ParseInt(*value, 10, 64)
	for i := range cities {
		if (idErr == nil && cities[i].ID == id) || strings.EqualFold(cities[i].CityName, *value) {
			return &cities[i], nil
		}
	}
	return &models.City{CityName: *value}, nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
