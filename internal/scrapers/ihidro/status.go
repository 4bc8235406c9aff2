package ihidro

import (
	"bytes"
	"context"
	"fmt"
	"ihidro-assist/internal/components/htmlutil"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	windowMarkerSelector  = "#titleRR2"
	invoiceMarkerSelector = "#dvCrDr"
	// the window marker carries this phrase only while readings are accepted
	windowOpenPhrase      = "TRANSMITE INDEXUL"
)

// FetchStatus logs in if needed and reads the account status off the landing page.
// Missing page elements are reported as empty fields, only transport and login
// failures are returned as errors.
func (c *Client) FetchStatus(ctx context.Context) (record StatusRecord, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, span := c.startSpan(ctx, "client:FetchStatus")
	defer func() { endSpan(span, err) }()

	err = c.ensureLoggedIn(ctx)
	if err != nil {
		return StatusRecord{}, err
	}

	doc, err := c.getDocument(ctx, report_client_fetch_status, portalPath)
	if err != nil {
		return StatusRecord{}, err
	}

	record, missing := parseStatus(doc)
	for _, selector := range missing {
		c.tel.ReportWarning(
			report_client_fetch_status,
			fmt.Errorf("element %s not found on landing page", selector),
		)
	}
	return record, nil
}

// getDocument GETs `endpoint` on the session and parses the response as html.
// c.mu must be held.
func (c *Client) getDocument(ctx context.Context, reportId, endpoint string) (*goquery.Document, error) {
	httpClient, err := c.ensureSession()
	if err != nil {
		return nil, err
	}

	res, err := httpClient.R().
		SetContext(ctx).
		Get(endpoint)
	err = checkResponse(endpoint, res, err)
	if err != nil {
		c.tel.ReportBroken(reportId, err)
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		err = transportError(endpoint, fmt.Errorf("read html: %w", err))
		c.tel.ReportBroken(reportId, err)
		return nil, err
	}
	return doc, nil
}

// parseStatus extracts a StatusRecord from the landing page, it also returns the
// selectors of the markers that were not present.
func parseStatus(doc *goquery.Document) (StatusRecord, []string) {
	var missing []string

	windowText, ok := htmlutil.TrimmedText(doc.Find(windowMarkerSelector))
	if !ok {
		missing = append(missing, windowMarkerSelector)
	}
	invoiceText, ok := htmlutil.TrimmedText(doc.Find(invoiceMarkerSelector))
	if !ok {
		missing = append(missing, invoiceMarkerSelector)
	}

	open := isWindowOpen(windowText)
	return StatusRecord{
		TransmissionWindow: transmissionWindow(windowText, open),
		InvoiceText:        invoiceText,
		IsWindowOpen:       open,
	}, missing
}

func isWindowOpen(windowText string) bool {
	return strings.Contains(strings.ToUpper(windowText), windowOpenPhrase)
}

// transmissionWindow condenses the window marker text to "<first> - <last>", the
// marker text ends with "<first> <separator> <last>" while the window is open.
func transmissionWindow(windowText string, open bool) string {
	if !open {
		return WindowClosed
	}
	tokens := strings.Fields(windowText)
	if len(tokens) < 3 {
		return windowText
	}
	return fmt.Sprintf("%s - %s", tokens[len(tokens)-3], tokens[len(tokens)-1])
}
