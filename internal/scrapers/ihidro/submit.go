package ihidro

import (
	"context"
	"encoding/json"
	"fmt"
	"ihidro-assist/internal/components/chrono"
	"ihidro-assist/internal/components/htmlutil"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	podLabel             = "POD"
	meterSerialLabel     = "Serie contor"
	previousReadingLabel = "Ultimul index citit de distribuitor"

	registerCategory = "1.8.0"
	readDateLayout   = "02/01/2006"
)

// SubmitStrategy carries out a submission on a logged in client.
type SubmitStrategy interface {
	// Name is the value used to select the strategy in configuration.
	Name() string
	// check fails a submission before any request is made.
	check(c *Client) error
	submit(ctx context.Context, c *Client, value string) error
}

// StrategyFromName returns the strategy configured by `name`, an empty name selects
// the http strategy.
func StrategyFromName(name string, browser BrowserOptions) (SubmitStrategy, error) {
	switch name {
	case "", HTTPStrategy{}.Name():
		return HTTPStrategy{}, nil
	case BrowserStrategy{}.Name():
		return BrowserStrategy{Options: browser}, nil
	default:
		return nil, fmt.Errorf("unknown submission strategy %q", name)
	}
}

var readingRegex = regexp.MustCompile(`^\d+([.,]\d+)?$`)

// SubmitReading logs in if needed and submits `value` as the new meter index.
// It makes a single attempt, the session stays logged in whatever the outcome.
func (c *Client) SubmitReading(ctx context.Context, value string) (err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, span := c.startSpan(ctx, "client:SubmitReading")
	defer func() { endSpan(span, err) }()

	value = strings.TrimSpace(value)
	if !readingRegex.MatchString(value) {
		return fmt.Errorf("%w: %q", ErrInvalidReading, value)
	}
	err = c.strategy.check(c)
	if err != nil {
		return err
	}

	err = c.ensureLoggedIn(ctx)
	if err != nil {
		return err
	}

	c.tel.ReportDebug(report_client_submit, c.strategy.Name(), value)
	err = c.strategy.submit(ctx, c, value)
	if err != nil {
		c.tel.ReportBroken(report_client_submit, err)
		return err
	}
	return nil
}

// Prerequisites logs in if needed and scrapes the values a submission would use.
func (c *Client) Prerequisites(ctx context.Context) (prereqs SubmissionPrerequisites, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, span := c.startSpan(ctx, "client:Prerequisites")
	defer func() { endSpan(span, err) }()

	err = c.ensureLoggedIn(ctx)
	if err != nil {
		return SubmissionPrerequisites{}, err
	}
	return c.prerequisites(ctx)
}

// c.mu must be held.
func (c *Client) prerequisites(ctx context.Context) (SubmissionPrerequisites, error) {
	doc, err := c.getDocument(ctx, report_client_prerequisite, selfMeterPath)
	if err != nil {
		return SubmissionPrerequisites{}, err
	}
	prereqs, err := parsePrerequisites(doc)
	if err != nil {
		c.tel.ReportBroken(report_client_prerequisite, err)
		return SubmissionPrerequisites{}, err
	}
	return prereqs, nil
}

func parsePrerequisites(doc *goquery.Document) (SubmissionPrerequisites, error) {
	var missing []string
	cell := func(label string) string {
		text, _ := htmlutil.TrimmedText(doc.Find(fmt.Sprintf(`td[data-th="%s"]`, label)))
		if text == "" {
			missing = append(missing, fmt.Sprintf("%q", label))
		}
		return text
	}

	prereqs := SubmissionPrerequisites{
		PointOfDelivery: cell(podLabel),
		MeterSerial:     cell(meterSerialLabel),
		PreviousReading: cell(previousReadingLabel),
	}
	if len(missing) > 0 {
		return SubmissionPrerequisites{}, fmt.Errorf(
			"%w: %s",
			ErrScrapeIncomplete,
			strings.Join(missing, ", "),
		)
	}
	return prereqs, nil
}

// BuildPayload assembles the GetMeterValueRequest body for `value` read at `now`,
// the read date is the calendar day in Bucharest.
func BuildPayload(prereqs SubmissionPrerequisites, account Account, now time.Time, value string) SubmissionPayload {
	return SubmissionPayload{
		ObjMeterValueProxy: MeterValueProxy{
			UsageSelfMeterReadEntity: []MeterReadEntity{{
				POD:                  prereqs.PointOfDelivery,
				SerialNumber:         prereqs.MeterSerial,
				NewMeterReadDate:     now.In(chrono.Bucharest()).Format(readDateLayout),
				RegisterCat:          registerCategory,
				Distributor:          account.Distributor,
				UtilityAccountNumber: account.UtilityAccountNumber,
				PrevMRResult:         prereqs.PreviousReading,
				NewMeterRead:         value,
			}},
		},
	}
}

// HTTPStrategy submits by calling the endpoint behind the portal's submission form.
type HTTPStrategy struct{}

func (HTTPStrategy) Name() string {
	return "http"
}

func (HTTPStrategy) check(c *Client) error {
	if c.account.UtilityAccountNumber == "" {
		return ErrAccountNotConfigured
	}
	return nil
}

func (HTTPStrategy) submit(ctx context.Context, c *Client, value string) error {
	prereqs, err := c.prerequisites(ctx)
	if err != nil {
		return err
	}

	payload := BuildPayload(prereqs, c.account, c.time.Now(), value)
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}

	httpClient, err := c.ensureSession()
	if err != nil {
		return err
	}
	res, err := httpClient.R().
		SetContext(ctx).
		SetHeader("content-type", "application/json").
		SetBody(body).
		Post(meterValuePath)
	err = checkResponse("submit reading", res, err)
	if err != nil {
		return err
	}

	return interpretSubmission(res.Body())
}

func interpretSubmission(body []byte) error {
	var parsed map[string]any
	err := json.Unmarshal(body, &parsed)
	if err != nil {
		return fmt.Errorf("%w: unreadable response: %w", ErrSubmissionRejected, err)
	}
	success, ok := parsed["success"]
	if !ok {
		return fmt.Errorf("%w: response has no success field", ErrSubmissionRejected)
	}
	if !truthy(success) {
		return fmt.Errorf("%w: success is %v", ErrSubmissionRejected, success)
	}
	return nil
}

// truthy follows the loose truthiness the portal's own scripts apply to "success".
func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		return v != ""
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return true
	}
}
