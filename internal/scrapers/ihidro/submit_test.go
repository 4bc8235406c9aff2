package ihidro

import (
	"encoding/json"
	"ihidro-assist/internal/components/testutil"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

var testAccount = Account{UtilityAccountNumber: "8000000001"}

func TestParsePrerequisites(t *testing.T) {
	prereqs, err := parsePrerequisites(parseDocument(t, selfMeterPage))
	require.NoError(t, err)
	require.Equal(t, SubmissionPrerequisites{
		PointOfDelivery: "RO005E512345678",
		MeterSerial:     "12345678",
		PreviousReading: "4321",
	}, prereqs)

	_, err = parsePrerequisites(parseDocument(t, selfMeterIncompletePage))
	require.ErrorIs(t, err, ErrScrapeIncomplete)
	require.Contains(t, err.Error(), `"POD"`)
	require.Contains(t, err.Error(), `"Serie contor"`)
	require.NotContains(t, err.Error(), "Ultimul index")
}

func TestBuildPayload(t *testing.T) {
	prereqs := SubmissionPrerequisites{
		PointOfDelivery: "RO005E512345678",
		MeterSerial:     "12345678",
		PreviousReading: "4321",
	}
	account := Account{UtilityAccountNumber: "8000000001", Distributor: DefaultDistributor}
	// 22:30 UTC on the 4th is already the 5th in Bucharest
	now := time.Date(2025, time.March, 4, 22, 30, 0, 0, time.UTC)

	body, err := json.Marshal(BuildPayload(prereqs, account, now, "4400"))
	require.NoError(t, err)

	var decoded map[string]map[string][]map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	entities := decoded["objMeterValueProxy"]["UsageSelfMeterReadEntity"]
	require.Len(t, entities, 1)

	expected := map[string]any{
		"POD":                  "RO005E512345678",
		"SerialNumber":         "12345678",
		"NewMeterReadDate":     "05/03/2025",
		"registerCat":          "1.8.0",
		"distributor":          DefaultDistributor,
		"meterInterval":        "",
		"supplier":             "",
		"distCustomer":         "",
		"distCustomerId":       "",
		"distContract":         "",
		"distContractDate":     nil,
		"UtilityAccountNumber": "8000000001",
		"prevMRResult":         "4321",
		"newmeterread":         "4400",
	}
	if diff := cmp.Diff(expected, entities[0]); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestInterpretSubmission(t *testing.T) {
	testCases := []struct {
		body     string
		accepted bool
	}{
		{body: `{"success": true}`, accepted: true},
		{body: `{"success": 1, "message": "ok"}`, accepted: true},
		{body: `{"success": "true"}`, accepted: true},
		{body: `{"success": {"id": 3}}`, accepted: true},
		{body: `{"success": false, "message": "Index invalid"}`},
		{body: `{"success": 0}`},
		{body: `{"success": ""}`},
		{body: `{"success": null}`},
		{body: `{"success": []}`},
		{body: `{"message": "ok"}`},
		{body: `[true]`},
		{body: `null`},
		{body: `<html>Eroare</html>`},
		{body: ``},
	}

	for _, test := range testCases {
		err := interpretSubmission([]byte(test.body))
		if test.accepted {
			require.NoError(t, err, test.body)
			continue
		}
		require.ErrorIs(t, err, ErrSubmissionRejected, test.body)
	}
}

func TestSubmitReading(t *testing.T) {
	portal := newStubPortal(t)
	client, _ := newTestClient(t, portal, testClientOptions{account: testAccount})

	err := client.SubmitReading(testContext(t), " 4400 ")
	require.NoError(t, err)
	require.Equal(t, LoggedIn, client.State())

	logins, _, submissions := portal.counts()
	require.Equal(t, 1, logins)
	require.Equal(t, 1, submissions)

	var payload SubmissionPayload
	require.NoError(t, json.Unmarshal([]byte(portal.lastSubmission()), &payload))
	expected := BuildPayload(SubmissionPrerequisites{
		PointOfDelivery: "RO005E512345678",
		MeterSerial:     "12345678",
		PreviousReading: "4321",
	}, Account{
		UtilityAccountNumber: testAccount.UtilityAccountNumber,
		Distributor:          DefaultDistributor,
	}, testNow, "4400")
	if diff := cmp.Diff(expected, payload); diff != "" {
		t.Fatalf("submitted payload mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmitReadingIncomplete(t *testing.T) {
	portal := newStubPortal(t)
	portal.set(func(p *stubPortal) {
		p.selfMeter = selfMeterIncompletePage
	})
	client, tel := newTestClient(t, portal, testClientOptions{account: testAccount})

	err := client.SubmitReading(testContext(t), "4400")
	require.ErrorIs(t, err, ErrScrapeIncomplete)
	require.Equal(t, LoggedIn, client.State())
	require.True(t, tel.Has(testutil.KindBroken, report_client_prerequisite))

	_, _, submissions := portal.counts()
	require.Equal(t, 0, submissions)
}

func TestSubmitReadingRejected(t *testing.T) {
	portal := newStubPortal(t)
	portal.set(func(p *stubPortal) {
		p.submitResponse = `{"success": false, "message": "Indexul este mai mic decat ultimul index citit"}`
	})
	client, tel := newTestClient(t, portal, testClientOptions{account: testAccount})
	ctx := testContext(t)

	err := client.SubmitReading(ctx, "4000")
	require.ErrorIs(t, err, ErrSubmissionRejected)
	require.NotErrorIs(t, err, ErrTransport)
	require.Equal(t, LoggedIn, client.State())
	require.True(t, tel.Has(testutil.KindBroken, report_client_submit))

	// the session can be used again right away
	_, err = client.FetchStatus(ctx)
	require.NoError(t, err)
	logins, _, _ := portal.counts()
	require.Equal(t, 1, logins)
}

func TestSubmitReadingHttpError(t *testing.T) {
	portal := newStubPortal(t)
	portal.set(func(p *stubPortal) {
		p.submitStatus = http.StatusInternalServerError
	})
	client, _ := newTestClient(t, portal, testClientOptions{account: testAccount})

	err := client.SubmitReading(testContext(t), "4400")
	require.ErrorIs(t, err, ErrTransport)
	require.NotErrorIs(t, err, ErrSubmissionRejected)

	_, _, submissions := portal.counts()
	require.Equal(t, 1, submissions)
}

func TestSubmitReadingPreconditions(t *testing.T) {
	portal := newStubPortal(t)
	ctx := testContext(t)

	unconfigured, _ := newTestClient(t, portal, testClientOptions{})
	require.ErrorIs(t, unconfigured.SubmitReading(ctx, "4400"), ErrAccountNotConfigured)

	client, _ := newTestClient(t, portal, testClientOptions{account: testAccount})
	for _, value := range []string{"", "   ", "abc", "-5", "44 00", "1.2.3"} {
		require.ErrorIs(t, client.SubmitReading(ctx, value), ErrInvalidReading, value)
	}

	logins, _, submissions := portal.counts()
	require.Equal(t, 0, logins)
	require.Equal(t, 0, submissions)
}

func TestPrerequisites(t *testing.T) {
	portal := newStubPortal(t)
	client, _ := newTestClient(t, portal, testClientOptions{})

	prereqs, err := client.Prerequisites(testContext(t))
	require.NoError(t, err)
	require.Equal(t, "RO005E512345678", prereqs.PointOfDelivery)
	require.Equal(t, LoggedIn, client.State())

	_, _, submissions := portal.counts()
	require.Equal(t, 0, submissions)
}

func TestStrategyFromName(t *testing.T) {
	strategy, err := StrategyFromName("", BrowserOptions{})
	require.NoError(t, err)
	require.IsType(t, HTTPStrategy{}, strategy)

	strategy, err = StrategyFromName("http", BrowserOptions{})
	require.NoError(t, err)
	require.IsType(t, HTTPStrategy{}, strategy)

	strategy, err = StrategyFromName("browser", BrowserOptions{Headful: true})
	require.NoError(t, err)
	require.Equal(t, BrowserStrategy{Options: BrowserOptions{Headful: true}}, strategy)

	_, err = StrategyFromName("selenium", BrowserOptions{})
	require.Error(t, err)
}
