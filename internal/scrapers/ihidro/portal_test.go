package ihidro

import (
	"ihidro-assist/internal/components/chrono"
	"ihidro-assist/internal/components/testutil"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	_ "embed"
)

//go:embed testdata/login.html
var loginPage string

//go:embed testdata/landing_open.html
var landingOpenPage string

//go:embed testdata/landing_closed.html
var landingClosedPage string

//go:embed testdata/landing_short.html
var landingShortPage string

//go:embed testdata/self_meter.html
var selfMeterPage string

//go:embed testdata/self_meter_incomplete.html
var selfMeterIncompletePage string

const (
	testUsername      = "client@example.com"
	testPassword      = "hunter2"
	testSessionCookie = "ASP.NET_SessionId"
	testSessionId     = "s3ss10n"
)

// stubPortal serves the subset of the portal the client talks to.
type stubPortal struct {
	server *httptest.Server

	mu sync.Mutex
	// zero statuses mean 200
	loginStatus     int
	landingStatus   int
	submitStatus    int
	landing         string
	selfMeter       string
	submitResponse  string
	logins          int
	landingRequests int
	submissions     []string
}

func newStubPortal(t testing.TB) *stubPortal {
	p := &stubPortal{
		landing:        landingOpenPage,
		selfMeter:      selfMeterPage,
		submitResponse: `{"success": true, "message": "Indexul a fost transmis."}`,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/portal/default.aspx", p.handlePortal)
	mux.HandleFunc("/portal/SelfMeterReading.aspx", p.handleSelfMeter)
	mux.HandleFunc("/portal/SelfMeterReading.aspx/GetMeterValueRequest", p.handleSubmit)
	p.server = httptest.NewServer(mux)
	t.Cleanup(p.server.Close)

	return p
}

func (p *stubPortal) authenticated(r *http.Request) bool {
	cookie, err := r.Cookie(testSessionCookie)
	return err == nil && cookie.Value == testSessionId
}

func (p *stubPortal) handlePortal(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if r.Method == http.MethodPost {
		p.logins++
		if p.loginStatus != 0 {
			w.WriteHeader(p.loginStatus)
			return
		}
		if r.PostFormValue("txtLogin") != testUsername || r.PostFormValue("txtpwd") != testPassword {
			io.WriteString(w, loginPage)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: testSessionCookie, Value: testSessionId, Path: "/"})
		io.WriteString(w, p.landing)
		return
	}

	p.landingRequests++
	if p.landingStatus != 0 {
		w.WriteHeader(p.landingStatus)
		return
	}
	if !p.authenticated(r) {
		io.WriteString(w, loginPage)
		return
	}
	io.WriteString(w, p.landing)
}

func (p *stubPortal) handleSelfMeter(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.authenticated(r) {
		io.WriteString(w, loginPage)
		return
	}
	io.WriteString(w, p.selfMeter)
}

func (p *stubPortal) handleSubmit(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if r.Method != http.MethodPost || !p.authenticated(r) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	p.submissions = append(p.submissions, string(body))

	if p.submitStatus != 0 {
		w.WriteHeader(p.submitStatus)
		return
	}
	w.Header().Set("content-type", "application/json; charset=utf-8")
	io.WriteString(w, p.submitResponse)
}

func (p *stubPortal) set(fn func(p *stubPortal)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(p)
}

func (p *stubPortal) counts() (logins, landingRequests, submissions int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.logins, p.landingRequests, len(p.submissions)
}

func (p *stubPortal) lastSubmission() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.submissions) == 0 {
		return ""
	}
	return p.submissions[len(p.submissions)-1]
}

var testNow = time.Date(2025, time.March, 5, 0, 30, 0, 0, chrono.Bucharest())

type testClientOptions struct {
	password string
	account  Account
}

func newTestClient(t testing.TB, portal *stubPortal, opts testClientOptions) (*Client, *testutil.RecordingAPI) {
	password := opts.password
	if password == "" {
		password = testPassword
	}

	tel := &testutil.RecordingAPI{}
	client, err := NewClient(ClientOptions{
		Credentials: Credentials{
			Username: testUsername,
			Password: password,
		},
		Account:           opts.account,
		BaseUrl:           portal.server.URL,
		RequestsPerSecond: 100,
	}, tel, testutil.FixedTime{Time: testNow})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		client.Close()
	})
	return client, tel
}
