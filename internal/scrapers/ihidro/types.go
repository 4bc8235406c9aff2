package ihidro

import "fmt"

// Credentials are the portal login for a single account.
type Credentials struct {
	Username string
	Password string
}

// AuthState is the login state of a client.
type AuthState int

const (
	LoggedOut AuthState = iota
	LoggedIn
)

func (s AuthState) String() string {
	switch s {
	case LoggedOut:
		return "logged_out"
	case LoggedIn:
		return "logged_in"
	default:
		return fmt.Sprintf("AuthState(%d)", int(s))
	}
}

// WindowClosed is the TransmissionWindow reported when readings are not accepted.
const WindowClosed = "Perioada de transmitere este închisă."

// StatusRecord is the state of an account as shown on the portal landing page.
// The json names are consumed by existing dashboards and must stay as they are.
type StatusRecord struct {
	TransmissionWindow string `json:"perioada_transmitere_index"`
	InvoiceText        string `json:"text_factura"`
	IsWindowOpen       bool   `json:"este_perioada_de_trimitere"`
}

// SubmissionPrerequisites are the values the portal requires to be echoed back with
// a new reading. They are scraped right before every submission.
type SubmissionPrerequisites struct {
	PointOfDelivery string `json:"pod"`
	MeterSerial     string `json:"meter_serial"`
	PreviousReading string `json:"previous_reading"`
}

// MeterReadEntity is a single reading as accepted by GetMeterValueRequest.
type MeterReadEntity struct {
	POD                  string  `json:"POD"`
	SerialNumber         string  `json:"SerialNumber"`
	NewMeterReadDate     string  `json:"NewMeterReadDate"`
	RegisterCat          string  `json:"registerCat"`
	Distributor          string  `json:"distributor"`
	MeterInterval        string  `json:"meterInterval"`
	Supplier             string  `json:"supplier"`
	DistCustomer         string  `json:"distCustomer"`
	DistCustomerId       string  `json:"distCustomerId"`
	DistContract         string  `json:"distContract"`
	DistContractDate     *string `json:"distContractDate"`
	UtilityAccountNumber string  `json:"UtilityAccountNumber"`
	PrevMRResult         string  `json:"prevMRResult"`
	NewMeterRead         string  `json:"newmeterread"`
}

type MeterValueProxy struct {
	UsageSelfMeterReadEntity []MeterReadEntity `json:"UsageSelfMeterReadEntity"`
}

// SubmissionPayload is the request body of GetMeterValueRequest.
type SubmissionPayload struct {
	ObjMeterValueProxy MeterValueProxy `json:"objMeterValueProxy"`
}

// Account holds the per-account constants that are sent with every submission.
type Account struct {
	UtilityAccountNumber string
	// Distributor defaults to DefaultDistributor.
	Distributor string
}
