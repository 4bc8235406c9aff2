package chrono

import (
	"time"
	// the portal time zone must resolve on hosts without a zoneinfo database
	_ "time/tzdata"
)

var bucharest *time.Location

func init() {
	var err error
	bucharest, err = time.LoadLocation("Europe/Bucharest")
	if err != nil {
		panic(err)
	}
}

// Bucharest returns the [*time.Location] the portal operates in.
func Bucharest() *time.Location {
	return bucharest
}

// TimeAPI is the interface that anything depending on the system clock should use.
type TimeAPI interface {
	// Now returns the current time in Europe/Bucharest.
	Now() time.Time
}

// StandardTime is the standard implementation of TimeAPI using the standard library.
type StandardTime struct{}

func NewStandardTime() StandardTime {
	return StandardTime{}
}

func (StandardTime) Now() time.Time {
	return time.Now().In(bucharest)
}
