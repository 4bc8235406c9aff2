package db

type StatusReport struct {
	ID                       int64
	Account                  string
	CreatedAt                int64
	PerioadaTransmitereIndex string
	TextFactura              string
	EstePerioadaDeTrimitere  bool
}

type SubmissionReport struct {
	ID        int64
	Account   string
	CreatedAt int64
	Value     string
	Success   bool
}
