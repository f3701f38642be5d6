package internal

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidServer = errors.New("invalid server")

type Server string

const (
	ServerJeff Server = "JEFF"
	ServerProd Server = "PROD"
	ServerIre  Server = "IRE"
	ServerCS1P Server = "CS1P"
)

// Servers lists the hosting environments a report can be generated for.
var Servers = []Server{ServerJeff, ServerProd, ServerIre, ServerCS1P}

func ParseServer(input string) (Server, error) {
	s := Server(strings.ToUpper(strings.TrimSpace(input)))
	for _, known := range Servers {
		if s == known {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q (want one of %s)", ErrInvalidServer, input, ServerChoices())
}

func ServerChoices() string {
	parts := make([]string, 0, len(Servers))
	for _, s := range Servers {
		parts = append(parts, string(s))
	}
	return strings.Join(parts, "|")
}

type InputKind string

const (
	InputCustomer InputKind = "customer_data"
	InputVendor   InputKind = "vendor_data"
)

// Key identifies an account across the customer roster and the vendor feed.
type Key struct {
	Number string
	Vendor string
}

func (k Key) String() string {
	return k.Number + "/" + k.Vendor
}

type RunCounts struct {
	CustomerRows int `json:"customerRows"`
	VendorRows   int `json:"vendorRows"`
	Orphans      int `json:"orphans"`
	Matched      int `json:"matched"`
	Unmatched    int `json:"unmatched"`
}

type RunRecord struct {
	ID         int
	TraceID    string
	Server     string
	Company    string
	ReportPath string
	Counts     RunCounts
	TimingsMs  map[string]float64
	CreatedAt  string
}
