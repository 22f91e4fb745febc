package chartclient

import (
	"github.com/tidwall/gjson"
)

// Ticket is what a successful submit returns.
type Ticket struct {
	Hash      string
	ChartPath string
}

// ParseTicket extracts the hash and chart path from a submit response body.
// ok is false when the body is not JSON or carries no hash.
func ParseTicket(body string) (ticket Ticket, ok bool) {
	if !gjson.Valid(body) {
		return Ticket{}, false
	}
	fields := gjson.GetMany(body, "hash", "chartpath")
	ticket = Ticket{
		Hash:      nonEmpty(fields[0]),
		ChartPath: nonEmpty(fields[1]),
	}
	return ticket, ticket.Hash != ""
}

// Ready reports whether a status response body has "ready": true.
func Ready(body string) bool {
	ready := gjson.Get(body, "ready")
	return ready.Type == gjson.True
}

func nonEmpty(r gjson.Result) string {
	if !r.Exists() || r.Type == gjson.Null {
		return ""
	}
	return r.String()
}
