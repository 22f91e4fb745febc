package metrics

import (
	"net/http"

	"github.com/torosent/chartload/internal/session"
)

// Class is the report bucket an outcome falls into.
type Class string

const (
	ClassSuccess        Class = "success"
	ClassTimeout        Class = "timeout"
	ClassServerBusy     Class = "server_busy"
	ClassGatewayTimeout Class = "gateway_timeout"
	ClassOther          Class = "other"
)

// Classify buckets an outcome. Only a Success with status 200 counts as a
// success; everything else is bucketed by status code.
func Classify(out session.Outcome) Class {
	if s, ok := out.(session.Success); ok && s.OK() {
		return ClassSuccess
	}
	switch out.Status() {
	case http.StatusRequestTimeout:
		return ClassTimeout
	case http.StatusServiceUnavailable:
		return ClassServerBusy
	case http.StatusGatewayTimeout:
		return ClassGatewayTimeout
	default:
		return ClassOther
	}
}
