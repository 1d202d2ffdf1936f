package service

import (
	"errors"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/tontine/internal/apperr"
)

const (
	// ErrorCodeHeader carries the stable apperr code of a failed call.
	ErrorCodeHeader = "Tontine-Error-Code"
	// errorDetailPrefix prefixes one header per apperr detail key, e.g.
	// Tontine-Detail-Outstanding-Member-Ids.
	errorDetailPrefix = "Tontine-Detail-"
)

// connectError converts an engine error into a Connect error. Internal
// causes are not sent to the client.
func connectError(err error) error {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		return connect.NewError(connect.CodeInternal, errors.New("internal error"))
	}

	msg := ae.Message
	if ae.Kind() == apperr.KindInternal {
		msg = "internal error"
	}
	ce := connect.NewError(ae.Code.ConnectCode(), errors.New(msg))
	ce.Meta().Set(ErrorCodeHeader, string(ae.Code))
	for key, values := range ae.Details {
		header := errorDetailPrefix + strings.ReplaceAll(key, "_", "-")
		for _, v := range values {
			ce.Meta().Add(header, v)
		}
	}
	return ce
}

// DetailHeader returns the header carrying detail key of an error.
func DetailHeader(key string) string {
	return errorDetailPrefix + strings.ReplaceAll(key, "_", "-")
}
