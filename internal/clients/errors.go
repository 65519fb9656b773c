package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"

	"github.com/adshao/go-binance/v2/common"
	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

var (
	// ErrAuthentication is matched by request errors caused by a bad key, signature or permission.
	ErrAuthentication = errors.New("authentication failed")
	// ErrRequestFailed is matched by every non-2xx response.
	ErrRequestFailed = errors.New("request failed")
	// ErrNotFound unknown symbol or asset.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument malformed call rejected before reaching the exchange.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrTransientNetwork is matched by IsTransient errors.
	ErrTransientNetwork = errors.New("transient network error")
)

// binance error codes
const (
	codeInvalidSignature = -1022
	codeInvalidSymbol    = -1121
	codeRejectedMbxKey   = -2014
	codeRejectedAPIKey   = -2015
)

// RequestError is a non-2xx response. Body keeps the raw payload because it is
// the only place where key, timestamp and permission problems are explained.
type RequestError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
	// Code and Message are filled when the body is a Binance API error.
	Code    int64
	Message string
}

func newRequestError(method, path string, resp *resty.Response) *RequestError {
	reqErr := &RequestError{
		Method:     method,
		Path:       path,
		StatusCode: resp.StatusCode(),
		Body:       resp.String(),
	}

	var apiErr common.APIError
	if err := json.Unmarshal(resp.Body(), &apiErr); err == nil && apiErr.Code != 0 {
		reqErr.Code = apiErr.Code
		reqErr.Message = apiErr.Message
	}

	return reqErr
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s %s: status %d | body=%s", e.Method, e.Path, e.StatusCode, e.Body)
}

// Is lets callers match request errors against the package sentinels.
func (e *RequestError) Is(target error) bool {
	switch target {
	case ErrRequestFailed:
		return true
	case ErrAuthentication:
		if e.StatusCode == http.StatusUnauthorized {
			return true
		}
		switch e.Code {
		case codeInvalidSignature, codeRejectedMbxKey, codeRejectedAPIKey:
			return true
		}
	case ErrNotFound:
		return e.Code == codeInvalidSymbol
	}
	return false
}

// APIError returns the decoded Binance error, nil when the body was not one.
func (e *RequestError) APIError() *common.APIError {
	if e.Code == 0 {
		return nil
	}
	return &common.APIError{Code: e.Code, Message: e.Message}
}

// IsTransient reports whether err is a timeout or connection failure that a
// later attempt may not hit. Request errors are never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTransientNetwork) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
