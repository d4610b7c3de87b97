package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus_MapsEveryKnownCode(t *testing.T) {
	cases := map[ErrorCode]int{
		ErrUnauthorized:     http.StatusUnauthorized,
		ErrRateLimited:      http.StatusTooManyRequests,
		ErrInvalidArgument:  http.StatusBadRequest,
		ErrDeadlineExceeded: http.StatusGatewayTimeout,
		ErrUnavailable:      http.StatusServiceUnavailable,
		ErrInternal:         http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, httpStatus(code), "code %s", code)
	}
}

func TestHTTPStatus_UnknownCodeFallsBackToInternal(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, httpStatus(ErrorCode("SOMETHING_NEW")))
}

func TestNewAPIError(t *testing.T) {
	err := newAPIError(ErrInvalidArgument, "bad offset")
	assert.Equal(t, ErrInvalidArgument, err.Code)
	assert.Equal(t, "bad offset", err.Error())
}
