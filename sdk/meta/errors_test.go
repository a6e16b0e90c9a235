package meta

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	testType        = "Client"
	testClientID    = "7"
	testErrorReason = "i don't have to answer to you"
)

var testErrorDetails = []string{"the", "devil", "is", "in", "the", "details"}

func TestErrValidation(t *testing.T) {
	testCases := []struct {
		name       string
		err        *ErrValidation
		assertions func(t *testing.T, err *ErrValidation)
	}{
		{
			name: "without details",
			err: &ErrValidation{
				Reason: testErrorReason,
			},
			assertions: func(t *testing.T, err *ErrValidation) {
				require.Contains(t, err.Error(), testErrorReason)
			},
		},
		{
			name: "with details",
			err: &ErrValidation{
				Reason:  testErrorReason,
				Details: testErrorDetails,
			},
			assertions: func(t *testing.T, err *ErrValidation) {
				require.Contains(t, err.Error(), testErrorReason)
				for _, detail := range err.Details {
					require.Contains(t, err.Error(), detail)
				}
			},
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			testCase.assertions(t, testCase.err)
		})
	}
}

func TestErrAuthentication(t *testing.T) {
	err := &ErrAuthentication{
		Reason: testErrorReason,
	}
	require.Contains(t, err.Error(), testErrorReason)
	require.Contains(t, (&ErrAuthentication{}).Error(), "authenticate")
}

func TestErrAuthorization(t *testing.T) {
	err := &ErrAuthorization{}
	require.Contains(t, err.Error(), "not authorized")
}

func TestErrBadRequest(t *testing.T) {
	testCases := []struct {
		name       string
		err        *ErrBadRequest
		assertions func(t *testing.T, err *ErrBadRequest)
	}{
		{
			name: "without details",
			err: &ErrBadRequest{
				Reason: testErrorReason,
			},
			assertions: func(t *testing.T, err *ErrBadRequest) {
				require.Contains(t, err.Error(), testErrorReason)
				for _, detail := range err.Details {
					require.NotContains(t, err.Error(), detail)
				}
			},
		},
		{
			name: "with details",
			err: &ErrBadRequest{
				Reason:  testErrorReason,
				Details: testErrorDetails,
			},
			assertions: func(t *testing.T, err *ErrBadRequest) {
				require.Contains(t, err.Error(), testErrorReason)
				for _, detail := range err.Details {
					require.Contains(t, err.Error(), detail)
				}
			},
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			testCase.assertions(t, testCase.err)
		})
	}
}

func TestErrNotFound(t *testing.T) {
	err := &ErrNotFound{
		Type: testType,
		ID:   testClientID,
	}
	require.Contains(t, err.Error(), "not found")
	require.Contains(t, err.Error(), testType)
	require.Contains(t, err.Error(), testClientID)
	require.Contains(t, (&ErrNotFound{}).Error(), "not found")
}

func TestErrConflict(t *testing.T) {
	err := &ErrConflict{
		Type:   testType,
		ID:     testClientID,
		Reason: testErrorReason,
	}
	require.Contains(t, err.Error(), testErrorReason)
}

func TestErrInternalServer(t *testing.T) {
	err := &ErrInternalServer{}
	require.Contains(t, err.Error(), "internal server error")
}

func TestErrNotSupported(t *testing.T) {
	err := &ErrNotSupported{
		Details: testErrorReason,
	}
	require.Contains(t, err.Error(), testErrorReason)
}

func TestErrNetwork(t *testing.T) {
	cause := errors.New("connection refused")
	err := &ErrNetwork{Err: cause}
	require.Contains(t, err.Error(), "connection refused")
	require.True(t, errors.Is(err, cause))
}

func TestErrUnexpectedContent(t *testing.T) {
	err := &ErrUnexpectedContent{
		Expected: "application/pdf",
		Actual:   "text/html",
	}
	require.Contains(t, err.Error(), "application/pdf")
	require.Contains(t, err.Error(), "text/html")
	err = &ErrUnexpectedContent{Expected: "application/pdf"}
	require.Contains(t, err.Error(), "no content type")
}

func TestErrTimeoutExhausted(t *testing.T) {
	err := &ErrTimeoutExhausted{
		Attempts: 60,
		Elapsed:  5 * time.Minute,
	}
	require.Contains(t, err.Error(), "60 attempt(s)")
	require.Contains(t, err.Error(), "5m0s")
}
