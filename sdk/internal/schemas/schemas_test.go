package schemas

import (
	"testing"

	"github.com/praxis-health/praxis/sdk/meta"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	testCases := []struct {
		name       string
		schema     Schema
		obj        interface{}
		assertions func(t *testing.T, err error)
	}{
		{
			name:   "valid scan request",
			schema: ScanRequest,
			obj: map[string]interface{}{
				"client_id":   7,
				"scan_reason": "annual checkup",
			},
			assertions: func(t *testing.T, err error) {
				require.NoError(t, err)
			},
		},
		{
			name:   "scan request with blank reason",
			schema: ScanRequest,
			obj: map[string]interface{}{
				"client_id":   7,
				"scan_reason": "   ",
			},
			assertions: func(t *testing.T, err error) {
				require.IsType(t, &meta.ErrValidation{}, err)
			},
		},
		{
			name:   "scan request missing client",
			schema: ScanRequest,
			obj: map[string]interface{}{
				"scan_reason": "annual checkup",
			},
			assertions: func(t *testing.T, err error) {
				require.IsType(t, &meta.ErrValidation{}, err)
				require.Len(t, err.(*meta.ErrValidation).Details, 1)
			},
		},
		{
			name:   "registration with bad email",
			schema: Registration,
			obj: map[string]interface{}{
				"email":    "tony",
				"password": "iamironman",
			},
			assertions: func(t *testing.T, err error) {
				require.IsType(t, &meta.ErrValidation{}, err)
			},
		},
		{
			name:   "event with malformed date",
			schema: Event,
			obj: map[string]interface{}{
				"title":      "Follow-up",
				"event_date": "next tuesday",
			},
			assertions: func(t *testing.T, err error) {
				require.IsType(t, &meta.ErrValidation{}, err)
			},
		},
		{
			name:   "unknown schema",
			schema: Schema("bogus.json"),
			obj:    map[string]interface{}{},
			assertions: func(t *testing.T, err error) {
				require.Error(t, err)
				require.Contains(t, err.Error(), "error loading schema")
			},
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			testCase.assertions(t, Validate(testCase.schema, testCase.obj))
		})
	}
}
