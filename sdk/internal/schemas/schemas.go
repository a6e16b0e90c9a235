// Package schemas holds JSON schemas for request bodies the SDK sends to the
// API server. Bodies are validated locally so that obviously malformed
// requests fail fast, without a network round trip.
package schemas

import (
	"embed"
	"path"

	"github.com/pkg/errors"
	"github.com/praxis-health/praxis/sdk/meta"
	"github.com/xeipuuv/gojsonschema"
)

// Schema identifies one of the embedded JSON schemas.
type Schema string

const (
	Client       Schema = "client.json"
	Event        Schema = "event.json"
	Registration Schema = "registration.json"
	ScanRequest  Schema = "scan-request.json"
)

//go:embed json/*.json
var schemaFS embed.FS

// Validate validates obj, after JSON serialization, against the specified
// schema. If obj is invalid, a *meta.ErrValidation enumerating every
// violation is returned.
func Validate(schema Schema, obj interface{}) error {
	schemaBytes, err := schemaFS.ReadFile(path.Join("json", string(schema)))
	if err != nil {
		return errors.Wrapf(err, "error loading schema %s", schema)
	}
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaBytes),
		gojsonschema.NewGoLoader(obj),
	)
	if err != nil {
		return errors.Wrapf(err, "error validating against schema %s", schema)
	}
	if !result.Valid() {
		verrStrs := make([]string, len(result.Errors()))
		for i, verr := range result.Errors() {
			verrStrs[i] = verr.String()
		}
		return &meta.ErrValidation{
			Reason:  "request failed JSON validation",
			Details: verrStrs,
		}
	}
	return nil
}
