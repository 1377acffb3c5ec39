package config

import (
	"encoding/json"

	"github.com/carriercomm/ddos-detection/internal/ddoserr"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// configSchema describes the optional JSON overlay file accepted via -c. It
// only ever needs to cover fields the overlay actually seeds; CLI flags
// remain the primary way to set everything else.
var configSchema = `
{
  "type": "object",
  "properties": {
    "port_window": {
      "description": "seconds between full port-detail flushes, overriding the 300s default",
      "type": "integer",
      "minimum": 1
    }
  }
}`

// validateSchema compiles schema and checks raw against it, the way the
// teacher's internal/config.Validate checks ProgramConfig overlays before
// they are decoded.
func validateSchema(schema string, raw json.RawMessage) error {
	sch, err := jsonschema.CompileString("config.json", schema)
	if err != nil {
		return ddoserr.Wrap(ddoserr.Config, err, "cannot compile config schema")
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return ddoserr.Wrap(ddoserr.Config, err, "cannot decode config file")
	}

	if err := sch.Validate(v); err != nil {
		return ddoserr.Wrap(ddoserr.Config, err, "config file failed schema validation")
	}

	return nil
}
