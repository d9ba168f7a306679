// Package formschema loads declarative form definitions (JSON or YAML) into
// model.Form values. A document names its sections and fields, optionally
// declares reusable regular expressions under "patterns", and references them
// from fields with "@name".
package formschema
