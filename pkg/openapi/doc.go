// Package openapi builds release forms from OpenAPI request bodies. Scalar
// properties land in a single root section; array-of-object properties become
// repeated sections bounded by minItems/maxItems. The x-formgen-cascade,
// x-formgen-required-when, x-formgen-label, x-formgen-order and x-accept
// extensions carry the form-specific details JSON Schema cannot express.
package openapi
