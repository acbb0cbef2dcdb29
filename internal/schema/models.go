package schema

import (
	"fmt"
	"time"

	"github.com/blckdfly/sphyre/pkg/attrs"
)

// AttributeDataType names the JSON shape a schema attribute accepts.
type AttributeDataType string

const (
	TypeString  AttributeDataType = "string"
	TypeNumber  AttributeDataType = "number"
	TypeBoolean AttributeDataType = "boolean"
	TypeDate    AttributeDataType = "date"
	TypeObject  AttributeDataType = "object"
	TypeArray   AttributeDataType = "array"
)

func (t AttributeDataType) known() bool {
	switch t {
	case TypeString, TypeNumber, TypeBoolean, TypeDate, TypeObject, TypeArray:
		return true
	}
	return false
}

// accepts reports whether a value conforms to the data type. Dates are
// strings carrying an RFC3339 timestamp.
func (t AttributeDataType) accepts(v attrs.Value) error {
	switch t {
	case TypeString:
		if v.Kind() != attrs.KindString {
			return fmt.Errorf("must be a string")
		}
	case TypeNumber:
		if v.Kind() != attrs.KindNumber {
			return fmt.Errorf("must be a number")
		}
	case TypeBoolean:
		if v.Kind() != attrs.KindBool {
			return fmt.Errorf("must be a boolean")
		}
	case TypeDate:
		raw, ok := v.StringValue()
		if !ok {
			return fmt.Errorf("must be a date string")
		}
		if _, err := time.Parse(time.RFC3339, raw); err != nil {
			return fmt.Errorf("must be a valid RFC3339 date")
		}
	case TypeObject:
		if v.Kind() != attrs.KindObject {
			return fmt.Errorf("must be an object")
		}
	case TypeArray:
		if v.Kind() != attrs.KindArray {
			return fmt.Errorf("must be an array")
		}
	default:
		return fmt.Errorf("unknown data type %q", t)
	}
	return nil
}

// Attribute defines one schema field.
type Attribute struct {
	Name        string            `json:"name"`
	DataType    AttributeDataType `json:"data_type"`
	Description string            `json:"description,omitempty"`
	Required    bool              `json:"required"`
}

// Schema describes the attribute layout a credential type promises. The id
// is issuer-scoped: "<issuer_did>:<name>:<version>".
type Schema struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Version    string      `json:"version"`
	IssuerDID  string      `json:"issuer_did"`
	Attributes []Attribute `json:"attributes"`
	RegistryTx string      `json:"registry_tx,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

func (s Schema) attribute(name string) (Attribute, bool) {
	for _, attr := range s.Attributes {
		if attr.Name == name {
			return attr, true
		}
	}
	return Attribute{}, false
}

// ValidationResult lists every mismatch between an attribute map and a
// schema.
type ValidationResult struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors,omitempty"`
}
