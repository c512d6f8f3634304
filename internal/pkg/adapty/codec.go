package adapty

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// getValidator returns the shared validator. Field names in validation
// errors are the wire (json) names.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// validateStruct runs the struct tags of v and converts the first failure
// into an InvariantError for entity.
func validateStruct(entity string, v interface{}) error {
	err := getValidator().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &InvariantError{Entity: entity, Field: fe.Field(), Rule: fe.Tag()}
	}
	return err
}

// requireFields checks that every required key of a wire record is present
// and non-null before the typed decode runs. Unknown keys are ignored.
func requireFields(data []byte, entity string, fields ...string) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return fmt.Errorf("%s: %w", entity, ErrNullRecord)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%s: %w", entity, err)
	}
	for _, f := range fields {
		v, ok := raw[f]
		if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return &MissingRequiredFieldError{Entity: entity, Field: f}
		}
	}
	return nil
}

// rejectNullValues fails when the object under key holds a null value. Record
// types catch this themselves; lists of records need it checked here.
func rejectNullValues(data []byte, key, entity string) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	field, ok := raw[key]
	if !ok || bytes.Equal(bytes.TrimSpace(field), []byte("null")) {
		return nil
	}
	var values map[string]json.RawMessage
	if err := json.Unmarshal(field, &values); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	for k, v := range values {
		if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return fmt.Errorf("%s %q: %w", entity, k, ErrNullRecord)
		}
	}
	return nil
}

// Validatable is implemented by entities with invariants beyond shape.
type Validatable interface {
	Validate() error
}

// Codec converts between wire payloads and the typed model.
type Codec struct{}

func NewCodec() *Codec {
	return &Codec{}
}

// Encode serializes v to its wire form.
func (c *Codec) Encode(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// EncodeString is Encode for bridges that carry payloads as strings.
func (c *Codec) EncodeString(v interface{}) (string, error) {
	b, err := c.Encode(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Decode parses data into v and, when v is Validatable, checks its
// invariants.
func (c *Codec) Decode(data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return err
	}
	if val, ok := v.(Validatable); ok {
		return val.Validate()
	}
	return nil
}

func (c *Codec) DecodeProfile(data []byte) (*Profile, error) {
	var p Profile
	if err := c.Decode(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Codec) DecodePaywall(data []byte) (*Paywall, error) {
	var p Paywall
	if err := c.Decode(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Codec) DecodeProducts(data []byte) ([]Product, error) {
	var products []Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, err
	}
	for i := range products {
		if err := products[i].Validate(); err != nil {
			return nil, fmt.Errorf("product %d: %w", i, err)
		}
	}
	return products, nil
}

// Ptr returns a pointer to v. Handy for optional fields.
func Ptr[T any](v T) *T {
	return &v
}
