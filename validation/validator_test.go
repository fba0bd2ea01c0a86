package validation_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/catalogdash/validation"
)

type request struct {
	View  string `query:"view" validate:"required,oneof=a b"`
	Limit int    `json:"limit" validate:"gte=0,lte=100"`
	Code  string `yaml:"code" validate:"omitempty,len=2,alpha,uppercase"`
}

func TestValidate(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name   string
		req    request
		fields map[string]string
	}{
		{"valid", request{View: "a", Limit: 10, Code: "US"}, nil},
		{"missing view", request{}, map[string]string{"view": "is required"}},
		{"bad enum and range", request{View: "c", Limit: 101}, map[string]string{
			"view":  "must be one of: a b",
			"limit": "must be less than or equal to 100",
		}},
		{"lower case code", request{View: "b", Code: "us"}, map[string]string{"code": "must be upper case"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			if tt.fields == nil {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, validation.ErrInvalid)

			var verr *validation.Error
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.fields, verr.Fields)
		})
	}
}

func TestErrorMessageIsSorted(t *testing.T) {
	err := &validation.Error{Fields: map[string]string{"b": "is required", "a": "is invalid"}}
	assert.Equal(t, "validation failed: a is invalid; b is required", err.Error())
}
