package validator

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type profileInput struct {
	Name  string `validate:"required"`
	Email string `validate:"required,email"`
	Age   int    `validate:"gte=0,lte=150"`
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	return valErr.Fields()
}

func TestValidate_ValidStruct(t *testing.T) {
	in := profileInput{Name: "Alice", Email: "alice@example.com", Age: 30}
	assert.NoError(t, Validate(in))
}

func TestValidate_MissingRequired(t *testing.T) {
	in := profileInput{Email: "alice@example.com", Age: 30}
	err := Validate(in)
	require.Error(t, err)

	fields := fieldsOf(t, err)
	assert.Equal(t, "is required", fields["Name"])
}

func TestValidate_InvalidEmail(t *testing.T) {
	in := profileInput{Name: "Alice", Email: "not-an-email", Age: 30}
	err := Validate(in)
	require.Error(t, err)

	fields := fieldsOf(t, err)
	assert.Equal(t, "must be a valid email address", fields["Email"])
}

func TestValidate_OutOfRange(t *testing.T) {
	in := profileInput{Name: "Alice", Email: "alice@example.com", Age: 200}
	err := Validate(in)
	require.Error(t, err)

	fields := fieldsOf(t, err)
	assert.Contains(t, fields["Age"], "150")
}

func TestValidate_CollectsAllFailures(t *testing.T) {
	err := Validate(profileInput{})
	require.Error(t, err)

	fields := fieldsOf(t, err)
	assert.Contains(t, fields, "Name")
	assert.Contains(t, fields, "Email")
}

func TestValidationError_ErrorString(t *testing.T) {
	err := Validate(profileInput{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field 'Name'")
	assert.Contains(t, err.Error(), "is required")
}

type lengthInput struct {
	Short string `validate:"min=3"`
	Long  string `validate:"max=5"`
}

func TestValidate_MinMaxMessages(t *testing.T) {
	err := Validate(lengthInput{Short: "ab", Long: "toolongstring"})
	require.Error(t, err)

	fields := fieldsOf(t, err)
	assert.Contains(t, fields["Short"], "at least 3")
	assert.Contains(t, fields["Long"], "at most 5")
}

type idInput struct {
	ID string `validate:"uuid"`
}

func TestValidate_UUIDTag(t *testing.T) {
	err := Validate(idInput{ID: "not-a-uuid"})
	require.Error(t, err)
	assert.Equal(t, "must be a valid UUID", fieldsOf(t, err)["ID"])

	assert.NoError(t, Validate(idInput{ID: "550e8400-e29b-41d4-a716-446655440000"}))
}

type statusInput struct {
	Status string `validate:"oneof=active inactive"`
}

func TestValidate_OneOfTag(t *testing.T) {
	err := Validate(statusInput{Status: "deleted"})
	require.Error(t, err)
	assert.Contains(t, fieldsOf(t, err)["Status"], "one of")
}

func TestDecodeAndValidate_ValidBody(t *testing.T) {
	body := `{"Name":"Alice","Email":"alice@example.com","Age":25}`
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))

	var in profileInput
	require.NoError(t, DecodeAndValidate(req, &in))
	assert.Equal(t, "Alice", in.Name)
	assert.Equal(t, "alice@example.com", in.Email)
	assert.Equal(t, 25, in.Age)
}

func TestDecodeAndValidate_MalformedJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{invalid"))

	var in profileInput
	err := DecodeAndValidate(req, &in)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode request body")
}

func TestDecodeAndValidate_FailsValidation(t *testing.T) {
	body := `{"Name":"","Email":"bad","Age":25}`
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))

	var in profileInput
	err := DecodeAndValidate(req, &in)

	require.Error(t, err)
	var valErr *ValidationError
	assert.ErrorAs(t, err, &valErr)
}
