package dto

import (
	"encoding/json"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lineReq struct {
	Quantity int32 `json:"quantity" binding:"gt=0"`
}

type checkoutReq struct {
	Email    string    `json:"email" binding:"required,email"`
	Products []lineReq `json:"products" binding:"required,min=1,dive"`
}

func TestFieldsFromBinding_ValidatorErrors(t *testing.T) {
	err := binding.Validator.ValidateStruct(&checkoutReq{
		Email:    "nope",
		Products: []lineReq{{Quantity: 1}, {Quantity: 0}},
	})
	require.Error(t, err)

	fields := FieldsFromBinding(err)
	require.Len(t, fields, 2)
	assert.Equal(t, FieldError{Field: "email", Message: "must be a valid email", Tag: "email"}, fields[0])
	assert.Equal(t, FieldError{Field: "products[1].quantity", Message: "must be greater than 0", Tag: "gt"}, fields[1])
}

func TestFieldsFromBinding_DecodeErrorHasNoFields(t *testing.T) {
	var dst checkoutReq
	err := json.Unmarshal([]byte(`{"email":`), &dst)
	require.Error(t, err)
	assert.Empty(t, FieldsFromBinding(err))
	assert.NotNil(t, FieldsFromBinding(err))
}

func TestNewBadGatewayError(t *testing.T) {
	e := NewBadGatewayError("Your card was declined.", "card_declined")
	assert.Equal(t, "gateway_error", e.Code)
	assert.Equal(t, "Your card was declined.", e.Message)
	assert.Equal(t, "card_declined", e.Details)
}
