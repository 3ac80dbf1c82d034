package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type transferForm struct {
	To string `binding:"required,identity"`
	ID uint32
}

func TestCustomValidator_Identity(t *testing.T) {
	v := NewCustomValidator()

	assert.NoError(t, v.ValidateStruct(&transferForm{To: "bob"}))
	assert.NoError(t, v.ValidateStruct(&transferForm{To: "0x9f2c…e1"}))
	assert.Error(t, v.ValidateStruct(&transferForm{To: ""}))
	assert.Error(t, v.ValidateStruct(&transferForm{To: "bob smith"}))
	assert.Error(t, v.ValidateStruct(&transferForm{To: "bob\n"}))
	assert.Error(t, v.ValidateStruct(&transferForm{To: strings.Repeat("a", MaxIdentityLength+1)}))
}

func TestCustomValidator_NonStruct(t *testing.T) {
	v := NewCustomValidator()
	assert.NoError(t, v.ValidateStruct([]int{1}))
}
