package validator

import (
	"strings"
	"testing"

	"github.com/gin-gonic/gin/binding"
	govalidator "github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noteForm struct {
	Notes string `json:"notes" binding:"maxbytes=255"`
}

func TestMaxBytesCountsBytesNotRunes(t *testing.T) {
	Setup()
	v, ok := binding.Validator.Engine().(*govalidator.Validate)
	require.True(t, ok)

	assert.NoError(t, v.Struct(noteForm{Notes: strings.Repeat("a", 255)}))
	assert.Error(t, v.Struct(noteForm{Notes: strings.Repeat("a", 256)}))

	// 200 runes but 400 bytes.
	assert.Error(t, v.Struct(noteForm{Notes: strings.Repeat("é", 200)}))
	assert.NoError(t, v.Struct(noteForm{Notes: strings.Repeat("é", 127)}))
}

func TestMaxBytesTranslation(t *testing.T) {
	Setup()
	v, ok := binding.Validator.Engine().(*govalidator.Validate)
	require.True(t, ok)

	err := v.Struct(noteForm{Notes: strings.Repeat("a", 300)})
	fields := TranslateErrors(err)
	assert.Equal(t, "notes must be at most 255 bytes", fields["notes"])
}
