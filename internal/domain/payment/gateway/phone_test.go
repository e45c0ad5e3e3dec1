package gateway

import (
	"testing"

	"cakery_api/pkg/apperr"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	t.Run("Leading zero becomes country code", func(t *testing.T) {
		got, err := NormalizePhone("0712345678")
		assert.NoError(t, err)
		assert.Equal(t, "254712345678", got)
	})

	t.Run("Plus prefix stripped", func(t *testing.T) {
		got, err := NormalizePhone("+254712345678")
		assert.NoError(t, err)
		assert.Equal(t, "254712345678", got)
	})

	t.Run("Country code passes through", func(t *testing.T) {
		got, err := NormalizePhone("254712345678")
		assert.NoError(t, err)
		assert.Equal(t, "254712345678", got)
	})

	t.Run("Spaces removed before matching", func(t *testing.T) {
		got, err := NormalizePhone(" 0712 345 678 ")
		assert.NoError(t, err)
		assert.Equal(t, "254712345678", got)
	})

	t.Run("Unrecognized prefix rejected", func(t *testing.T) {
		_, err := NormalizePhone("712345678")

		var invalid *apperr.InvalidPhoneNumberError
		assert.ErrorAs(t, err, &invalid)
	})
}
