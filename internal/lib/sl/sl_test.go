package sl_test

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/license-activator/internal/lib/sl"
)

func TestErr_ReturnsCorrectAttr(t *testing.T) {
	err := errors.New("something went wrong")
	attr := sl.Err(err)

	assert.Equal(t, "error", attr.Key)
	assert.Equal(t, slog.StringValue("something went wrong"), attr.Value)
}

func TestErr_NilError(t *testing.T) {
	assert.Panics(t, func() {
		_ = sl.Err(nil)
	})
}

func TestMaskKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want string
	}{
		{name: "empty", key: "", want: ""},
		{name: "short", key: "abc", want: "***"},
		{name: "exactly four", key: "abcd", want: "****"},
		{name: "regular key", key: "38b1460a-5104-4067-a91d-77b872934d51", want: "********************************4d51"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sl.MaskKey(tt.key))
		})
	}
}

func TestKey_Attr(t *testing.T) {
	attr := sl.Key("ABCDEFGH")
	assert.Equal(t, "license_key", attr.Key)
	assert.Equal(t, "****EFGH", attr.Value.String())
}
