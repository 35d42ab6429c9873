package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmail(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"Jane.Doe@X.edu ", "jane.doe@x.edu"},
		{"  JANE.DOE@X.EDU", "jane.doe@x.edu"},
		{"jane.doe@x.edu", "jane.doe@x.edu"},
		{"jane.doe@x.edu\u200b", "jane.doe@x.edu"},
		{"\ufeffjane.doe@x.edu\r\n", "jane.doe@x.edu"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeEmail(tc.raw), "raw=%q", tc.raw)
	}
}

func TestNormalizeEmailIdempotent(t *testing.T) {
	for _, raw := range []string{"Jane.Doe@X.edu ", "a@b.c", " MiXeD@Case.FR\u200b "} {
		once := NormalizeEmail(raw)
		assert.Equal(t, once, NormalizeEmail(once))
	}
}
