package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Thèse en mécanique des fluides", "These en mecanique des fluides"},
		{"cœur — et « guillemets »", "coeur - et \" guillemets \""},
		{"ligne1\nligne2\r\nligne3", "ligne1 ligne2 ligne3"},
		{"col1\tcol2", "col1    col2"},
		{"a  b", "a  b"}, // interior space runs survive
		{"emoji \U0001f600 !", "emoji ? !"},
		{"d\x07ing", "ding"}, // control char dropped
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Sanitize(tc.in), "in=%q", tc.in)
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	for _, in := range []string{"Où ça ? Là-bas…", "a\tb\nc", "déjà vu"} {
		once := Sanitize(in)
		assert.Equal(t, once, Sanitize(once))
	}
}

func TestSanitizeASCIIOnly(t *testing.T) {
	out := Sanitize("été ñ 中文 …")
	for _, r := range out {
		assert.Less(t, r, rune(0x7f))
	}
}
