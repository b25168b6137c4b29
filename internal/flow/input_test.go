package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidAccountID(t *testing.T) {
	testCases := []struct {
		input    string
		expected bool
	}{
		{"0.0.1234", true},
		{"1.2.3", true},
		{"10.20.3045981", true},
		{" 0.0.1234 ", true},
		{"0.0.abc", false},
		{"0.0", false},
		{"0.0.1234.5", false},
		{"0,0,1234", false},
		{"", false},
		{"-1.0.1234", false},
	}

	for _, tc := range testCases {
		assert.Equalf(t, tc.expected, ValidAccountID(tc.input), "input %q", tc.input)
	}
}

func TestParseAmount(t *testing.T) {
	testCases := []struct {
		input   string
		wantErr bool
		want    string
	}{
		{input: "1.5", want: "1.5"},
		{input: "0.0001", want: "0.0001"},
		{input: "100", want: "100"},
		{input: " 2.5 ", want: "2.5"},
		{input: "0", wantErr: true},
		{input: "-3", wantErr: true},
		{input: "abc", wantErr: true},
		{input: "", wantErr: true},
		{input: "NaN", wantErr: true},
		{input: "Inf", wantErr: true},
	}

	for _, tc := range testCases {
		amount, err := ParseAmount(tc.input)
		if tc.wantErr {
			assert.ErrorIsf(t, err, ErrBadAmount, "input %q", tc.input)
			continue
		}

		assert.NoErrorf(t, err, "input %q", tc.input)
		assert.Equalf(t, tc.want, amount.String(), "input %q", tc.input)
	}
}
