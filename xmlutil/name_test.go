package xmlutil

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewName(t *testing.T) {
	for _, tc := range []struct {
		local  string
		spaces []string
		want   Name
	}{
		{local: "foo", want: Name{Local: "foo"}},
		{local: "foo", spaces: []string{"bar"}, want: Name{NS: "bar", Local: "foo"}},
		{local: "foo", spaces: []string{"bar", "baz"}, want: Name{NS: "bar", Local: "foo"}},
		{want: Name{}},
	} {
		t.Run(fmt.Sprintf("%v", tc.want), func(t *testing.T) { assert.New(t).Equal(tc.want, NewName(tc.local, tc.spaces...)) })
	}
}

func TestNameString(t *testing.T) {
	for _, tc := range []struct {
		name Name
		want string
	}{
		{name: Name{Local: "a"}, want: "a"},
		{name: Name{NS: "urn:x", Local: "a"}, want: "{urn:x}a"},
	} {
		assert.Equal(t, tc.want, tc.name.String())
	}
}
