package model

import (
	"testing"

	"github.com/andaru/relaxng/xmlutil"
	"github.com/stretchr/testify/assert"
)

func TestNameClassContains(t *testing.T) {
	abc := xmlutil.Name{NS: "urn:a", Local: "abc"}
	xyz := xmlutil.Name{NS: "urn:a", Local: "xyz"}
	other := xmlutil.Name{NS: "urn:b", Local: "abc"}
	plain := xmlutil.Name{Local: "abc"}

	for _, tc := range []struct {
		name string
		nc   NameClass
		in   []xmlutil.Name
		out  []xmlutil.Name
	}{
		{
			name: "named",
			nc:   &NameNamed{Name: abc},
			in:   []xmlutil.Name{abc},
			out:  []xmlutil.Name{xyz, other, plain},
		},
		{
			name: "anyName",
			nc:   &NameAny{},
			in:   []xmlutil.Name{abc, xyz, other, plain},
		},
		{
			name: "anyName-except",
			nc:   &NameAny{Except: &NameNS{NS: "urn:a"}},
			in:   []xmlutil.Name{other, plain},
			out:  []xmlutil.Name{abc, xyz},
		},
		{
			name: "nsName",
			nc:   &NameNS{NS: "urn:a"},
			in:   []xmlutil.Name{abc, xyz},
			out:  []xmlutil.Name{other, plain},
		},
		{
			name: "nsName-except",
			nc:   &NameNS{NS: "urn:a", Except: &NameNamed{Name: abc}},
			in:   []xmlutil.Name{xyz},
			out:  []xmlutil.Name{abc, other},
		},
		{
			name: "choice",
			nc:   &NameChoice{A: &NameNamed{Name: abc}, B: &NameNamed{Name: other}},
			in:   []xmlutil.Name{abc, other},
			out:  []xmlutil.Name{xyz, plain},
		},
		{
			name: "empty-ns",
			nc:   &NameNS{NS: ""},
			in:   []xmlutil.Name{plain},
			out:  []xmlutil.Name{abc},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			for _, n := range tc.in {
				assert.True(t, tc.nc.Contains(n), "want %v in class", n)
			}
			for _, n := range tc.out {
				assert.False(t, tc.nc.Contains(n), "want %v out of class", n)
			}
		})
	}
}

func TestFormatCyclicGraph(t *testing.T) {
	// a = element a { b }, b = element b { a | empty }
	defA := &Define{Name: "a"}
	defB := &Define{Name: "b"}
	defA.Body = &Element{Name: &NameNamed{Name: xmlutil.Name{Local: "a"}},
		Content: &Ref{Name: "b", Define: defB}}
	defB.Body = &Element{Name: &NameNamed{Name: xmlutil.Name{Local: "b"}},
		Content: &Choice{L: &Ref{Name: "a", Define: defA}, R: &Empty{}}}

	// must terminate and mention both defines
	out := Format(&Ref{Name: "a", Define: defA})
	assert.Contains(t, out, "element a")
	assert.Contains(t, out, "element b")
}
