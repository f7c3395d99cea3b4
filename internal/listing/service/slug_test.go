package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{name: "simple title", title: "Kos Melati", want: "kos-melati"},
		{name: "uppercase and padding", title: "  Kos PUTRI Harmoni  ", want: "kos-putri-harmoni"},
		{name: "special characters stripped", title: "Kos “Mawar” #2!", want: "kos-mawar-2"},
		{name: "whitespace runs collapse", title: "Kos   Anggrek \t Indah", want: "kos-anggrek-indah"},
		{name: "existing hyphens kept single", title: "Kos - Dahlia", want: "kos-dahlia"},
		{name: "short title gets suffix", title: "A1", want: "a1-kos"},
		{name: "symbols only gets suffix", title: "!!!", want: "-kos"},
		{name: "digits survive", title: "Wisma 88", want: "wisma-88"},
		{name: "accented letters dropped", title: "Wisma Štrudla", want: "wisma-trudla"},
		{name: "non-latin script dropped", title: "Kos 三号", want: "kos"},
		{name: "fullwidth digits dropped", title: "Kos Blok １２", want: "kos-blok"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Slugify(tc.title))
		})
	}
}

func TestSlugCandidate(t *testing.T) {
	assert.Equal(t, "kos-melati", slugCandidate("kos-melati", 0))
	assert.Equal(t, "kos-melati-1", slugCandidate("kos-melati", 1))
	assert.Equal(t, "kos-melati-7", slugCandidate("kos-melati", 7))
}
