package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColourForKnownColours(t *testing.T) {
	green := "green"
	assert.Contains(t, colourFor(&green), "green")

	red := "red"
	assert.Contains(t, colourFor(&red), "red")
}

func TestColourForNilIsBlank(t *testing.T) {
	assert.Contains(t, colourFor(nil), "blank")
}
