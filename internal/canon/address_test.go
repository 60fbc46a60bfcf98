package canon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPropertyKeyStable(t *testing.T) {
	a := PropertyKey("123 Main Street, Springfield, IL 62704")
	b := PropertyKey("  123 MAIN ST Springfield IL 62704 ")
	assert.Equal(t, a, b)
	assert.Equal(t, "123 main st springfield il 62704", a)
}

func TestPropertyKeyIgnoresUnit(t *testing.T) {
	a := PropertyKey("55 Oak Avenue Apt 4")
	b := PropertyKey("55 Oak Ave")
	assert.Equal(t, b, a)
}

func TestPropertyKeyEmpty(t *testing.T) {
	assert.Equal(t, "", PropertyKey(""))
	assert.Equal(t, "", PropertyKey("   "))
}

func TestNormalizeSuffixes(t *testing.T) {
	assert.Equal(t, "9 ELM BLVD", Normalize("9 Elm Boulevard"))
	assert.Equal(t, "9 ELM DR", Normalize("9 elm drive"))
}
