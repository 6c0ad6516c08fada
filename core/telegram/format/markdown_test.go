package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscape(t *testing.T) {
	assert.Equal(t, "a\\_b\\*c\\`d\\[e]", Escape("a_b*c`d[e]"))
	assert.Equal(t, "1.5 (x)!", Escape("1.5 (x)!"))
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "*R\\_K Stores*", Bold("R_K Stores"))
	assert.Equal(t, "`+91 98765 43210`", Code("+91 98765 43210"))
	assert.Equal(t, "`ab`", Code("a`b"))
	assert.Equal(t, "Plumber", Title("plumber"))
	assert.Equal(t, "Plumber", Title("PLUMBER"))
	assert.Equal(t, "", Title(""))
}
