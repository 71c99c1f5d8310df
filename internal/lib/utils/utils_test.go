package utils

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitCSV(t *testing.T) {
	assert.Nil(t, SplitCSV(""))
	assert.Nil(t, SplitCSV(" , ,"))
	assert.Equal(t, []string{"name", "price"}, SplitCSV("name, price,,"))
	assert.Equal(t, []string{"-ratingsAverage", "price"}, SplitCSV("-ratingsAverage,price"))
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintJSON(&buf, map[string]int{"results": 2}))
	assert.Equal(t, "{\n  \"results\": 2\n}\n", buf.String())
}
