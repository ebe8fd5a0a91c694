package managesieve

import (
	"bufio"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadItems(t *testing.T) {
	script := "line one\r\nline \"two\"\r\n"
	tests := []struct {
		name string
		wire string
		want []item
	}{
		{
			name: "capability",
			wire: "\"SIEVE\" \"fileinto imap4flags\"\r\n",
			want: []item{{itemString, "SIEVE"}, {itemString, "fileinto imap4flags"}},
		},
		{
			name: "active script",
			wire: "\"main_script\" ACTIVE\r\n",
			want: []item{{itemString, "main_script"}, {itemAtom, "ACTIVE"}},
		},
		{
			name: "status with code",
			wire: "NO (NONEXISTENT) \"There is no \\\"script\\\"\"\r\n",
			want: []item{{itemAtom, "NO"}, {itemCode, "NONEXISTENT"}, {itemString, "There is no \"script\""}},
		},
		{
			name: "literal",
			wire: "{" + strconv.Itoa(len(script)) + "}\r\n" + script + "\r\n",
			want: []item{{itemString, script}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := readItems(bufio.NewReader(strings.NewReader(tt.wire)))
			require.NoError(t, err)
			assert.Equal(t, tt.want, items)
		})
	}
}

func TestReadItemsErrors(t *testing.T) {
	for _, wire := range []string{"", "\"unterminated\r\n", "NO (CODE\r\n", "{abc}\r\n", "{10}\r\nshort"} {
		_, err := readItems(bufio.NewReader(strings.NewReader(wire)))
		assert.Error(t, err, wire)
	}
}

func TestStatusError(t *testing.T) {
	assert.NoError(t, statusError("OK", []item{{itemAtom, "OK"}}))

	err := statusError("NO", []item{{itemAtom, "NO"}, {itemCode, "ACTIVE"}, {itemString, "busy"}})
	require.Error(t, err)
	assert.True(t, IsResponseCode(err, "ACTIVE"))
	assert.Equal(t, "managesieve NO (ACTIVE): busy", err.Error())
}

func TestEncodeString(t *testing.T) {
	assert.Equal(t, `"main_script"`, encodeString("main_script"))
	assert.Equal(t, `"a \"b\" \\c"`, encodeString(`a "b" \c`))
	assert.Equal(t, "{5+}\r\na\r\nb", encodeString("a\r\nb"))
	long := strings.Repeat("x", 1025)
	assert.Equal(t, "{1025+}\r\n"+long, encodeString(long))
}
