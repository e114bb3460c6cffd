package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/smarthome-go/hmsconsole/console"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runSession(t *testing.T, config console.Config, input string) string {
	t.Helper()

	options, err := config.RunnerOptions()
	require.NoError(t, err)

	var output bytes.Buffer
	err = loop(context.Background(), config, options, newPipeReader(strings.NewReader(input)), &output)
	require.NoError(t, err)

	return output.String()
}

func TestLoop(t *testing.T) {
	config := console.DefaultConfig()
	config.Banner = "banner"

	output := runSession(t, config, "x = 20\nfn f() {\n    x * 2\n}\nf() + 2\nprint('side effect');\n1 +\nthrow 'oops'\n")

	assert.True(t, strings.HasPrefix(output, "banner\n42\nside effect\n"), output)
	assert.Contains(t, output, "  File \"<console>\", line 1\n    1 +\n")
	assert.Contains(t, output, "SyntaxError: ")
	assert.Contains(t, output, "Traceback (most recent call last):\n  File \"<console>\", line 1, in <module>\n    throw 'oops'\n")
	assert.True(t, strings.HasSuffix(output, "Exception: oops\n\n"), output)
}

func TestLoopShortensResults(t *testing.T) {
	config := console.DefaultConfig()
	config.Banner = "banner"
	config.OutputLimit = 9

	output := runSession(t, config, "'abcdefghijklmnop'\n")
	assert.Equal(t, "banner\n\"abc...mnop\"\n\n", output)
}

func TestCommonPrefix(t *testing.T) {
	assert.Equal(t, "pri", commonPrefix([]string{"print", "printer", "pri"}))
	assert.Equal(t, "keys", commonPrefix([]string{"keys"}))
	assert.Equal(t, "", commonPrefix([]string{"a", "b"}))
}

func TestCompleter(t *testing.T) {
	session, err := console.NewConsole(nil, console.DefaultConsoleOptions())
	require.NoError(t, err)
	res := session.Push(context.Background(), "thermostat = 21")
	require.Nil(t, res.Err)

	complete := completer(session)

	line, pos, ok := complete("x = therm", 9, '\t')
	require.True(t, ok)
	assert.Equal(t, "x = thermostat", line)
	assert.Equal(t, 14, pos)

	_, _, ok = complete("x = therm", 9, 'a')
	assert.False(t, ok)

	_, _, ok = complete("nothing_matches", 15, '\t')
	assert.False(t, ok)
}
