package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestYesNoPromptDefaultOnEmptyLine(t *testing.T) {
	out := &bytes.Buffer{}
	p := YesNoPrompt{In: strings.NewReader("\n"), Out: out}

	ok, err := p.Confirm("Deploy?", true)
	require.NoError(t, err)
	require.True(t, ok)
	require.Contains(t, out.String(), "[Y/n]")
}

func TestYesNoPromptAcceptsYesVariants(t *testing.T) {
	for _, answer := range []string{"y\n", "ye\n", "yes\n", "YES\n"} {
		p := YesNoPrompt{In: strings.NewReader(answer), Out: &bytes.Buffer{}}
		ok, err := p.Confirm("Deploy?", false)
		require.NoError(t, err)
		require.True(t, ok, "answer %q should confirm", answer)
	}
}

func TestYesNoPromptAcceptsNoVariants(t *testing.T) {
	for _, answer := range []string{"n\n", "no\n", "NO\n"} {
		p := YesNoPrompt{In: strings.NewReader(answer), Out: &bytes.Buffer{}}
		ok, err := p.Confirm("Deploy?", true)
		require.NoError(t, err)
		require.False(t, ok, "answer %q should decline", answer)
	}
}

func TestYesNoPromptRepromptsOnGarbage(t *testing.T) {
	out := &bytes.Buffer{}
	p := YesNoPrompt{In: strings.NewReader("maybe\nyes\n"), Out: out}

	ok, err := p.Confirm("Deploy?", false)
	require.NoError(t, err)
	require.True(t, ok)
	require.Contains(t, out.String(), `Please respond with "yes" or "no"`)
}

func TestYesNoPromptErrorsOnEOFWithoutInput(t *testing.T) {
	p := YesNoPrompt{In: strings.NewReader(""), Out: &bytes.Buffer{}}

	_, err := p.Confirm("Deploy?", true)
	require.Error(t, err)
}
