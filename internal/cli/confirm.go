package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// YesNoPrompt reproduces query_yes_no's exact prompt semantics: a
// trailing " [Y/n] " or " [y/N] " depending on the default, a bare Enter
// accepting that default, and re-prompting on anything else.
type YesNoPrompt struct {
	In  io.Reader
	Out io.Writer
}

var yesAnswers = map[string]bool{"y": true, "ye": true, "yes": true}
var noAnswers = map[string]bool{"n": true, "no": true}

// Confirm asks question and returns the user's yes/no answer.
func (p YesNoPrompt) Confirm(question string, defaultYes bool) (bool, error) {
	suffix := " [y/N] "
	if defaultYes {
		suffix = " [Y/n] "
	}

	reader := bufio.NewReader(p.In)
	for {
		fmt.Fprint(p.Out, question+suffix)

		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return false, fmt.Errorf("read confirmation: %w", err)
		}

		choice := strings.ToLower(strings.TrimSpace(line))
		if choice == "" {
			return defaultYes, nil
		}
		if yes, ok := yesAnswers[choice]; ok {
			return yes, nil
		}
		if _, ok := noAnswers[choice]; ok {
			return false, nil
		}

		fmt.Fprintln(p.Out, `Please respond with "yes" or "no" (or "y" or "n").`)
	}
}
