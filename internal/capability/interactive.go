package capability

import (
	"errors"
	"fmt"
	"io"

	"github.com/chzyer/readline"
)

// Prompt is shown before each interactive command.
const Prompt = "(dbgp) "

// commandNames are the DBGp commands offered for completion.
var commandNames = []string{ //nolint:gochecknoglobals
	"status", "feature_get", "feature_set",
	"run", "step_into", "step_over", "step_out", "stop", "detach",
	"breakpoint_set", "breakpoint_get", "breakpoint_update", "breakpoint_remove", "breakpoint_list",
	"stack_depth", "stack_get", "context_names", "context_get",
	"typemap_get", "property_get", "property_set", "property_value",
	"source", "stdout", "stderr", "stdin", "break", "eval", "expr", "exec",
	"interact", "quit", "exit",
}

func completer() readline.AutoCompleter {
	items := make([]readline.PrefixCompleterInterface, len(commandNames))
	for i, name := range commandNames {
		items[i] = readline.PcItem(name)
	}
	return readline.NewPrefixCompleter(items...)
}

// newReadlineSource reads commands from the terminal with line
// editing.  Ctrl-C clears the current line; Ctrl-D ends the input.
func newReadlineSource(historyFile string) (*lineSource, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          Prompt,
		HistoryFile:     historyFile,
		HistoryLimit:    1000,
		AutoComplete:    completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("line editor: %w", err)
	}

	l := newLineSource()
	l.closeFn = rl.Close
	go func() {
		defer close(l.lines)
		for {
			line, err := rl.Readline()
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					l.err = err
				}
				return
			}
			if !l.deliver(line) {
				return
			}
		}
	}()
	return l, nil
}
