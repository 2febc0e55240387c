package sampler

import (
	"bufio"
	"io"
	"strings"
)

// CommandKind identifies an operator command.
type CommandKind int

const (
	CmdUnknown CommandKind = iota
	CmdStart
	CmdStop
	CmdStatus
	CmdQuit
)

// Command is one parsed operator input line.
type Command struct {
	Kind  CommandKind
	Label string // session label for CmdStart
	Raw   string
}

// Usage lists the accepted operator commands.
const Usage = "commands: start-session <label> (n), stop-session (s), status, quit (q)"

// ParseCommand parses one input line. ok is false for blank lines.
func ParseCommand(line string) (cmd Command, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{}, false
	}
	cmd.Raw = line
	verb, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(verb) {
	case "start-session", "n":
		if rest != "" {
			cmd.Kind = CmdStart
			cmd.Label = rest
		}
	case "stop-session", "s":
		cmd.Kind = CmdStop
	case "status":
		cmd.Kind = CmdStatus
	case "quit", "q":
		cmd.Kind = CmdQuit
	}
	return cmd, true
}

// ReadCommands parses lines from r on its own goroutine and delivers them on
// the returned channel, which is closed when r is exhausted.
func ReadCommands(r io.Reader) <-chan Command {
	ch := make(chan Command, 16)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			if cmd, ok := ParseCommand(sc.Text()); ok {
				ch <- cmd
			}
		}
	}()
	return ch
}
