package console

import (
	"errors"
	"fmt"
	"strings"

	"github.com/DoyleJ11/rise-hand/internal/handraise"
)

var ErrUnknownCommand = errors.New("unknown command")

type CommandKind int

const (
	CmdRaise CommandKind = iota + 1
	CmdLower
	CmdGive
	CmdRemove
	CmdClear
	CmdQueue
	CmdPosition
	CmdHelp
	CmdQuit
)

type Command struct {
	Kind     CommandKind
	Priority handraise.Priority
	UserID   string
}

const Help = `commands:
  raise [normal|urgent]   raise your hand
  lower                   lower your hand
  give <user>             give the word (GM)
  remove <user>           remove someone from the queue (GM)
  clear                   clear the queue (GM)
  queue                   show the queue
  pos [user]              show a queue position
  help                    show this text
  quit                    leave`

// ParseCommand reads one line typed at the prompt. Blank lines parse to a
// zero Command with no error.
func ParseCommand(line string) (Command, error) {
	f := strings.Fields(line)
	if len(f) == 0 {
		return Command{}, nil
	}
	verb, args := strings.ToLower(f[0]), f[1:]

	needUser := func(k CommandKind) (Command, error) {
		if len(args) != 1 {
			return Command{}, fmt.Errorf("%s needs exactly one user id", verb)
		}
		return Command{Kind: k, UserID: args[0]}, nil
	}
	noArgs := func(k CommandKind) (Command, error) {
		if len(args) != 0 {
			return Command{}, fmt.Errorf("%s takes no arguments", verb)
		}
		return Command{Kind: k}, nil
	}

	switch verb {
	case "raise", "r":
		if len(args) > 1 {
			return Command{}, errors.New("raise takes at most one priority")
		}
		p := handraise.PriorityNormal
		if len(args) == 1 {
			var err error
			if p, err = handraise.ParsePriority(args[0]); err != nil {
				return Command{}, err
			}
		}
		return Command{Kind: CmdRaise, Priority: p}, nil
	case "lower", "l":
		return noArgs(CmdLower)
	case "give":
		return needUser(CmdGive)
	case "remove", "rm":
		return needUser(CmdRemove)
	case "clear":
		return noArgs(CmdClear)
	case "queue", "q":
		return noArgs(CmdQueue)
	case "pos":
		if len(args) > 1 {
			return Command{}, errors.New("pos takes at most one user id")
		}
		c := Command{Kind: CmdPosition}
		if len(args) == 1 {
			c.UserID = args[0]
		}
		return c, nil
	case "help", "?":
		return noArgs(CmdHelp)
	case "quit", "exit":
		return noArgs(CmdQuit)
	}
	return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, verb)
}
