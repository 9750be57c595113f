package command

// Locate returns the command at pos. Without a position it returns the last
// command. A command containing pos wins; otherwise the last command ending
// on the same line, then the last command ending before pos, then the last
// command of all. It returns nil only for an empty list.
func Locate(commands []Command, pos *Position) *Command {
	if len(commands) == 0 {
		return nil
	}

	last := &commands[len(commands)-1]
	if pos == nil {
		return last
	}

	// adjacent commands share a boundary position, which belongs to the later one
	for i := range commands {
		if commands[i].Range.containsHalfOpen(*pos) {
			return &commands[i]
		}
	}

	var sameLine, before *Command

	for i := range commands {
		command := &commands[i]

		if command.Range.Contains(*pos) {
			return command
		}

		if command.Range.End.Line == pos.Line {
			sameLine = command
		}

		if command.Range.End.Before(*pos) {
			before = command
		}
	}

	switch {
	case sameLine != nil:
		return sameLine
	case before != nil:
		return before
	default:
		return last
	}
}
