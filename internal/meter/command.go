package meter

import "fmt"

// Command is a single-byte control code understood by the meter
type Command byte

const (
	// CommandStart makes the device report measured power values
	CommandStart Command = 'A'
	// CommandStop makes the device report zero until the next start
	CommandStop Command = 'B'
	// CommandEnable turns the monitor on
	CommandEnable Command = 'C'
	// CommandDisable turns the monitor off
	CommandDisable Command = 'D'
)

func (c Command) String() string {
	switch c {
	case CommandStart:
		return "start"
	case CommandStop:
		return "stop"
	case CommandEnable:
		return "enable"
	case CommandDisable:
		return "disable"
	default:
		return fmt.Sprintf("Command(%q)", byte(c))
	}
}
