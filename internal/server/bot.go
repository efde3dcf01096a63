package server

import (
	"fmt"
	mathrand "math/rand"
	"strings"
)

// BotName is the username PMs are routed to the command stub for.
const BotName = "GammaBot"

// botReply answers a private message sent to the bot.
func botReply(sender, message string) string {
	fields := strings.Fields(message)
	if len(fields) == 0 {
		return "say !help for a list of commands"
	}
	switch strings.ToLower(fields[0]) {
	case "!help":
		return "commands: !help, !roll"
	case "!roll":
		return fmt.Sprintf("%s rolls %d!", sender, mathrand.Intn(101))
	default:
		return "unknown command, say !help for a list of commands"
	}
}
