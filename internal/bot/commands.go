package bot

import (
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/plantshop-bot/internal/i18n"
)

// Command constants for Telegram bot commands.
const (
	CommandStart   = "/start"
	CommandCatalog = "/catalog"
	CommandInfo    = "/info"
	CommandHelp    = "/help"
	CommandCancel  = "/cancel"
	CommandAdmin   = "/admin"
)

var menuCommands = []string{CommandStart, CommandCatalog, CommandInfo, CommandHelp, CommandCancel, CommandAdmin}

// MenuCommands returns the command list shown in the Telegram client menu.
func MenuCommands(t i18n.Translator) []telebot.Command {
	commands := make([]telebot.Command, 0, len(menuCommands))
	for _, cmd := range menuCommands {
		name := cmd[1:]
		commands = append(commands, telebot.Command{Text: name, Description: t.T("commands." + name)})
	}
	return commands
}
