package commands

import (
	"github.com/bwmarrin/discordgo"

	"github.com/susu3304/geoquiz/internal/places"
)

// GetCommands builds the slash commands for one guild. modes lists the mode
// names the process resolves, so a custom tier table shows up as a choice.
func GetCommands(modes []string) []*discordgo.ApplicationCommand {
	difficulties := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(places.Difficulties))
	for _, d := range places.Difficulties {
		difficulties = append(difficulties, &discordgo.ApplicationCommandOptionChoice{Name: string(d), Value: string(d)})
	}
	modeChoices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(modes))
	for _, m := range modes {
		modeChoices = append(modeChoices, &discordgo.ApplicationCommandOptionChoice{Name: m, Value: m})
	}

	startOptions := []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "difficulty",
			Description: "Which cities to ask for (default simple)",
			Choices:     difficulties,
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "mode",
			Description: "How guesses are scored (default classic)",
			Choices:     modeChoices,
		},
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "rounds",
			Description: "Rounds to play, 0 for endless",
			MinValue:    floatPtr(0),
			MaxValue:    50,
		},
	}
	for _, name := range extraPlayers {
		startOptions = append(startOptions, &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        name,
			Description: "Another player, in turn order",
		})
	}

	return []*discordgo.ApplicationCommand{
		{
			Name:         "quiz",
			Description:  "Guess where French cities are",
			DMPermission: boolPtr(false),
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "start",
					Description: "Start a game in this channel",
					Options:     startOptions,
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "guess",
					Description: "Answer with lat,lng or a Google Maps link",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "location",
							Description: "e.g. 48.85,2.35 or https://maps.app.goo.gl/...",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "next",
					Description: "Move on to the next city",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "board",
					Description: "Show the scores",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "stop",
					Description: "End the game in this channel",
				},
			},
		},
	}
}

var extraPlayers = []string{"player2", "player3", "player4"}

func boolPtr(b bool) *bool {
	return &b
}

func floatPtr(f float64) *float64 {
	return &f
}
