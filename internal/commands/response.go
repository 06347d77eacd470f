package commands

import (
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

func respondText(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content},
	})
	if err != nil {
		zap.L().Warn("failed to respond", zap.String("channel", i.ChannelID), zap.Error(err))
	}
}

func deferResponse(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
}

func editResponse(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content: strPtr(content),
	}); err != nil {
		zap.L().Warn("failed to edit response", zap.String("channel", i.ChannelID), zap.Error(err))
	}
}

func strPtr(s string) *string {
	return &s
}
