package announce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/Dosada05/promotion-results/live"
	"github.com/Dosada05/promotion-results/models"
	"github.com/Dosada05/promotion-results/repositories"
	"github.com/Dosada05/promotion-results/storage"
	"github.com/bwmarrin/discordgo"
)

// StoreSink appends announcements to the announcements table.
type StoreSink struct {
	repo repositories.AnnouncementRepository
}

func NewStoreSink(repo repositories.AnnouncementRepository) *StoreSink {
	return &StoreSink{repo: repo}
}

func (s *StoreSink) Name() string { return "store" }

func (s *StoreSink) Publish(ctx context.Context, a *models.Announcement) error {
	return s.repo.Create(ctx, nil, a)
}

// HubSink pushes announcements to websocket clients.
type HubSink struct {
	hub *live.Hub
}

func NewHubSink(hub *live.Hub) *HubSink {
	return &HubSink{hub: hub}
}

func (s *HubSink) Name() string { return "live" }

func (s *HubSink) Publish(_ context.Context, a *models.Announcement) error {
	msgType := "TITLE_CHANGE"
	if a.Category != models.CategoryTitleChange {
		msgType = string(a.Category)
	}
	for _, room := range []string{live.AnnouncementsRoom, live.ChampionshipRoom(a.ChampionshipID)} {
		if err := s.hub.BroadcastToRoom(room, live.Message{Type: msgType, Payload: a, RoomID: room}); err != nil {
			return err
		}
	}
	return nil
}

// Publisher is the subset of *nats.Conn used by NATSSink.
type Publisher interface {
	Publish(subj string, data []byte) error
}

type NATSSink struct {
	conn    Publisher
	subject string
}

func NewNATSSink(conn Publisher, subject string) *NATSSink {
	return &NATSSink{conn: conn, subject: subject}
}

func (s *NATSSink) Name() string { return "nats" }

func (s *NATSSink) Publish(_ context.Context, a *models.Announcement) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal announcement %s: %w", a.ID, err)
	}
	if err := s.conn.Publish(s.subject+"."+string(a.Category), data); err != nil {
		return fmt.Errorf("publish announcement %s to nats: %w", a.ID, err)
	}
	return nil
}

// EmbedSender is the subset of *discordgo.Session used by DiscordSink.
type EmbedSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type DiscordSink struct {
	session   EmbedSender
	channelID string
}

func NewDiscordSink(session EmbedSender, channelID string) *DiscordSink {
	return &DiscordSink{session: session, channelID: channelID}
}

func (s *DiscordSink) Name() string { return "discord" }

const titleChangeColor = 0xD4AF37

func (s *DiscordSink) Publish(ctx context.Context, a *models.Announcement) error {
	_, err := s.session.ChannelMessageSendEmbed(s.channelID, discordEmbed(a), discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("send discord embed for %s: %w", a.Slug, err)
	}
	return nil
}

func discordEmbed(a *models.Announcement) *discordgo.MessageEmbed {
	fields := []*discordgo.MessageEmbedField{
		{Name: "Method", Value: string(a.Method), Inline: true},
		{Name: "Event", Value: strconv.Itoa(a.EventID), Inline: true},
	}
	if a.PreviousHolderID == nil {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Previous holder", Value: "vacant", Inline: true})
	}
	return &discordgo.MessageEmbed{
		Title:       a.Title,
		Description: a.Body,
		Color:       titleChangeColor,
		Fields:      fields,
		Footer:      &discordgo.MessageEmbedFooter{Text: a.Slug},
		Timestamp:   a.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

// ArchiveSink keeps a JSON copy of every announcement in object storage.
type ArchiveSink struct {
	uploader storage.ObjectUploader
}

func NewArchiveSink(uploader storage.ObjectUploader) *ArchiveSink {
	return &ArchiveSink{uploader: uploader}
}

func (s *ArchiveSink) Name() string { return "archive" }

func ArchiveKey(a *models.Announcement) string {
	return fmt.Sprintf("announcements/%s/%s.json", a.CreatedAt.UTC().Format("2006/01/02"), a.Slug)
}

func (s *ArchiveSink) Publish(ctx context.Context, a *models.Announcement) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal announcement %s: %w", a.ID, err)
	}
	if _, err := s.uploader.Upload(ctx, ArchiveKey(a), "application/json", bytes.NewReader(data)); err != nil {
		return err
	}
	return nil
}
