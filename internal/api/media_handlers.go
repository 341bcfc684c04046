package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/memoriaapp/memoria-server/internal/domain"
	"github.com/memoriaapp/memoria-server/internal/service"
)

func (s *Server) registerMediaRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "addMedia",
		Method:      http.MethodPost,
		Path:        "/api/v1/guilds/{guildId}/media",
		Summary:     "Add media",
		Description: "Stores a media record with normalized tags",
		Tags:        []string{"Media"},
	}, s.handleAddMedia)

	huma.Register(s.api, huma.Operation{
		OperationID: "listGuildTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/guilds/{guildId}/tags",
		Summary:     "List guild tags",
		Description: "Returns the distinct canonical tags in use across a guild's media",
		Tags:        []string{"Media"},
	}, s.handleListGuildTags)
}

// === DTOs ===

// AddMediaRequest is the request body for storing media.
type AddMediaRequest struct {
	OwnerUserID  string `json:"owner_user_id" validate:"required" doc:"Platform user adding the media"`
	MediaURL     string `json:"media_url" validate:"required,url" doc:"Canonical URL of the media"`
	MediaType    string `json:"media_type" validate:"required,oneof=image gif video" doc:"Media classification"`
	Tags         string `json:"tags" validate:"required,tagtext" doc:"Raw tag text, normalized server-side"`
	FileName     string `json:"file_name,omitempty" doc:"Original file name"`
	ThumbnailURL string `json:"thumbnail_url,omitempty" validate:"omitempty,url" doc:"Preview image URL"`
}

// AddMediaInput wraps the add media request for Huma.
type AddMediaInput struct {
	GuildID string `path:"guildId" doc:"Guild the media belongs to"`
	Body    AddMediaRequest
}

// MediaResponse contains media record data in API responses.
type MediaResponse struct {
	ID           string    `json:"id" doc:"Media ID"`
	GuildID      string    `json:"guild_id" doc:"Owning guild"`
	OwnerUserID  string    `json:"owner_user_id" doc:"User who added the media"`
	MediaURL     string    `json:"media_url" doc:"Canonical URL"`
	MediaType    string    `json:"media_type" doc:"Media classification"`
	Tags         []string  `json:"tags" doc:"Canonical tags"`
	FileName     string    `json:"file_name,omitempty" doc:"Original file name"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty" doc:"Preview image URL"`
	RecallCount  int64     `json:"recall_count" doc:"Times this media has been sent"`
	CreatedAt    time.Time `json:"created_at" doc:"Creation time"`
}

// MediaOutput wraps the media response for Huma.
type MediaOutput struct {
	Body MediaResponse
}

// ListGuildTagsInput contains parameters for listing a guild's tags.
type ListGuildTagsInput struct {
	GuildID string `path:"guildId" doc:"Guild to list tags for"`
}

// ListGuildTagsOutput wraps the tag list for Huma.
type ListGuildTagsOutput struct {
	Body struct {
		Tags []string `json:"tags" doc:"Distinct canonical tags"`
	}
}

// === Handlers ===

func (s *Server) handleAddMedia(ctx context.Context, input *AddMediaInput) (*MediaOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	rec, err := s.services.Recall.AddMedia(ctx, service.AddMediaRequest{
		GuildID:      input.GuildID,
		OwnerUserID:  input.Body.OwnerUserID,
		MediaURL:     input.Body.MediaURL,
		MediaType:    domain.MediaType(input.Body.MediaType),
		TagText:      input.Body.Tags,
		FileName:     input.Body.FileName,
		ThumbnailURL: input.Body.ThumbnailURL,
	})
	if err != nil {
		return nil, err
	}

	return &MediaOutput{Body: toMediaResponse(rec)}, nil
}

func (s *Server) handleListGuildTags(ctx context.Context, input *ListGuildTagsInput) (*ListGuildTagsOutput, error) {
	tags, err := s.store.GuildTags(ctx, input.GuildID)
	if err != nil {
		return nil, err
	}

	out := &ListGuildTagsOutput{}
	out.Body.Tags = tags
	return out, nil
}

func toMediaResponse(rec *domain.MediaRecord) MediaResponse {
	return MediaResponse{
		ID:           rec.ID,
		GuildID:      rec.GuildID,
		OwnerUserID:  rec.OwnerUserID,
		MediaURL:     rec.MediaURL,
		MediaType:    string(rec.MediaType),
		Tags:         rec.Tags,
		FileName:     rec.FileName,
		ThumbnailURL: rec.ThumbnailURL,
		RecallCount:  rec.RecallCount,
		CreatedAt:    rec.CreatedAt,
	}
}
