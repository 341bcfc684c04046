package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/memoriaapp/memoria-server/internal/domain"
	"github.com/memoriaapp/memoria-server/internal/service"
)

func (s *Server) registerCarouselRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "startSearch",
		Method:      http.MethodPost,
		Path:        "/api/v1/guilds/{guildId}/search",
		Summary:     "Start a search carousel",
		Description: "Runs a ranked tag search and opens a recall or delete carousel at the best match",
		Tags:        []string{"Carousel"},
	}, s.handleStartSearch)

	huma.Register(s.api, huma.Operation{
		OperationID: "startTopCarousel",
		Method:      http.MethodPost,
		Path:        "/api/v1/guilds/{guildId}/top",
		Summary:     "Start a top carousel",
		Description: "Opens a popularity carousel shared by every viewer of the presenting message",
		Tags:        []string{"Carousel"},
	}, s.handleStartTop)

	huma.Register(s.api, huma.Operation{
		OperationID: "carouselAction",
		Method:      http.MethodPost,
		Path:        "/api/v1/carousel/actions",
		Summary:     "Perform a carousel action",
		Description: "Applies one navigation step or mutation to a live carousel session",
		Tags:        []string{"Carousel"},
	}, s.handleCarouselAction)
}

// === DTOs ===

// StartSearchRequest is the request body for opening a search carousel.
type StartSearchRequest struct {
	UserID    string `json:"user_id" validate:"required" doc:"Acting platform user"`
	Mode      string `json:"mode" validate:"required,oneof=recall delete" doc:"Carousel flow to open"`
	Tags      string `json:"tags" validate:"required,tagtext" doc:"Raw tag text, normalized server-side"`
	MediaType string `json:"media_type,omitempty" validate:"omitempty,oneof=image gif video" doc:"Optional media type filter"`
}

// StartSearchInput wraps the search request for Huma.
type StartSearchInput struct {
	GuildID string `path:"guildId" doc:"Guild to search"`
	Body    StartSearchRequest
}

// CarouselViewResponse is one render-ready carousel frame.
type CarouselViewResponse struct {
	State      string          `json:"state" doc:"View state: active, exhausted, or sent"`
	SessionKey string          `json:"session_key" doc:"Session the view belongs to"`
	Mode       string          `json:"mode" doc:"Carousel flow"`
	Item       *MediaResponse  `json:"item,omitempty" doc:"Item to render"`
	Index      int             `json:"index" doc:"Zero-based position"`
	Total      int             `json:"total" doc:"Items remaining in the session"`
	Diff       *domain.TagDiff `json:"diff,omitempty" doc:"Tag changes from an edit"`
	Deleted    *MediaResponse  `json:"deleted,omitempty" doc:"Record removed by a delete"`
	SentAsLink bool            `json:"sent_as_link,omitempty" doc:"Oversize fallback was used"`
}

// StartSearchResponse is either an opened carousel or suggestions.
type StartSearchResponse struct {
	View        *CarouselViewResponse `json:"view,omitempty" doc:"Opened carousel, absent on zero results"`
	Suggestions []string              `json:"suggestions,omitempty" doc:"Near-miss tags for zero-result searches"`
}

// StartSearchOutput wraps the search response for Huma.
type StartSearchOutput struct {
	Body StartSearchResponse
}

// StartTopRequest is the request body for opening a top carousel.
type StartTopRequest struct {
	MessageID string `json:"message_id" validate:"required" doc:"Presenting message the session is keyed to"`
	MediaType string `json:"media_type,omitempty" validate:"omitempty,oneof=image gif video" doc:"Optional media type filter"`
}

// StartTopInput wraps the top carousel request for Huma.
type StartTopInput struct {
	GuildID string `path:"guildId" doc:"Guild to rank"`
	Body    StartTopRequest
}

// CarouselViewOutput wraps a single view for Huma.
type CarouselViewOutput struct {
	Body CarouselViewResponse
}

// ActionTokenRequest is the decoded control token.
type ActionTokenRequest struct {
	Mode   string `json:"mode" validate:"required,oneof=recall delete top" doc:"Carousel flow"`
	Action string `json:"action" validate:"required,oneof=prev next send confirmDelete edit" doc:"Interaction"`
	ItemID string `json:"item_id" validate:"required" doc:"Item the control was rendered for"`
}

// CarouselActionRequest is the request body for one carousel action.
type CarouselActionRequest struct {
	Token       ActionTokenRequest `json:"token" doc:"Decoded control token"`
	UserID      string             `json:"user_id" validate:"required" doc:"Acting platform user"`
	Privileged  bool               `json:"privileged,omitempty" doc:"Actor holds a moderation role"`
	MessageID   string             `json:"message_id,omitempty" doc:"Presenting message, required for top carousels"`
	EditText    string             `json:"edit_text,omitempty" doc:"Raw tag text for edit actions"`
	Destination string             `json:"destination,omitempty" doc:"Delivery descriptor for send actions"`
}

// CarouselActionInput wraps the action request for Huma.
type CarouselActionInput struct {
	Body CarouselActionRequest
}

// === Handlers ===

func (s *Server) handleStartSearch(ctx context.Context, input *StartSearchInput) (*StartSearchOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}
	if !s.actionLimiter.Allow(input.Body.UserID) {
		return nil, huma.Error429TooManyRequests("too many searches, slow down")
	}

	res, err := s.services.Recall.StartSearch(ctx, service.StartSearchRequest{
		GuildID:   input.GuildID,
		UserID:    input.Body.UserID,
		Mode:      domain.SessionMode(input.Body.Mode),
		TagText:   input.Body.Tags,
		MediaType: domain.MediaType(input.Body.MediaType),
	})
	if err != nil {
		return nil, err
	}

	out := &StartSearchOutput{}
	out.Body.Suggestions = res.Suggestions
	if res.View != nil {
		view := toViewResponse(res.View)
		out.Body.View = &view
	}
	return out, nil
}

func (s *Server) handleStartTop(ctx context.Context, input *StartTopInput) (*CarouselViewOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	view, err := s.services.Recall.TopCarousel(ctx, input.GuildID, input.Body.MessageID, domain.MediaType(input.Body.MediaType))
	if err != nil {
		return nil, err
	}

	return &CarouselViewOutput{Body: toViewResponse(view)}, nil
}

func (s *Server) handleCarouselAction(ctx context.Context, input *CarouselActionInput) (*CarouselViewOutput, error) {
	if err := s.validator.Validate(input.Body.Token); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}
	if !s.actionLimiter.Allow(input.Body.UserID) {
		return nil, huma.Error429TooManyRequests("too many actions, slow down")
	}

	view, err := s.services.Carousel.HandleAction(ctx, service.ActionRequest{
		Token: domain.ActionToken{
			Mode:   domain.SessionMode(input.Body.Token.Mode),
			Action: domain.Action(input.Body.Token.Action),
			ItemID: input.Body.Token.ItemID,
		},
		Actor: domain.Actor{
			UserID:     input.Body.UserID,
			Privileged: input.Body.Privileged,
		},
		MessageID:   input.Body.MessageID,
		EditText:    input.Body.EditText,
		Destination: input.Body.Destination,
	})
	if err != nil {
		return nil, err
	}

	return &CarouselViewOutput{Body: toViewResponse(view)}, nil
}

func toViewResponse(view *domain.CarouselView) CarouselViewResponse {
	resp := CarouselViewResponse{
		State:      string(view.State),
		SessionKey: view.SessionKey,
		Mode:       string(view.Mode),
		Index:      view.Index,
		Total:      view.Total,
		Diff:       view.Diff,
		SentAsLink: view.SentAsLink,
	}
	if view.Item != nil {
		item := toMediaResponse(view.Item)
		resp.Item = &item
	}
	if view.Deleted != nil {
		deleted := toMediaResponse(view.Deleted)
		resp.Deleted = &deleted
	}
	return resp
}
