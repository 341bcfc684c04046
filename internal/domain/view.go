package domain

// ViewState tells the presentation layer what kind of carousel frame to
// render after an action.
type ViewState string

// View states.
const (
	ViewActive    ViewState = "active"    // render Item at Index of Total
	ViewExhausted ViewState = "exhausted" // list emptied, session gone
	ViewSent      ViewState = "sent"      // send succeeded, session gone
)

// CarouselView is the render-ready state returned by the controller.
// It carries everything the presentation layer needs to redraw one
// carousel frame; it holds no live session references.
type CarouselView struct {
	State      ViewState    `json:"state"`
	SessionKey string       `json:"session_key"`
	Mode       SessionMode  `json:"mode"`
	Item       *MediaRecord `json:"item,omitempty"`
	Index      int          `json:"index"`
	Total      int          `json:"total"`
	Diff       *TagDiff     `json:"diff,omitempty"`         // set on successful edit
	Deleted    *MediaRecord `json:"deleted,omitempty"`      // set on successful delete
	SentAsLink bool         `json:"sent_as_link,omitempty"` // oversize fallback used
}
