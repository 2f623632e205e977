package ssrf

import (
	"fmt"

	"github.com/jacentio/ssrf/cell"
	"github.com/jacentio/ssrf/internal/index"
)

// SSReply is a reply to a spectrum supportability request.
type SSReply struct {
	Common

	Comments []*Comment `xml:"Comment"`
}

// EntityType returns "ssreply".
func (*SSReply) EntityType() string { return "ssreply" }

// EntityRef returns the type-qualified reference.
func (r *SSReply) EntityRef() string { return entityRef(r.EntityType(), r.Serial) }

// IsSet reports whether the common fields are present.
func (r *SSReply) IsSet() bool {
	return r.Common.IsSet()
}

// Comment is a numbered free-text comment.
type Comment struct {
	cell.Meta

	Idx  index.Index `xml:"idx,attr"`
	Text string      `xml:",chardata"`
}

// NewComment returns a comment holding text with a fresh index from a.
func NewComment(a *index.Allocator, text string) (*Comment, error) {
	idx, err := a.Next()
	if err != nil {
		return nil, fmt.Errorf("new comment: %w", err)
	}
	return &Comment{Idx: idx, Text: text}, nil
}

// Key returns the comment index.
func (c *Comment) Key() index.Index { return c.Idx }

// IsSet reports whether the index and text are present.
func (c *Comment) IsSet() bool {
	return c.Idx != 0 && c.Text != ""
}
