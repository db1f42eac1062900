package arena

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Block classes reported by the are.na API in the "class" field.
const (
	ClassLink       = "Link"
	ClassImage      = "Image"
	ClassText       = "Text"
	ClassMedia      = "Media"
	ClassAttachment = "Attachment"
	ClassChannel    = "Channel"
)

// Block is one item of channel content. The set of implementations is closed:
// LinkBlock, ImageBlock, TextBlock, MediaBlock, AttachmentBlock, ChannelBlock
// and UnknownBlock for any class this package does not know yet.
type Block interface {
	Base() BlockBase
	isBlock()
}

// BlockBase holds the fields every block class carries.
type BlockBase struct {
	ID          string
	Class       string
	Title       string
	Description string
	Content     string
	User        User
	CreatedAt   string
}

// User is the contributor who connected the block to the channel.
type User struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

// Source is the page a block was saved from.
type Source struct {
	URL string `json:"url"`
}

// Image holds the asset URLs of an image block.
type Image struct {
	OriginalURL string
	DisplayURL  string
}

type LinkBlock struct {
	BlockBase
	Source *Source
}

type ImageBlock struct {
	BlockBase
	Image  *Image
	Source *Source
}

type TextBlock struct {
	BlockBase
}

type MediaBlock struct {
	BlockBase
	Source *Source
}

type AttachmentBlock struct {
	BlockBase
	Source *Source
}

type ChannelBlock struct {
	BlockBase
	Source *Source
}

// UnknownBlock is the open fallback arm for classes added upstream later.
type UnknownBlock struct {
	BlockBase
	Source *Source
}

func (b BlockBase) Base() BlockBase { return b }

func (LinkBlock) isBlock()       {}
func (ImageBlock) isBlock()      {}
func (TextBlock) isBlock()       {}
func (MediaBlock) isBlock()      {}
func (AttachmentBlock) isBlock() {}
func (ChannelBlock) isBlock()    {}
func (UnknownBlock) isBlock()    {}

// wireBlock mirrors the JSON payload. Nested objects are kept raw so that a
// malformed source or image only affects the field, not the whole block.
type wireBlock struct {
	ID          blockID         `json:"id"`
	Class       string          `json:"class"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Content     string          `json:"content"`
	Source      json.RawMessage `json:"source"`
	Image       json.RawMessage `json:"image"`
	User        json.RawMessage `json:"user"`
	CreatedAt   string          `json:"created_at"`
}

// blockID accepts both numeric and string ids.
type blockID string

func (id *blockID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = blockID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("block id is neither a number nor a string: %w", err)
	}
	if i, err := n.Int64(); err == nil {
		*id = blockID(strconv.FormatInt(i, 10))
		return nil
	}
	*id = blockID(n.String())
	return nil
}

type wireImage struct {
	Original *Source `json:"original"`
	Display  *Source `json:"display"`
}

// DecodeBlock turns one raw JSON element into its block variant.
func DecodeBlock(raw json.RawMessage) (Block, error) {
	var w wireBlock
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("failed to decode block: %w", err)
	}

	base := BlockBase{
		ID:          string(w.ID),
		Class:       w.Class,
		Title:       w.Title,
		Description: w.Description,
		Content:     w.Content,
		User:        decodeUser(w.User),
		CreatedAt:   w.CreatedAt,
	}
	if base.ID == "" {
		return nil, fmt.Errorf("block has no id")
	}

	src := decodeSource(w.Source)

	switch w.Class {
	case ClassLink:
		return LinkBlock{BlockBase: base, Source: src}, nil
	case ClassImage:
		return ImageBlock{BlockBase: base, Image: decodeImage(w.Image), Source: src}, nil
	case ClassText:
		return TextBlock{BlockBase: base}, nil
	case ClassMedia:
		return MediaBlock{BlockBase: base, Source: src}, nil
	case ClassAttachment:
		return AttachmentBlock{BlockBase: base, Source: src}, nil
	case ClassChannel:
		return ChannelBlock{BlockBase: base, Source: src}, nil
	default:
		return UnknownBlock{BlockBase: base, Source: src}, nil
	}
}

// decodeSource returns nil unless raw is an object with a non-blank string
// url. The url comes back trimmed.
func decodeSource(raw json.RawMessage) *Source {
	if len(raw) == 0 {
		return nil
	}
	var s Source
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	if s.URL = strings.TrimSpace(s.URL); s.URL == "" {
		return nil
	}
	return &s
}

func decodeImage(raw json.RawMessage) *Image {
	if len(raw) == 0 {
		return nil
	}
	var w wireImage
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil
	}
	img := &Image{}
	if w.Original != nil {
		img.OriginalURL = w.Original.URL
	}
	if w.Display != nil {
		img.DisplayURL = w.Display.URL
	}
	return img
}

func decodeUser(raw json.RawMessage) User {
	var u User
	if len(raw) == 0 {
		return u
	}
	_ = json.Unmarshal(raw, &u) // a malformed user only loses the attribution
	return u
}
