package scryfall

import (
	"fmt"
	"strings"
)

// Card is the subset of a Scryfall card object the service reads.
type Card struct {
	ID            string            `json:"id"`
	OracleID      string            `json:"oracle_id,omitempty"`
	Name          string            `json:"name"`
	Layout        string            `json:"layout,omitempty"`
	TypeLine      string            `json:"type_line"`
	OracleText    string            `json:"oracle_text,omitempty"`
	ManaCost      string            `json:"mana_cost,omitempty"`
	CMC           float64           `json:"cmc"`
	ColorIdentity []string          `json:"color_identity"`
	ImageURIs     *ImageURIs        `json:"image_uris,omitempty"`
	CardFaces     []CardFace        `json:"card_faces,omitempty"`
	Legalities    map[string]string `json:"legalities,omitempty"`
	ScryfallURI   string            `json:"scryfall_uri,omitempty"`
}

type CardFace struct {
	Name       string     `json:"name"`
	TypeLine   string     `json:"type_line,omitempty"`
	OracleText string     `json:"oracle_text,omitempty"`
	ImageURIs  *ImageURIs `json:"image_uris,omitempty"`
}

type ImageURIs struct {
	Small      string `json:"small,omitempty"`
	Normal     string `json:"normal,omitempty"`
	Large      string `json:"large,omitempty"`
	PNG        string `json:"png,omitempty"`
	ArtCrop    string `json:"art_crop,omitempty"`
	BorderCrop string `json:"border_crop,omitempty"`
}

type ImageSize string

const (
	ImageSmall      ImageSize = "small"
	ImageNormal     ImageSize = "normal"
	ImageLarge      ImageSize = "large"
	ImagePNG        ImageSize = "png"
	ImageArtCrop    ImageSize = "art_crop"
	ImageBorderCrop ImageSize = "border_crop"
)

var ImageSizes = []ImageSize{ImageSmall, ImageNormal, ImageLarge, ImagePNG, ImageArtCrop, ImageBorderCrop}

// ParseImageSize accepts any of ImageSizes, "" means ImageNormal.
func ParseImageSize(text string) (ImageSize, error) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return ImageNormal, nil
	}
	for _, size := range ImageSizes {
		if string(size) == text {
			return size, nil
		}
	}
	return "", fmt.Errorf("unsupported image size '%s'", text)
}

func (u *ImageURIs) Get(size ImageSize) string {
	if u == nil {
		return ""
	}
	switch size {
	case ImageSmall:
		return u.Small
	case ImageLarge:
		return u.Large
	case ImagePNG:
		return u.PNG
	case ImageArtCrop:
		return u.ArtCrop
	case ImageBorderCrop:
		return u.BorderCrop
	default:
		return u.Normal
	}
}

// ImageURL returns the image of the requested size, reading the first face
// for double faced cards that carry no root image_uris.
func (c Card) ImageURL(size ImageSize) string {
	if c.ImageURIs != nil {
		return c.ImageURIs.Get(size)
	}
	for _, face := range c.CardFaces {
		if face.ImageURIs != nil {
			return face.ImageURIs.Get(size)
		}
	}
	return ""
}

type searchPage struct {
	Data       []Card `json:"data"`
	HasMore    bool   `json:"has_more"`
	NextPage   string `json:"next_page,omitempty"`
	TotalCards int    `json:"total_cards"`
}

// apiError is the body Scryfall sends with non 2xx answers.
type apiError struct {
	Object   string   `json:"object"`
	Code     string   `json:"code"`
	Status   int      `json:"status"`
	Details  string   `json:"details"`
	Warnings []string `json:"warnings,omitempty"`
}
