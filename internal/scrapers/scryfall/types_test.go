package scryfall

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestImageURLFallsBackToFirstFace(t *testing.T) {
	card := Card{
		Name: "Delver of Secrets // Insectile Aberration",
		CardFaces: []CardFace{
			{Name: "Delver of Secrets", ImageURIs: &ImageURIs{Normal: "https://cards.test/front.jpg", PNG: "https://cards.test/front.png"}},
			{Name: "Insectile Aberration", ImageURIs: &ImageURIs{Normal: "https://cards.test/back.jpg"}},
		},
	}
	require.Equal(t, "https://cards.test/front.jpg", card.ImageURL(ImageNormal))
	require.Equal(t, "https://cards.test/front.png", card.ImageURL(ImagePNG))
	require.Empty(t, Card{Name: "No Art"}.ImageURL(ImageNormal))
}

func TestParseImageSize(t *testing.T) {
	cases := []struct {
		text     string
		expected ImageSize
		ok       bool
	}{
		{text: "", expected: ImageNormal, ok: true},
		{text: "Large", expected: ImageLarge, ok: true},
		{text: " art_crop ", expected: ImageArtCrop, ok: true},
		{text: "border_crop", expected: ImageBorderCrop, ok: true},
		{text: "huge", ok: false},
	}
	for _, tc := range cases {
		size, err := ParseImageSize(tc.text)
		if !tc.ok {
			require.Error(t, err, tc.text)
			continue
		}
		require.NoError(t, err, tc.text)
		require.Equal(t, tc.expected, size, tc.text)
	}
}
