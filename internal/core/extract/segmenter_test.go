package extract

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSegmenter() *Segmenter {
	return NewSegmenter(nil, SegmenterConfig{})
}

func TestSegmentRobustAnchors(t *testing.T) {
	text := "**Ingredients:**\n* 2 cups flour\n* 1 cup sugar\n\n**Instructions:**\n* Mix the flour and sugar\n* Bake for 30 minutes"

	seg := newTestSegmenter().Segment(Normalize(text))

	assert.Equal(t, TierRobust, seg.Ingredients.Tier)
	assert.Equal(t, []string{"2 cups flour", "1 cup sugar"}, seg.Ingredients.Candidates)
	assert.Equal(t, TierRobust, seg.Instructions.Tier)
	assert.Equal(t, []string{"Mix the flour and sugar", "Bake for 30 minutes"}, seg.Instructions.Candidates)
}

func TestSegmentSingleLineBlock(t *testing.T) {
	text := "Ingredients: 2 cups flour - 1 cup sugar - 3 eggs Instructions: Mix everything and bake for 20 minutes"

	seg := newTestSegmenter().Ingredients(Normalize(text))

	assert.Equal(t, TierRobust, seg.Tier)
	assert.Equal(t, []string{"2 cups flour", "1 cup sugar", "3 eggs"}, seg.Candidates)
}

func TestSegmentImprovedKeywords(t *testing.T) {
	text := "Here is what you need for this\n2 cups flour\n1 cup sugar\nNow the steps\nMix the flour and sugar together well\nBake for 30 minutes in the oven"

	seg := newTestSegmenter().Segment(Normalize(text))

	assert.Equal(t, TierImproved, seg.Ingredients.Tier)
	assert.Equal(t, []string{"2 cups flour", "1 cup sugar"}, seg.Ingredients.Candidates)
	assert.Equal(t, TierImproved, seg.Instructions.Tier)
	assert.Equal(t, []string{"Mix the flour and sugar together well", "Bake for 30 minutes in the oven"}, seg.Instructions.Candidates)
}

func TestSegmentLenientFallback(t *testing.T) {
	text := "2 cups flour\n1 cup sugar\nMix everything and bake for 20 minutes."

	seg := newTestSegmenter().Segment(Normalize(text))

	assert.Equal(t, TierLenient, seg.Ingredients.Tier)
	assert.Contains(t, seg.Ingredients.Candidates, "2 cups flour")
	assert.Contains(t, seg.Ingredients.Candidates, "1 cup sugar")
	assert.Equal(t, TierLenient, seg.Instructions.Tier)
	assert.Equal(t, []string{"Mix everything and bake for 20 minutes."}, seg.Instructions.Candidates)
}

func TestSegmentEmpty(t *testing.T) {
	seg := newTestSegmenter().Segment(Normalize(""))
	assert.Equal(t, TierNone, seg.Ingredients.Tier)
	assert.True(t, seg.Ingredients.Empty())
	assert.Equal(t, TierNone, seg.Instructions.Tier)
	assert.True(t, seg.Instructions.Empty())
}

func TestSegmentCapsCandidates(t *testing.T) {
	var b strings.Builder
	b.WriteString("Ingredients:\n")
	for i := 1; i <= 40; i++ {
		fmt.Fprintf(&b, "%d cups flour\n", i)
	}

	seg := newTestSegmenter().Ingredients(Normalize(b.String()))
	require.Equal(t, TierRobust, seg.Tier)
	assert.Len(t, seg.Candidates, defaultMaxItems)

	small := NewSegmenter(nil, SegmenterConfig{MaxIngredients: 5})
	assert.Len(t, small.Ingredients(Normalize(b.String())).Candidates, 5)
}

func TestSegmentStopsAtTrailer(t *testing.T) {
	text := "Ingredients:\n1 egg\n2 cups milk\nInstructions:\n1. Whisk the egg into the milk.\n2. Pour into a hot pan and cook.\nNotes:\nThis keeps for two days in the fridge."

	seg := newTestSegmenter().Instructions(Normalize(text))

	assert.Equal(t, TierRobust, seg.Tier)
	assert.Equal(t, []string{"Whisk the egg into the milk.", "Pour into a hot pan and cook."}, seg.Candidates)
}

func TestCleanListItem(t *testing.T) {
	assert.Equal(t, "2 cups flour", cleanListItem("- 2 cups flour"))
	assert.Equal(t, "2 cups flour", cleanListItem("• 2 cups flour"))
	assert.Equal(t, "Mix well", cleanListItem("3. Mix well"))
	assert.Equal(t, "1.5 cups milk", cleanListItem("1.5 cups milk"))
	assert.Equal(t, "**bold**", cleanListItem("**bold**"))
}
