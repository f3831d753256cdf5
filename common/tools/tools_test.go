package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetById(t *testing.T) {
	tool := GetById("kling")
	require.NotNil(t, tool)
	assert.Equal(t, "Kling AI", tool.Name)
	assert.Equal(t, CategoryVideo, tool.Category)
	assert.Equal(t, 55, tool.CreditCost)
	assert.False(t, tool.RequiresImage)

	assert.Nil(t, GetById("no-such-tool"))
}

func TestImageToVideoVariantsRequireImage(t *testing.T) {
	for _, id := range []string{"sora-i2v", "veo-i2v", "kling-i2v", "luma-i2v", "seedance-i2v", "pika-i2v"} {
		tool := GetById(id)
		require.NotNil(t, tool, id)
		assert.True(t, tool.RequiresImage, id)
		assert.Equal(t, CategoryVideo, tool.Category, id)
	}
}

func TestListByCategory(t *testing.T) {
	videos := ListByCategory(CategoryVideo)
	images := ListByCategory(CategoryImage)
	assert.NotEmpty(t, videos)
	assert.NotEmpty(t, images)
	assert.Len(t, Catalog, len(videos)+len(images))

	for _, tool := range images {
		assert.Equal(t, CategoryImage, tool.Category, tool.Id)
	}
}

func TestCatalogIsWellFormed(t *testing.T) {
	seen := map[string]bool{}
	for _, tool := range Catalog {
		assert.False(t, seen[tool.Id], "duplicate id %s", tool.Id)
		seen[tool.Id] = true
		assert.Greater(t, tool.CreditCost, 0, tool.Id)
		assert.NotEmpty(t, tool.ProviderModel, tool.Id)
	}
}
