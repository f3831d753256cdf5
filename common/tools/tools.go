package tools

// Package tools holds the static generation-tool catalog. It is immutable at
// runtime; credit costs here are the prices charged per generation, and the
// server-side ledger is the authority on whether a user can afford them.

const (
	CategoryVideo = "video"
	CategoryImage = "image"
	CategoryAudio = "audio"
)

type Tool struct {
	Id            string `json:"id"`
	Name          string `json:"name"`
	Category      string `json:"category"`
	CreditCost    int    `json:"credit_cost"`
	Enabled       bool   `json:"enabled"`
	RequiresImage bool   `json:"requires_image"`
	ProviderModel string `json:"provider_model"`
}

var Catalog = []Tool{
	// text-to-video
	{Id: "pika", Name: "Pika Labs", Category: CategoryVideo, CreditCost: 52, Enabled: true, ProviderModel: "fal-ai/pika/v2.2/text-to-video"},
	{Id: "seedance", Name: "Seedance", Category: CategoryVideo, CreditCost: 39, Enabled: true, ProviderModel: "fal-ai/bytedance/seedance/v1/pro/fast/text-to-video"},
	{Id: "wan", Name: "Wan", Category: CategoryVideo, CreditCost: 24, Enabled: true, ProviderModel: "wan/v2.6/text-to-video"},
	{Id: "luma", Name: "Luma AI", Category: CategoryVideo, CreditCost: 32, Enabled: true, ProviderModel: "fal-ai/luma-photon/text-to-video"},
	{Id: "kling", Name: "Kling AI", Category: CategoryVideo, CreditCost: 55, Enabled: true, ProviderModel: "fal-ai/kling-video/v2.5-turbo/pro/text-to-video"},
	{Id: "veo", Name: "Veo", Category: CategoryVideo, CreditCost: 238, Enabled: true, ProviderModel: "fal-ai/veo3"},
	{Id: "sora", Name: "Sora", Category: CategoryVideo, CreditCost: 79, Enabled: true, ProviderModel: "fal-ai/sora-2/text-to-video"},
	// image-to-video
	{Id: "sora-i2v", Name: "Sora", Category: CategoryVideo, CreditCost: 79, Enabled: true, RequiresImage: true, ProviderModel: "fal-ai/sora-2/image-to-video"},
	{Id: "veo-i2v", Name: "Veo", Category: CategoryVideo, CreditCost: 238, Enabled: true, RequiresImage: true, ProviderModel: "fal-ai/veo3/image-to-video"},
	{Id: "kling-i2v", Name: "Kling AI", Category: CategoryVideo, CreditCost: 55, Enabled: true, RequiresImage: true, ProviderModel: "fal-ai/kling-video/v2.5-turbo/pro/image-to-video"},
	{Id: "luma-i2v", Name: "Luma Photon", Category: CategoryVideo, CreditCost: 32, Enabled: true, RequiresImage: true, ProviderModel: "fal-ai/luma-dream-machine/ray-2-flash/image-to-video"},
	{Id: "seedance-i2v", Name: "Seedance", Category: CategoryVideo, CreditCost: 98, Enabled: true, RequiresImage: true, ProviderModel: "fal-ai/bytedance/seedance/v1/pro/image-to-video"},
	{Id: "pika-i2v", Name: "Pika Labs", Category: CategoryVideo, CreditCost: 71, Enabled: true, RequiresImage: true, ProviderModel: "fal-ai/pika/v2.2/image-to-video"},
	// image generation
	{Id: "gpt-image", Name: "GPT Image", Category: CategoryImage, CreditCost: 16, Enabled: true, ProviderModel: "fal-ai/gpt-image-1.5"},
	{Id: "nano-banana", Name: "Nano Banana", Category: CategoryImage, CreditCost: 47, Enabled: true, ProviderModel: "fal-ai/nano-banana-pro"},
	{Id: "seedream", Name: "Seedream", Category: CategoryImage, CreditCost: 6, Enabled: true, ProviderModel: "fal-ai/bytedance/seedream/v4.5"},
	{Id: "flux", Name: "Flux", Category: CategoryImage, CreditCost: 6, Enabled: true, ProviderModel: "fal-ai/flux-2-pro"},
	{Id: "z-image", Name: "Z-Image", Category: CategoryImage, CreditCost: 2, Enabled: true, ProviderModel: "fal-ai/z-image/turbo"},
	{Id: "qwen", Name: "Qwen", Category: CategoryImage, CreditCost: 6, Enabled: true, ProviderModel: "fal-ai/qwen-image-2512"},
	{Id: "gpt-image-edit", Name: "GPT Image Edit", Category: CategoryImage, CreditCost: 16, Enabled: true, RequiresImage: true, ProviderModel: "fal-ai/gpt-image-1.5/edit"},
	{Id: "nano-banana-edit", Name: "Nano Banana Edit", Category: CategoryImage, CreditCost: 47, Enabled: true, RequiresImage: true, ProviderModel: "fal-ai/nano-banana-pro/edit"},
}

var byId = func() map[string]*Tool {
	m := make(map[string]*Tool, len(Catalog))
	for i := range Catalog {
		m[Catalog[i].Id] = &Catalog[i]
	}
	return m
}()

// GetById returns the catalog entry for id, or nil when unknown.
func GetById(id string) *Tool {
	return byId[id]
}

// ListByCategory returns the enabled tools of one category.
func ListByCategory(category string) []Tool {
	var out []Tool
	for _, t := range Catalog {
		if t.Enabled && t.Category == category {
			out = append(out, t)
		}
	}
	return out
}
