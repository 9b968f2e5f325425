package platform

// Meta describes optional platform metadata used for UI.
type Meta struct {
	Name        string
	DisplayName string
	Emoji       string
}

const defaultEmoji = "🎵"

func buildMeta(p Platform) Meta {
	meta := Meta{}
	if provider, ok := p.(MetadataProvider); ok {
		meta = provider.Metadata()
	}
	if meta.Name == "" {
		meta.Name = p.Name()
	}
	if meta.DisplayName == "" {
		meta.DisplayName = meta.Name
	}
	if meta.Emoji == "" {
		meta.Emoji = defaultEmoji
	}
	return meta
}

// MetaOf returns the display metadata of p, filling defaults.
func MetaOf(p Platform) Meta {
	return buildMeta(p)
}
