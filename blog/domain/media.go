package domain

import "context"

// Media represents a file uploaded through the editor (images, audio) that
// posts reference from their markdown.
type Media struct {
	Name string
	URL  string
}

type MediaRepository interface {
	// Save writes the uploaded bytes under a sanitized, timestamped name and
	// returns the stored media with its public URL.
	Save(ctx context.Context, fileName string, data []byte) (*Media, error)
}
