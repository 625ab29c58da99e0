package unsplash

import "strings"

// topicSlugToID maps common topic slugs to their IDs. The /photos/random
// endpoint only accepts topic IDs; slugs not present here are passed
// through untouched on the assumption they already are IDs.
var topicSlugToID = map[string]string{
	"3d":                      "whIY33yKE84",
	"3d-renders":              "CDwuwXJAbEw",
	"animals":                 "Jpg6Kidl-Hk",
	"architecture-interior":   "M8jVbLbTRws",
	"experimental":            "qPYsDzvJOYc",
	"fashion-beauty":          "S4MKLAsBB74",
	"film":                    "hmenvQhUmxM",
	"flat":                    "pIF7l5_hgxg",
	"hand-drawn":              "tthdwfNPCcw",
	"icons":                   "FkTvWj0W5bo",
	"illustration-wallpapers": "If65AuNOOxQ",
	"line-art":                "rNbj3NBAY_w",
	"nature":                  "6sMVjTLSkeQ",
	"patterns":                "upmleWZC83Y",
	"people":                  "towJZFskpGg",
	"street-photography":      "xHxYTMHLgOc",
	"textures-patterns":       "iUIsnVtjB0Y",
	"travel":                  "Fzo3zuOHN6w",
	"wallpapers":              "bo8jQKTaE0Y",
}

// TopicSlugsToIDs converts a comma-separated list of topic slugs to topic
// IDs. Matching is case-insensitive; unrecognized entries pass through
// verbatim.
func TopicSlugsToIDs(topics string) string {
	parts := strings.Split(topics, ",")
	for i, part := range parts {
		slug := strings.TrimSpace(part)
		if id, ok := topicSlugToID[strings.ToLower(slug)]; ok {
			parts[i] = id
		} else {
			parts[i] = slug
		}
	}
	return strings.Join(parts, ",")
}
