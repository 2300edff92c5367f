package tagreport

import (
	"sort"
	"strings"
	"time"

	"github.com/lodthe/dockerhub-util/pkg/dockerhub"
)

// Record is one tag of the queried repository prepared for output.
type Record struct {
	Name          string    `json:"name"`
	Digest        string    `json:"digest,omitempty"`
	LastUpdated   time.Time `json:"last_updated"`
	Architectures []string  `json:"architectures,omitempty"`
}

// Build converts registry tags into report records, preserving the
// registry's ordering. If filter is not empty, only tags whose name
// contains the substring are kept.
func Build(tags []dockerhub.ImageTag, filter string) []Record {
	records := make([]Record, 0, len(tags))
	for _, t := range tags {
		if filter != "" && !strings.Contains(t.Name, filter) {
			continue
		}

		records = append(records, newRecord(t))
	}

	return records
}

func newRecord(tag dockerhub.ImageTag) Record {
	var digest string
	var archs []string

	seen := make(map[string]struct{}, len(tag.Images))
	for _, img := range tag.Images {
		if digest == "" {
			digest = img.Digest
		}
		if img.Architecture == "" {
			continue
		}

		_, exists := seen[img.Architecture]
		if exists {
			continue
		}

		seen[img.Architecture] = struct{}{}
		archs = append(archs, img.Architecture)
	}

	sort.Strings(archs)

	return Record{
		Name:          tag.Name,
		Digest:        digest,
		LastUpdated:   tag.LastUpdated,
		Architectures: archs,
	}
}
