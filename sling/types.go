package sling

import (
	"fmt"
	"time"

	"github.com/toothbrush/content-replicate/content"
)

const (
	PrimaryType  = "jcr:primaryType"
	JCRContent   = "jcr:content"
	LastModified = "jcr:lastModified"
	Created      = "jcr:created"
	Title        = "jcr:title"
)

var primaryTypes = map[string]content.Kind{
	"per:Page": content.Page,
	"cq:Page":  content.Page,

	"nt:file":   content.Asset,
	"per:Asset": content.Asset,
	"dam:Asset": content.Asset,

	"sling:Folder":        content.Folder,
	"sling:OrderedFolder": content.Folder,
	"nt:folder":           content.Folder,
}

func kindOf(primaryType string) (content.Kind, bool) {
	k, ok := primaryTypes[primaryType]
	return k, ok
}

// Dates come out of the JSON servlet in ECMAScript's Date.toString form, newer instances use
// ISO 8601.
var dateLayouts = []string{
	"Mon Jan 02 2006 15:04:05 GMT-0700",
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000-07:00",
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("sling: unrecognised date '%s'", s)
}
