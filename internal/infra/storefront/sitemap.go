package storefront

import (
	"encoding/xml"
	"net/url"
	"strings"
)

type sitemapURLSet struct {
	URLs []struct {
		Loc string `xml:"loc"`
	} `xml:"url"`
}

func parseSitemap(data []byte) ([]string, error) {
	var set sitemapURLSet
	if err := xml.Unmarshal(data, &set); err != nil {
		return nil, err
	}
	locs := make([]string, 0, len(set.URLs))
	for _, entry := range set.URLs {
		if loc := strings.TrimSpace(entry.Loc); loc != "" {
			locs = append(locs, loc)
		}
	}
	return locs, nil
}

// HandleFromProductURL extracts the product handle from a product page
// URL of the form <base>/products/<handle>.
func HandleFromProductURL(raw string) (string, bool) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(parts) >= 2 && parts[0] == "products" && parts[1] != "" {
		return parts[1], true
	}
	return "", false
}
