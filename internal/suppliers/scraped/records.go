package scraped

import (
	"encoding/json"
	"strconv"
	"strings"
)

// flexString tolerates feeds that serve ids and prices as either numbers
// or strings.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// CategoryNode is one node of the scraped category tree. The feed nests
// level 2 under "sub_categories" and level 3 under "subsubcat".
type CategoryNode struct {
	ID     flexString     `json:"id"`
	Name   string         `json:"name"`
	Slug   string         `json:"slug"`
	Count  int            `json:"count"`
	Sub    []CategoryNode `json:"sub_categories"`
	SubSub []CategoryNode `json:"subsubcat"`
}

func (n *CategoryNode) RawID() string { return string(n.ID) }

// Children merges both nesting tag spellings; the feed is not consistent
// about which one a level uses.
func (n *CategoryNode) Children() []CategoryNode {
	if len(n.Sub) == 0 {
		return n.SubSub
	}
	if len(n.SubSub) == 0 {
		return n.Sub
	}
	children := make([]CategoryNode, 0, len(n.Sub)+len(n.SubSub))
	children = append(children, n.Sub...)
	children = append(children, n.SubSub...)
	return children
}

type CategoriesResponse struct {
	Categories []CategoryNode `json:"categories"`
}

// BrowseItem is one semi-structured row of a browse page. Flat tag names
// are fields; optional specification values arrive as "prop_<key>" tags
// and are collected into Props keyed without the prefix.
type BrowseItem struct {
	SKU          string
	Name         string
	Price        float64
	Manufacturer string
	Category1    string
	Category2    string
	Category3    string
	Status       string
	Images       []string
	Props        map[string]string
}

const propPrefix = "prop_"

func (it *BrowseItem) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	it.SKU = flexField(raw, "sku")
	it.Name = flexField(raw, "name")
	it.Manufacturer = flexField(raw, "manufacturer")
	it.Category1 = flexField(raw, "category_1")
	it.Category2 = flexField(raw, "category_2")
	it.Category3 = flexField(raw, "category_3")
	it.Status = flexField(raw, "status")

	if priceStr := flexField(raw, "price"); priceStr != "" {
		price, err := strconv.ParseFloat(strings.ReplaceAll(priceStr, ",", "."), 64)
		if err == nil {
			it.Price = price
		}
	}

	it.Images = parseGallery(raw["gallery"])
	if len(it.Images) == 0 {
		it.Images = parseGallery(raw["files"])
	}

	it.Props = map[string]string{}
	for key, value := range raw {
		if !strings.HasPrefix(key, propPrefix) {
			continue
		}
		var v flexString
		if err := json.Unmarshal(value, &v); err != nil {
			continue
		}
		if v != "" {
			it.Props[strings.TrimPrefix(key, propPrefix)] = string(v)
		}
	}
	return nil
}

func flexField(raw map[string]json.RawMessage, key string) string {
	value, ok := raw[key]
	if !ok {
		return ""
	}
	var v flexString
	if err := json.Unmarshal(value, &v); err != nil {
		return ""
	}
	return strings.TrimSpace(string(v))
}

// parseGallery accepts both a flat list of urls and a list of nested
// {"url": ...} objects.
func parseGallery(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var urls []string
	if err := json.Unmarshal(raw, &urls); err == nil {
		return urls
	}
	var nested []struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(raw, &nested); err == nil {
		for _, entry := range nested {
			if entry.URL != "" {
				urls = append(urls, entry.URL)
			}
		}
	}
	return urls
}

type BrowseResponse struct {
	Items []BrowseItem `json:"items"`
	Page  int          `json:"page"`
	Pages int          `json:"pages"`
}
