package collection

import (
	"encoding/json"
	"fmt"
	"os"
)

// Collection is the root of an item tree together with its identity.
type Collection struct {
	ID   string
	Name string
	Root *Item
}

// collectionJSON is the Postman collection v2.x layout.
type collectionJSON struct {
	Info struct {
		PostmanID string `json:"_postman_id"`
		ID        string `json:"id"`
		Name      string `json:"name"`
	} `json:"info"`
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Items []*Item `json:"item"`
}

// New builds a linked collection from its top-level items.
func New(id, name string, items ...*Item) *Collection {
	root := &Item{ID: id, Name: name, Items: items}
	Link(root)

	return &Collection{ID: id, Name: name, Root: root}
}

// UnmarshalJSON decodes a Postman collection and links the tree.
func (c *Collection) UnmarshalJSON(data []byte) error {
	var raw collectionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	id := firstNonEmpty(raw.Info.PostmanID, raw.Info.ID, raw.ID)
	name := firstNonEmpty(raw.Info.Name, raw.Name)

	*c = *New(id, name, raw.Items...)

	return nil
}

// Find returns the descendant with the given id, or nil.
func (c *Collection) Find(id string) *Item {
	if c == nil {
		return nil
	}

	var found *Item

	c.Root.ForEachItem(func(item *Item) {
		if found == nil && item.ID == id {
			found = item
		}
	})

	return found
}

// Parse decodes a collection from JSON.
func Parse(data []byte) (*Collection, error) {
	var c Collection
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing collection: %w", err)
	}

	return &c, nil
}

// Load reads and decodes a collection file.
func Load(path string) (*Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading collection file: %w", err)
	}

	return Parse(data)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
