package archive

import (
	_ "embed"
	"fmt"

	"github.com/pelletier/go-toml/v2"
)

//go:embed categories.toml
var categoriesTOML []byte

// Category is one AO3 relationship category.
type Category struct {
	Name  string `toml:"name"`
	ID    string `toml:"id"`
	Label string `toml:"label"`
}

type categoryFile struct {
	Categories []Category `toml:"category"`
}

// Categories maps category names to AO3 ids, in display order.
type Categories struct {
	list []Category
	byID map[string]string
}

// LoadCategories parses the embedded category table.
func LoadCategories() (*Categories, error) {
	var f categoryFile
	if err := toml.Unmarshal(categoriesTOML, &f); err != nil {
		return nil, fmt.Errorf("parsing categories.toml: %w", err)
	}
	c := &Categories{list: f.Categories, byID: make(map[string]string, len(f.Categories))}
	for _, cat := range f.Categories {
		c.byID[cat.Name] = cat.ID
	}
	return c, nil
}

// MustCategories is LoadCategories for the embedded table, which is known good.
func MustCategories() *Categories {
	c, err := LoadCategories()
	if err != nil {
		panic(err)
	}
	return c
}

// All returns the categories in display order.
func (c *Categories) All() []Category {
	out := make([]Category, len(c.list))
	copy(out, c.list)
	return out
}

// IDs maps names to AO3 ids, dropping names it does not know.
func (c *Categories) IDs(names []string) []string {
	var ids []string
	for _, n := range names {
		if id, ok := c.byID[n]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}
