// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"
)

var tableNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

func LoadRegistry(path string) (*CategoryRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg CategoryRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	reg.normalize()
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return &reg, nil
}

// Save writes the registry back to path, stamping LastUpdated.
func (r *CategoryRegistry) Save(path string) error {
	r.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks IDs and tables are set and unique, table names are safe
// SQL identifiers, and no keyword belongs to two categories.
func (r *CategoryRegistry) Validate() error {
	if len(r.Categories) == 0 {
		return fmt.Errorf("registry has no categories")
	}
	ids := make(map[string]bool)
	owner := make(map[string]string)
	for _, c := range r.Categories {
		if c.ID == "" || c.Table == "" {
			return fmt.Errorf("category id and table are required")
		}
		if ids[c.ID] {
			return fmt.Errorf("duplicate category %q", c.ID)
		}
		ids[c.ID] = true
		if !tableNamePattern.MatchString(c.Table) {
			return fmt.Errorf("category %q: invalid table name %q", c.ID, c.Table)
		}
		if len(c.Keywords) == 0 {
			return fmt.Errorf("category %q has no keywords", c.ID)
		}
		for _, kw := range c.Keywords {
			if prev, ok := owner[kw]; ok && prev != c.ID {
				return fmt.Errorf("keyword %q is in both %q and %q", kw, prev, c.ID)
			}
			owner[kw] = c.ID
		}
	}
	return nil
}

// Find returns the category with the given id.
func (r *CategoryRegistry) Find(id string) (*Category, bool) {
	for i := range r.Categories {
		if r.Categories[i].ID == id {
			return &r.Categories[i], true
		}
	}
	return nil, false
}

// AddKeyword appends a keyword to a category, lower-cased.
func (r *CategoryRegistry) AddKeyword(categoryID, keyword string) error {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return fmt.Errorf("keyword is empty")
	}
	c, ok := r.Find(categoryID)
	if !ok {
		return fmt.Errorf("unknown category %q", categoryID)
	}
	for _, other := range r.Categories {
		for _, kw := range other.Keywords {
			if kw != keyword {
				continue
			}
			if other.ID == categoryID {
				return nil
			}
			return fmt.Errorf("keyword %q already belongs to %q", keyword, other.ID)
		}
	}
	c.Keywords = append(c.Keywords, keyword)
	return nil
}

func (r *CategoryRegistry) normalize() {
	for i := range r.Categories {
		for j, kw := range r.Categories[i].Keywords {
			r.Categories[i].Keywords[j] = strings.ToLower(strings.TrimSpace(kw))
		}
	}
}

// DefaultRegistry is the built-in keyword table used when no file is configured.
func DefaultRegistry() *CategoryRegistry {
	return &CategoryRegistry{
		Version: "1.0.0",
		Categories: []Category{
			{
				ID:          "reputation",
				Table:       "mentions",
				DisplayName: "السمعة والذكور",
				Keywords: []string{
					"mentions", "mention", "سمعة", "السمعة", "ذكر", "الذكر", "آراء", "تعليقات",
					"مراجعات", "وش يقولون", "الناس تقول", "حديث الناس", "البراند", "براند",
					"سمعة العلامة", "مشاعر", "sentiment",
				},
			},
			{
				ID:          "social_content",
				Table:       "posts",
				DisplayName: "منشورات السوشيال",
				Keywords: []string{
					"posts", "post", "بوست", "بوستات", "منشور", "منشورات", "سوشيال",
					"سوشيال ميديا", "تغريدات", "تويتر", "اكس", "انستقرام", "تيك توك",
					"يوتيوب", "reach", "engagement",
				},
			},
			{
				ID:          "search_visibility",
				Table:       "seo",
				DisplayName: "إشارات SEO",
				Keywords: []string{
					"seo", "سيو", "تحسين محركات", "تحسين محركات البحث", "بحث", "نتائج البحث",
					"ترتيب", "الترتيب", "كلمات", "كلمات مفتاحية", "باكلينك", "باك لينك",
					"جوجل", "google",
				},
			},
		},
	}
}
