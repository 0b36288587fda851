package seo

import (
	"strings"
	"time"
)

// Organization is the static publisher identity embedded in generated
// schema markup.
type Organization struct {
	Name    string `yaml:"name" json:"name"`
	URL     string `yaml:"url" json:"url"`
	LogoURL string `yaml:"logo_url" json:"logo_url"`
}

// SchemaPerson is a schema.org Person node.
type SchemaPerson struct {
	Type string `json:"@type"`
	Name string `json:"name"`
}

// SchemaOrganization is a schema.org Organization node.
type SchemaOrganization struct {
	Type string       `json:"@type"`
	Name string       `json:"name"`
	URL  string       `json:"url,omitempty"`
	Logo *SchemaImage `json:"logo,omitempty"`
}

// SchemaImage is a schema.org ImageObject node.
type SchemaImage struct {
	Type string `json:"@type"`
	URL  string `json:"url"`
}

// SchemaPage is a schema.org WebPage reference.
type SchemaPage struct {
	Type string `json:"@type"`
	ID   string `json:"@id"`
}

// ArticleSchema is the fixed-shape structured-metadata record assembled
// from the final pipeline output. It marshals directly to JSON-LD.
type ArticleSchema struct {
	Context          string             `json:"@context"`
	Type             string             `json:"@type"`
	Headline         string             `json:"headline"`
	Description      string             `json:"description,omitempty"`
	Author           SchemaPerson       `json:"author"`
	Publisher        SchemaOrganization `json:"publisher"`
	DatePublished    string             `json:"datePublished"`
	DateModified     string             `json:"dateModified"`
	MainEntityOfPage SchemaPage         `json:"mainEntityOfPage"`
	Keywords         string             `json:"keywords,omitempty"`
	WordCount        int                `json:"wordCount"`
}

// BuildArticleSchema assembles the metadata record from page content and
// the static organization identity. It makes no external calls.
func BuildArticleSchema(page Page, keywords []string, org Organization, canonicalURL string, now time.Time) ArticleSchema {
	stamp := now.UTC().Format(time.RFC3339)
	schema := ArticleSchema{
		Context:     "https://schema.org",
		Type:        "Article",
		Headline:    page.Title,
		Description: page.Description,
		Author: SchemaPerson{
			Type: "Person",
			Name: org.Name + " Editorial Council",
		},
		Publisher: SchemaOrganization{
			Type: "Organization",
			Name: org.Name,
			URL:  org.URL,
		},
		DatePublished:    stamp,
		DateModified:     stamp,
		MainEntityOfPage: SchemaPage{Type: "WebPage", ID: canonicalURL},
		Keywords:         strings.Join(keywords, ", "),
		WordCount:        WordCount(page.Content),
	}
	if org.LogoURL != "" {
		schema.Publisher.Logo = &SchemaImage{Type: "ImageObject", URL: org.LogoURL}
	}
	return schema
}
