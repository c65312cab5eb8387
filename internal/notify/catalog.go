// Package notify renders notification copy and hands notifications to the
// delivery transport.
package notify

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"

	"github.com/influencer-marketplace/backend/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var defaultTemplates []byte

type entry struct {
	Title   string `yaml:"title"`
	Message string `yaml:"message"`
}

type compiled struct {
	title   *template.Template
	message *template.Template
}

// Catalog maps a notification type to its title and message templates.
type Catalog struct {
	entries map[string]compiled
}

// RenderContext is what the templates see.
type RenderContext struct {
	Campaign   *models.Campaign
	Influencer *models.Influencer
	Meta       map[string]any
}

// DefaultCatalog returns the catalog compiled from the embedded templates.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultTemplates)
}

func ParseCatalog(data []byte) (*Catalog, error) {
	var raw map[string]entry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse notification catalog: %w", err)
	}
	c := &Catalog{entries: make(map[string]compiled, len(raw))}
	for typ, e := range raw {
		title, err := template.New(typ + ".title").Option("missingkey=zero").Parse(e.Title)
		if err != nil {
			return nil, fmt.Errorf("notification %s title: %w", typ, err)
		}
		msg, err := template.New(typ + ".message").Option("missingkey=zero").Parse(e.Message)
		if err != nil {
			return nil, fmt.Errorf("notification %s message: %w", typ, err)
		}
		c.entries[typ] = compiled{title: title, message: msg}
	}
	return c, nil
}

// Has reports whether the catalog carries copy for typ.
func (c *Catalog) Has(typ string) bool {
	_, ok := c.entries[typ]
	return ok
}

// Render fills n.Title and n.Message from the templates for n.Type.
func (c *Catalog) Render(n *models.Notification, campaign *models.Campaign, influencer *models.Influencer) error {
	e, ok := c.entries[n.Type]
	if !ok {
		return fmt.Errorf("no copy for notification type %q", n.Type)
	}
	if campaign == nil {
		campaign = &models.Campaign{}
	}
	if influencer == nil {
		influencer = &models.Influencer{}
	}
	rc := RenderContext{Campaign: campaign, Influencer: influencer, Meta: n.Metadata}

	var buf bytes.Buffer
	if err := e.title.Execute(&buf, rc); err != nil {
		return fmt.Errorf("render %s title: %w", n.Type, err)
	}
	n.Title = buf.String()
	buf.Reset()
	if err := e.message.Execute(&buf, rc); err != nil {
		return fmt.Errorf("render %s message: %w", n.Type, err)
	}
	n.Message = buf.String()
	return nil
}
