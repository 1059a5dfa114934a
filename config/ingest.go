package config

import "strings"

// IngestConfig describes the dataset the service can seed the record store from.
type IngestConfig struct {
	// SourcePath is a local file path or an http(s) URL of a CSV or JSON dataset.
	SourcePath string `env:"INGEST_SOURCE_PATH"`

	// RecordsPath is a JMESPath expression selecting the record array inside a JSON document.
	// Ignored for CSV sources.
	RecordsPath string `env:"INGEST_RECORDS_PATH"`

	// LoadOnStart seeds the record store from SourcePath when the HTTP role starts
	// and the store is empty.
	LoadOnStart bool `env:"INGEST_LOAD_ON_START" envDefault:"false"`
}

// Sanitize trims values and disables seeding when no source is configured.
func (c *IngestConfig) Sanitize() {
	c.SourcePath = strings.TrimSpace(c.SourcePath)
	c.RecordsPath = strings.TrimSpace(c.RecordsPath)
	if c.SourcePath == "" {
		c.LoadOnStart = false
	}
}
