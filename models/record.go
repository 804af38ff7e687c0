// Package models defines data structures for the scraper.
package models

import (
	"strings"
	"time"
)

// BusinessRecord represents one business listing extracted from the
// results page. All fields are best-effort: a missing field is an empty
// string, not an error.
type BusinessRecord struct {
	Name         string    `csv:"name" json:"name"`
	BusinessType string    `csv:"business_type" json:"business_type"`
	Address      string    `csv:"address" json:"address"`
	Phone        string    `csv:"phone" json:"phone"`
	Email        string    `csv:"email" json:"email"`
	Website      string    `csv:"website" json:"website"`
	Rating       string    `csv:"rating" json:"rating"`
	Status       string    `csv:"status" json:"status"`
	Hours        string    `csv:"hours" json:"hours"`
	Description  string    `csv:"description" json:"description"`
	Services     []string  `csv:"services" json:"services"`
	ScrapedAt    time.Time `csv:"scraped_at" json:"scraped_at"`
}

// Key returns the deduplication key for the record: the normalized
// (name, address) pair. Two records with equal keys describe the same
// business entity.
func (r *BusinessRecord) Key() string {
	return normalize(r.Name) + "|" + normalize(r.Address)
}

func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ScrapeResult holds the overall outcome of one scrape session.
type ScrapeResult struct {
	Records        []*BusinessRecord
	StartTime      time.Time
	EndTime        time.Time
	TotalCount     int
	ProcessedCards int
	DuplicateCount int
	InvalidCount   int
	ScrollCount    int
	Stopped        bool
	Reason         string
}
