package main

import (
	"strconv"
	"strings"
)

// AdobeCategory is one entry of the Adobe Stock category vocabulary
type AdobeCategory struct {
	Name string
	ID   int
}

// AdobeStockCategories in declaration order; order decides ties
var AdobeStockCategories = []AdobeCategory{
	{"Animals", 1}, {"Buildings and Architecture", 2}, {"Business", 3}, {"Drinks", 4},
	{"The Environment", 5}, {"States of Mind", 6}, {"Food", 7}, {"Graphic Resources", 8},
	{"Hobbies and Leisure", 9}, {"Industry", 10}, {"Landscape", 11}, {"Lifestyle", 12},
	{"People", 13}, {"Plants and Flowers", 14}, {"Culture and Religion", 15},
	{"Science", 16}, {"Social Issues", 17}, {"Sports", 18}, {"Technology", 19},
	{"Transport", 20}, {"Travel", 21},
}

// ShutterstockCategories in declaration order
var ShutterstockCategories = []string{
	"Abstract", "Animals/Wildlife", "Architecture", "Arts and Entertainment",
	"Business/Finance", "Education", "Fashion", "Food/Drink", "Health/Medical",
	"Holidays/Celebrations", "Industry/Crafts", "Nature", "People", "Religion",
	"Science/Technology", "Sports/Recreation", "Transportation", "Travel/Destinations",
	"Vintage", "Vectors/Illustrations",
}

const (
	DefaultAdobeCategory      = "1"
	maxShutterstockCategories = 2
)

// DefaultShutterstockCategories is used when no keyword matches
var DefaultShutterstockCategories = []string{"Nature", "People"}

// AdobeClassifier matches when a category name contains the keyword.
// "animal" -> Animals, "flower" -> Plants and Flowers.
type AdobeClassifier struct{}

// Classify returns the category id and whether it came from a match or the default
func (AdobeClassifier) Classify(keywords []string) (string, bool) {
	for _, kw := range keywords {
		kw = strings.ToLower(kw)
		for _, cat := range AdobeStockCategories {
			if strings.Contains(strings.ToLower(cat.Name), kw) {
				return strconv.Itoa(cat.ID), true
			}
		}
	}
	return DefaultAdobeCategory, false
}

// ShutterstockClassifier matches in the opposite direction to AdobeClassifier:
// the keyword must contain the category name ("peoples" -> People, but "animal"
// matches nothing because no label is a substring of it).
type ShutterstockClassifier struct{}

// Classify returns up to two distinct labels and whether any matched
func (ShutterstockClassifier) Classify(keywords []string) ([]string, bool) {
	var selected []string
	for _, kw := range keywords {
		kw = strings.ToLower(kw)
		for _, cat := range ShutterstockCategories {
			if strings.Contains(kw, strings.ToLower(cat)) && !containsString(selected, cat) {
				selected = append(selected, cat)
			}
			if len(selected) == maxShutterstockCategories {
				return selected, true
			}
		}
	}
	if len(selected) == 0 {
		return append([]string(nil), DefaultShutterstockCategories...), false
	}
	return selected, true
}

// CategoryAssignment is the site-specific classification of one image
type CategoryAssignment struct {
	AdobeID      string
	Shutterstock []string
	Matched      bool
}

// Column renders the assignment for the manifest
func (c CategoryAssignment) Column() string {
	if c.AdobeID != "" {
		return c.AdobeID
	}
	return strings.Join(c.Shutterstock, ", ")
}

// Classify dispatches to the strategy for the site
func Classify(site StockSite, keywords []string) CategoryAssignment {
	if site == SiteAdobeStock {
		id, ok := AdobeClassifier{}.Classify(keywords)
		return CategoryAssignment{AdobeID: id, Matched: ok}
	}
	labels, ok := ShutterstockClassifier{}.Classify(keywords)
	return CategoryAssignment{Shutterstock: labels, Matched: ok}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
