package main

import (
	"reflect"
	"testing"
)

func TestAdobeClassifier(t *testing.T) {
	tests := []struct {
		name        string
		keywords    []string
		expectedID  string
		wantMatched bool
	}{
		{"animal matches Animals", []string{"animal"}, "1", true},
		{"empty defaults", nil, "1", false},
		{"no match defaults", []string{"zzz", "qqq"}, "1", false},
		{"flower", []string{"flower"}, "14", true},
		{"first keyword wins", []string{"travel", "food"}, "21", true},
		{"later keyword used when earlier misses", []string{"zzz", "business"}, "3", true},
		{"case insensitive", []string{"PEOPLE"}, "13", true},
		{"category contains keyword, not the reverse", []string{"animals2go"}, "1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, matched := AdobeClassifier{}.Classify(tt.keywords)
			if id != tt.expectedID || matched != tt.wantMatched {
				t.Errorf("Classify(%v) = (%q, %v), want (%q, %v)", tt.keywords, id, matched, tt.expectedID, tt.wantMatched)
			}
		})
	}
}

func TestShutterstockClassifier(t *testing.T) {
	tests := []struct {
		name        string
		keywords    []string
		expected    []string
		wantMatched bool
	}{
		{"empty defaults", nil, []string{"Nature", "People"}, false},
		{"keyword contains label", []string{"peoples"}, []string{"People"}, true},
		{"label longer than keyword does not match", []string{"animal"}, []string{"Nature", "People"}, false},
		{"at most two labels", []string{"nature", "people", "travel"}, []string{"Nature", "People"}, true},
		{"distinct labels", []string{"vintage", "vintages", "abstract"}, []string{"Vintage", "Abstract"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			labels, matched := ShutterstockClassifier{}.Classify(tt.keywords)
			if !reflect.DeepEqual(labels, tt.expected) || matched != tt.wantMatched {
				t.Errorf("Classify(%v) = (%v, %v), want (%v, %v)", tt.keywords, labels, matched, tt.expected, tt.wantMatched)
			}
		})
	}
}

func TestShutterstockDefaultIsACopy(t *testing.T) {
	labels, _ := ShutterstockClassifier{}.Classify(nil)
	labels[0] = "Changed"
	if DefaultShutterstockCategories[0] != "Nature" {
		t.Error("Classify() returned the shared default slice")
	}
}

func TestClassifyColumn(t *testing.T) {
	adobe := Classify(SiteAdobeStock, []string{"food"})
	if adobe.Column() != "7" || !adobe.Matched {
		t.Errorf("Adobe Column() = %q matched=%v, want \"7\" true", adobe.Column(), adobe.Matched)
	}

	ss := Classify(SiteShutterstock, nil)
	if ss.Column() != "Nature, People" || ss.Matched {
		t.Errorf("Shutterstock Column() = %q matched=%v, want \"Nature, People\" false", ss.Column(), ss.Matched)
	}
}
