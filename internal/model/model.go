// Package model defines the domain types used across the application.
package model

import (
	"fmt"
	"time"
)

// AllCategories is the category value that disables category filtering.
const AllCategories = "All"

// Item represents a single catalog entry. Items are never mutated after the
// catalog is loaded.
type Item struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Category      string   `json:"category"`
	Price         string   `json:"price"`
	OriginalPrice string   `json:"originalPrice"`
	Rating        float64  `json:"rating"`
	Downloads     string   `json:"downloads"`
	Features      []string `json:"features,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	Difficulty    string   `json:"difficulty"`
}

// ContactMethod selects which contact field the capture form requires.
type ContactMethod string

// Supported contact methods.
const (
	ByName  ContactMethod = "name"
	ByPhone ContactMethod = "phone"
)

// Label returns the user-facing name of the field behind the method.
func (m ContactMethod) Label() string {
	if m == ByPhone {
		return "phone number"
	}
	return "name"
}

// ParseContactMethod converts user input into a ContactMethod.
func ParseContactMethod(s string) (ContactMethod, error) {
	switch s {
	case string(ByName):
		return ByName, nil
	case string(ByPhone):
		return ByPhone, nil
	}
	return "", fmt.Errorf("invalid contact method %q, use: name, phone", s)
}

// Screen identifies which view a browsing session is showing.
type Screen int

// Screens of a browsing session.
const (
	Browse Screen = iota
	Capture
)

func (s Screen) String() string {
	switch s {
	case Browse:
		return "browse"
	case Capture:
		return "capture"
	}
	return fmt.Sprintf("screen(%d)", int(s))
}

// CaptureEvent is emitted when a capture form is submitted with a valid
// contact value.
type CaptureEvent struct {
	ID       string
	ItemID   string
	ItemName string
	Method   ContactMethod
	Value    string
	At       time.Time
}
