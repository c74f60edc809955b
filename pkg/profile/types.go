// Package profile manages named bags of personal and professional data that
// can be used to fill forms, with one designated active profile.
package profile

import (
	"fmt"
	"time"
)

// Data is the fixed schema of optional canonical fields plus an open map of
// custom fields.
type Data struct {
	FirstName    string            `json:"firstName,omitempty" yaml:"firstName,omitempty"`
	LastName     string            `json:"lastName,omitempty" yaml:"lastName,omitempty"`
	FullName     string            `json:"fullName,omitempty" yaml:"fullName,omitempty"`
	Email        string            `json:"email,omitempty" yaml:"email,omitempty"`
	Phone        string            `json:"phone,omitempty" yaml:"phone,omitempty"`
	Address      string            `json:"address,omitempty" yaml:"address,omitempty"`
	City         string            `json:"city,omitempty" yaml:"city,omitempty"`
	State        string            `json:"state,omitempty" yaml:"state,omitempty"`
	Zip          string            `json:"zip,omitempty" yaml:"zip,omitempty"`
	Country      string            `json:"country,omitempty" yaml:"country,omitempty"`
	Company      string            `json:"company,omitempty" yaml:"company,omitempty"`
	JobTitle     string            `json:"jobTitle,omitempty" yaml:"jobTitle,omitempty"`
	LinkedIn     string            `json:"linkedin,omitempty" yaml:"linkedin,omitempty"`
	GitHub       string            `json:"github,omitempty" yaml:"github,omitempty"`
	Twitter      string            `json:"twitter,omitempty" yaml:"twitter,omitempty"`
	Website      string            `json:"website,omitempty" yaml:"website,omitempty"`
	CustomFields map[string]string `json:"customFields,omitempty" yaml:"customFields,omitempty"`
}

// Profile is a persisted, user-managed set of fill data.
type Profile struct {
	ID          string    `json:"id" yaml:"id,omitempty"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt" yaml:"createdAt,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt" yaml:"updatedAt,omitempty"`
	Data        Data      `json:"data" yaml:"data"`
}

// Input is the data needed to create a profile.
type Input struct {
	Name        string
	Description string
	Data        Data
}

// Patch updates selected fields of a profile. Nil fields are left alone;
// a non-nil Data replaces the profile data wholesale.
type Patch struct {
	Name        *string
	Description *string
	Data        *Data
}

// document is the persisted form of the whole store.
type document struct {
	Profiles        []Profile `json:"profiles"`
	ActiveProfileID string    `json:"activeProfileId,omitempty"`
}

// ValidationError reports invalid profile input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("profile: invalid %s: %s", e.Field, e.Message)
}

// NotFoundError reports a profile id that does not exist.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("profile: %q not found", e.ID)
}
