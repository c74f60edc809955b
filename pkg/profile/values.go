package profile

import (
	"context"
	"sort"
	"strings"

	"github.com/entrhq/formpilot/pkg/autofill/field"
)

// FieldValues projects the active profile into canonical key → value pairs.
// It returns an empty map when no profile is active.
func (s *Store) FieldValues(ctx context.Context) (*field.ProfileValues, error) {
	p, err := s.Active(ctx)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return field.NewProfileValues(), nil
	}
	return Project(p.Data), nil
}

// Project flattens profile data. Canonical keys come first in a fixed
// order; "name" is synthesized from first and last name when there is no
// full name; custom fields follow in sorted order and shadow canonical
// keys of the same name. Empty values are omitted.
func Project(d Data) *field.ProfileValues {
	out := field.NewProfileValues()
	set := func(k, v string) {
		if v = strings.TrimSpace(v); v != "" {
			out.Set(k, v)
		}
	}

	set("firstName", d.FirstName)
	set("lastName", d.LastName)
	if strings.TrimSpace(d.FullName) != "" {
		set("fullName", d.FullName)
	} else {
		set("name", strings.TrimSpace(d.FirstName+" "+d.LastName))
	}
	set("email", d.Email)
	set("phone", d.Phone)
	set("address", d.Address)
	set("city", d.City)
	set("state", d.State)
	set("zip", d.Zip)
	set("country", d.Country)
	set("company", d.Company)
	set("jobTitle", d.JobTitle)
	set("linkedin", d.LinkedIn)
	set("github", d.GitHub)
	set("twitter", d.Twitter)
	set("website", d.Website)

	keys := make([]string, 0, len(d.CustomFields))
	for k := range d.CustomFields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		set(k, d.CustomFields[k])
	}
	return out
}
