// Package address implements the delivery address book and its selected
// address slot.
package address

import (
	"strings"

	"github.com/go-faster/errors"
)

// AddNewOptionID is the id of the synthetic "add new address" option. It is
// never stored and never selected.
const AddNewOptionID = "new"

// Address is a saved delivery address.
type Address struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Street  string `json:"address"`
	City    string `json:"city"`
	ZipCode string `json:"zipCode"`
	Phone   string `json:"phone"`
}

// Option is one entry of the address picker.
type Option struct {
	ID           string
	DisplayLabel string
	AddNew       bool
}

// IsAddNew reports whether id refers to the synthetic "add new" option.
func IsAddNew(id string) bool {
	return id == AddNewOptionID
}

// ValidationError lists the address fields that must not be empty.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "address: empty fields: " + strings.Join(e.Fields, ", ")
}

// Validate checks that every user-entered field is set.
func Validate(a Address) error {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"label", a.Label},
		{"address", a.Street},
		{"city", a.City},
		{"zipCode", a.ZipCode},
		{"phone", a.Phone},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

// displayLabel renders a as shown in the picker.
func displayLabel(a Address) string {
	if a.Label == "" {
		return a.Street + ", " + a.City
	}
	return a.Label + " (" + a.Street + ", " + a.City + ")"
}

// ErrNotFound is returned by lookups of an unknown address id.
var ErrNotFound = errors.New("address not found")
