// Package roster is the fixed catalog of members and labels cards can
// reference. It is read once from a YAML file.
package roster

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kandev/kanban/internal/board/models"
)

type Roster struct {
	Members []models.Member `yaml:"members" json:"members"`
	Labels  []models.Label  `yaml:"labels" json:"labels"`
}

// Default is used when no roster file is configured.
func Default() *Roster {
	return &Roster{
		Members: []models.Member{
			{ID: "me", Name: "Me", Initials: "ME"},
		},
		Labels: []models.Label{
			{ID: "green", Name: "Done", Color: "#61bd4f"},
			{ID: "yellow", Name: "Waiting", Color: "#f2d600"},
			{ID: "orange", Name: "Review", Color: "#ff9f1a"},
			{ID: "red", Name: "Bug", Color: "#eb5a46"},
			{ID: "purple", Name: "Design", Color: "#c377e0"},
			{ID: "blue", Name: "Feature", Color: "#0079bf"},
		},
	}
}

// Load reads a roster file. An empty path yields Default.
func Load(path string) (*Roster, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Roster, error) {
	r := &Roster{}
	if err := yaml.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("failed to parse roster: %w", err)
	}
	for i := range r.Members {
		if r.Members[i].Initials == "" {
			r.Members[i].Initials = initials(r.Members[i].Name)
		}
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Roster) validate() error {
	var errs []error
	seen := make(map[string]bool)
	for _, m := range r.Members {
		if m.ID == "" || m.Name == "" {
			errs = append(errs, fmt.Errorf("member %q: id and name are required", m.ID))
		}
		if seen["m:"+m.ID] {
			errs = append(errs, fmt.Errorf("duplicate member id %q", m.ID))
		}
		seen["m:"+m.ID] = true
	}
	for _, l := range r.Labels {
		if l.ID == "" || l.Color == "" {
			errs = append(errs, fmt.Errorf("label %q: id and color are required", l.ID))
		}
		if seen["l:"+l.ID] {
			errs = append(errs, fmt.Errorf("duplicate label id %q", l.ID))
		}
		seen["l:"+l.ID] = true
	}
	return errors.Join(errs...)
}

func (r *Roster) Member(id string) (models.Member, bool) {
	for _, m := range r.Members {
		if m.ID == id {
			return m, true
		}
	}
	return models.Member{}, false
}

func (r *Roster) Label(id string) (models.Label, bool) {
	for _, l := range r.Labels {
		if l.ID == id {
			return l, true
		}
	}
	return models.Label{}, false
}

// initials takes the first letter of the first and last word.
func initials(name string) string {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return strings.ToUpper(firstRune(parts[0]))
	}
	return strings.ToUpper(firstRune(parts[0]) + firstRune(parts[len(parts)-1]))
}

func firstRune(s string) string {
	for _, r := range s {
		return string(r)
	}
	return ""
}
