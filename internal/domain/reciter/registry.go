// Package reciter maps reciter identifiers to their everyayah archive
// folders and display metadata.
package reciter

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownReciter indicates the reciter ID is not in the registry.
var ErrUnknownReciter = errors.New("unknown reciter")

// DefaultID is the reciter used when none is configured.
const DefaultID = "alafasy"

// Reciter describes one reciter available from the remote archive.
type Reciter struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Folder  string `json:"folder"`  // everyayah.com data folder
	Bitrate string `json:"bitrate"` // e.g. "128kbps"
}

// Registry resolves reciter IDs to archive folders.
type Registry struct {
	byID map[string]Reciter
}

// defaultReciters are the reciters shipped with the application.
var defaultReciters = []Reciter{
	{"alafasy", "Mishary Rashid Alafasy", "Alafasy_128kbps", "128kbps"},
	{"sudais", "Abdur-Rahman As-Sudais", "Abdurrahmaan_As-Sudais_192kbps", "192kbps"},
	{"husary", "Mahmoud Khalil Al-Husary", "Husary_128kbps", "128kbps"},
	{"minshawi", "Mohamed Siddiq El-Minshawi", "Minshawy_Murattal_128kbps", "128kbps"},
	{"abdulbasit", "Abdul Basit Abdus-Samad", "Abdul_Basit_Murattal_192kbps", "192kbps"},
	{"shuraim", "Saud Ash-Shuraim", "Saood_ash-Shuraym_128kbps", "128kbps"},
	{"ajamy", "Ahmed ibn Ali Al-Ajamy", "Ahmed_ibn_Ali_al-Ajamy_128kbps_ketaballah.net", "128kbps"},
	{"ghamadi", "Saad Al-Ghamadi", "Ghamadi_40kbps", "40kbps"},
}

// NewRegistry creates a registry with the default reciters.
func NewRegistry() *Registry {
	r := &Registry{byID: make(map[string]Reciter, len(defaultReciters))}
	for _, rec := range defaultReciters {
		r.byID[rec.ID] = rec
	}
	return r
}

// Resolve returns the reciter for the given ID.
func (r *Registry) Resolve(id string) (Reciter, error) {
	rec, ok := r.byID[id]
	if !ok {
		return Reciter{}, fmt.Errorf("%w: %q", ErrUnknownReciter, id)
	}
	return rec, nil
}

// Folder is a convenience lookup of the archive folder for a reciter ID.
func (r *Registry) Folder(id string) (string, error) {
	rec, err := r.Resolve(id)
	if err != nil {
		return "", err
	}
	return rec.Folder, nil
}

// List returns all registered reciters sorted by ID.
func (r *Registry) List() []Reciter {
	out := make([]Reciter, 0, len(r.byID))
	for _, rec := range r.byID {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
