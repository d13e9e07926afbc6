package vuln

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Record is a single vulnerability finding as held by the store.
type Record struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Endpoint    string    `json:"endpoint"`
	Severity    string    `json:"severity"`
	CVE         string    `json:"cve"`
	Description string    `json:"description"`
	Sensor      string    `json:"sensor"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Input carries the client-supplied fields of a record.
type Input struct {
	Title       string `json:"title" yaml:"title"`
	Endpoint    string `json:"endpoint" yaml:"endpoint"`
	Severity    string `json:"severity" yaml:"severity"`
	CVE         string `json:"cve" yaml:"cve"`
	Description string `json:"description" yaml:"description"`
	Sensor      string `json:"sensor" yaml:"sensor"`
}

// TaggedRecord is a record annotated with the tag of the group it landed in.
type TaggedRecord struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Endpoint    string `json:"endpoint"`
	Tag         string `json:"tag"`
	Severity    string `json:"severity"`
	CVE         string `json:"cve"`
	Description string `json:"description"`
	Sensor      string `json:"sensor"`
}

// Tagged copies r into a TaggedRecord carrying tag.
func (r *Record) Tagged(tag string) TaggedRecord {
	return TaggedRecord{
		ID:          r.ID,
		Title:       r.Title,
		Endpoint:    r.Endpoint,
		Tag:         tag,
		Severity:    r.Severity,
		CVE:         r.CVE,
		Description: r.Description,
		Sensor:      r.Sensor,
	}
}

// ErrInvalidInput is wrapped by every validation failure from Input.Validate.
var ErrInvalidInput = errors.New("invalid input")

// Normalize trims surrounding whitespace from every field.
func (in Input) Normalize() Input {
	return Input{
		Title:       strings.TrimSpace(in.Title),
		Endpoint:    strings.TrimSpace(in.Endpoint),
		Severity:    strings.TrimSpace(in.Severity),
		CVE:         strings.TrimSpace(in.CVE),
		Description: strings.TrimSpace(in.Description),
		Sensor:      strings.TrimSpace(in.Sensor),
	}
}

// Validate reports missing required fields. The CVE may be empty.
func (in Input) Validate() error {
	var errs []error
	if in.Title == "" {
		errs = append(errs, fmt.Errorf("%w: title is required", ErrInvalidInput))
	}
	if in.Endpoint == "" {
		errs = append(errs, fmt.Errorf("%w: endpoint is required", ErrInvalidInput))
	}
	return errors.Join(errs...)
}

func (r *Record) apply(in Input) {
	r.Title = in.Title
	r.Endpoint = in.Endpoint
	r.Severity = in.Severity
	r.CVE = in.CVE
	r.Description = in.Description
	r.Sensor = in.Sensor
}
