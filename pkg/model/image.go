// Package model defines the catalog types shared by the loaders, the query
// matcher and the UI.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Scaler identifies the runtime that schedules an image.
type Scaler string

const (
	ScalerK8s       Scaler = "k8s"
	ScalerBareMetal Scaler = "baremetal"
	ScalerWindows   Scaler = "windows"
	ScalerKVM       Scaler = "kvm"
	ScalerExternal  Scaler = "external"
)

// IsKnown reports whether s is one of the scalers the platform ships with.
// Unknown scalers are still accepted by Validate; catalogs from newer
// deployments may carry scalers this build does not know about.
func (s Scaler) IsKnown() bool {
	switch s {
	case ScalerK8s, ScalerBareMetal, ScalerWindows, ScalerKVM, ScalerExternal:
		return true
	}
	return false
}

// Image is one analysis tool in the catalog.
type Image struct {
	Name        string    `json:"name"`
	Group       string    `json:"group"`
	Scaler      Scaler    `json:"scaler"`
	Creator     string    `json:"creator"`
	Generator   bool      `json:"generator"`
	UsedBy      []string  `json:"used_by,omitempty"` // pipelines referencing this image
	Description string    `json:"description,omitempty"`
	Version     string    `json:"version,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// ErrInvalidImage is wrapped by every Validate failure.
var ErrInvalidImage = errors.New("invalid image")

// Validate checks the fields every catalog entry must carry.
func (i *Image) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidImage)
	}
	if strings.TrimSpace(i.Group) == "" {
		return fmt.Errorf("%w: %s: group cannot be empty", ErrInvalidImage, i.Name)
	}
	return nil
}

// Used reports whether at least one pipeline references the image.
func (i *Image) Used() bool {
	return len(i.UsedBy) > 0
}

// Key returns the identifier of an image within the catalog. Image names are
// only unique inside their group.
func (i *Image) Key() string {
	return i.Group + "/" + i.Name
}
