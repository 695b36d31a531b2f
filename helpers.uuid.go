package main

import (
	"strings"

	"github.com/gofrs/uuid"
)

var _ UIDHandler = (*IDsHandler)(nil)

// idSeparator joins the kind prefix and the random part of an identifier.
const idSeparator = ":"

// UIDHandler generates and checks identifiers shaped as <prefix>:<uuid v4>.
type UIDHandler interface {
	Generate(prefix string) string
	IsValid(id, prefix string) bool
}

type IDsHandler struct{}

func NewIDsHandler() *IDsHandler {
	return &IDsHandler{}
}

// Generate returns a new random identifier of the given kind.
func (idh *IDsHandler) Generate(prefix string) string {
	return prefix + idSeparator + uuid.Must(uuid.NewV4()).String()
}

// IsValid reports whether id carries the prefix followed by a version 4 uuid.
func (idh *IDsHandler) IsValid(id, prefix string) bool {
	raw, found := strings.CutPrefix(id, prefix+idSeparator)
	if !found {
		return false
	}
	u, err := uuid.FromString(raw)
	return err == nil && u.Version() == uuid.V4
}
