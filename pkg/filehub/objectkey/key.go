// Package objectkey builds the object-storage keys and safe display names for
// stored files. Keys are hierarchical and embed the tenant, owner scope and
// file id; uniqueness comes from the id segment, never from the file name.
package objectkey

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// FallbackFileName is used when sanitization leaves nothing usable.
const FallbackFileName = "file"

// SanitizeFileName strips characters that are illegal in object keys or
// filesystem names, collapses the remaining tokens with "_" and trims
// whitespace. The result is deterministic; collisions between hostile inputs
// are acceptable because key uniqueness comes from the file id.
func SanitizeFileName(name string) string {
	parts := strings.FieldsFunc(name, isIllegalFileNameRune)

	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			tokens = append(tokens, p)
		}
	}

	safe := strings.Join(tokens, "_")
	if safe == "" {
		return FallbackFileName
	}
	return safe
}

// BuildKey produces the object key for a stored file:
//
//	tenants/{tenant}/{ownerType}/{ownerId}/{id}/{safeName}
//
// No two distinct (tenant, owner, id) triples ever map to the same key even
// when file names collide, because the id segment is globally unique.
func BuildKey(tenantID, ownerType, ownerID string, id uuid.UUID, safeName string) string {
	return fmt.Sprintf("tenants/%s/%s/%s/%s/%s",
		sanitizePathComponent(tenantID),
		sanitizePathComponent(ownerType),
		sanitizePathComponent(ownerID),
		id,
		safeName)
}

func isIllegalFileNameRune(r rune) bool {
	if r < 0x20 || r == 0x7f {
		return true
	}
	switch r {
	case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
		return true
	}
	return false
}

var pathComponentReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
	" ", "_",
)

func sanitizePathComponent(component string) string {
	return pathComponentReplacer.Replace(component)
}
