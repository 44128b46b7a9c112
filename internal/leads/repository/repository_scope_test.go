package repository

import (
	"strings"
	"testing"
)

func TestListLeadsQueryIsTenantScoped(t *testing.T) {
	query := strings.ToLower(listLeadsQuery)

	requiredFragments := []string{
		"from leads",
		"where tenant_id = $1",
	}

	for _, fragment := range requiredFragments {
		if !strings.Contains(query, fragment) {
			t.Fatalf("expected tenant-scoped query fragment %q to be present", fragment)
		}
	}
}
