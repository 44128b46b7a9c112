package repository

import (
	"strings"
	"testing"
)

func TestListUsersByTenantQueryIsTenantScoped(t *testing.T) {
	query := strings.ToLower(listUsersByTenantQuery)

	requiredFragments := []string{
		"from users",
		"where tenant_id = $1",
	}

	for _, fragment := range requiredFragments {
		if !strings.Contains(query, fragment) {
			t.Fatalf("expected tenant-scoped query fragment %q to be present", fragment)
		}
	}
}

func TestResolvePermissionsQueryAppliesOverrides(t *testing.T) {
	query := strings.ToLower(resolvePermissionsQuery)

	requiredFragments := []string{
		"union",
		"po.effect = 'allow'",
		"except",
		"po.effect = 'deny'",
	}

	for _, fragment := range requiredFragments {
		if !strings.Contains(query, fragment) {
			t.Fatalf("expected permission resolution fragment %q to be present", fragment)
		}
	}
}
