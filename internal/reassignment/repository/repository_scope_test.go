package repository

import (
	"strings"
	"testing"
)

func TestFindEnabledRuleQueryOrdering(t *testing.T) {
	query := strings.ToLower(findEnabledRuleQuery)

	requiredFragments := []string{
		"where tenant_id = $1",
		"and enabled",
		"order by created_at asc, id asc",
		"limit 1",
	}

	for _, fragment := range requiredFragments {
		if !strings.Contains(query, fragment) {
			t.Fatalf("expected rule lookup fragment %q to be present", fragment)
		}
	}
}

func TestListPoolMembersQueryOrdering(t *testing.T) {
	query := strings.ToLower(listPoolMembersQuery)

	requiredFragments := []string{
		"where tenant_id = $1",
		"order by weight desc, user_id asc",
	}

	for _, fragment := range requiredFragments {
		if !strings.Contains(query, fragment) {
			t.Fatalf("expected pool member fragment %q to be present", fragment)
		}
	}
}
