package tools

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/mcp-panther/internal/permissions"
)

func permissionTools() []Definition {
	return []Definition{
		define(Definition{
			Name:  "get_permissions",
			Title: "Get Permissions",
			Description: "Get the permissions of the API token in use. Use this to diagnose permission " +
				"errors and decide whether a new token is needed.",
			ReadOnly:    true,
			Permissions: permissions.All(permissions.OrganizationAPITokenRead),
		}, getPermissions),
	}
}

func getPermissions(ctx context.Context, d *Deps, _ noInput) (map[string]any, error) {
	var token struct {
		Permissions []string `json:"permissions"`
	}
	if err := d.Client.Get(ctx, "/api-tokens/self", nil, &token); err != nil {
		return nil, fmt.Errorf("failed to fetch permissions: %w", err)
	}
	granted := permissions.FromRaw(token.Permissions)

	// Report which tools the token cannot call.
	var unavailable []string
	needed := map[string][]permissions.Permission{}
	for _, def := range All() {
		if !def.Permissions.Satisfied(granted) {
			unavailable = append(unavailable, def.Name)
			needed[def.Name] = def.Permissions.Missing(granted)
		}
	}
	return map[string]any{
		"permissions":         granted,
		"unavailable_tools":   orEmpty(unavailable),
		"missing_permissions": needed,
	}, nil
}
