package tools

import (
	"context"
	"fmt"
	"net/url"

	"github.com/leapstack-labs/mcp-panther/internal/panther"
	"github.com/leapstack-labs/mcp-panther/internal/permissions"
)

var roleFields = []string{"id", "name", "description", "permissions", "managed", "createdAt", "lastModified"}

type userIDInput struct {
	UserID string `json:"user_id" jsonschema:"The ID of the user"`
}

type listRolesInput struct {
	NameContains string `json:"name_contains,omitempty" jsonschema:"Case-insensitive substring to search for in role names"`
	Name         string `json:"name,omitempty" jsonschema:"Exact role name to match"`
	RoleIDs      string `json:"role_ids,omitempty" jsonschema:"Comma separated role IDs to return"`
	SortDir      string `json:"sort_dir,omitempty" jsonschema:"Sort direction for the results"`
	Limit        int    `json:"limit,omitempty" jsonschema:"Maximum number of results to return"`
	Cursor       string `json:"cursor,omitempty" jsonschema:"Cursor for pagination from a previous query"`
}

type roleIDInput struct {
	RoleID string `json:"role_id" jsonschema:"The ID of the role"`
}

func userTools() []Definition {
	users := permissions.All(permissions.UserRead)
	return []Definition{
		define(Definition{
			Name:        "list_users",
			Title:       "List Users",
			Description: "List the users of the Panther instance with their role and status.",
			ReadOnly:    true,
			Permissions: users,
		}, listUsers),
		define(Definition{
			Name:        "get_user",
			Title:       "Get User",
			Description: "Get a user by ID.",
			ReadOnly:    true,
			Permissions: users,
		}, getUser),
		define(Definition{
			Name:        "list_roles",
			Title:       "List Roles",
			Description: "List roles and the permissions they grant.",
			ReadOnly:    true,
			Permissions: users,
			props: map[string]prop{
				"sort_dir": choices("asc", "asc", "desc"),
				"limit":    limits(1, 1000, 100),
			},
		}, listRoles),
		define(Definition{
			Name:        "get_role",
			Title:       "Get Role",
			Description: "Get a role by ID, including its permissions.",
			ReadOnly:    true,
			Permissions: users,
		}, getRole),
	}
}

func listUsers(ctx context.Context, d *Deps, _ noInput) (map[string]any, error) {
	users, err := d.Client.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return map[string]any{"users": orEmpty(users), "total_users": len(users)}, nil
}

func getUser(ctx context.Context, d *Deps, in userIDInput) (map[string]any, error) {
	user, err := d.Client.Fetch(ctx, "/users/"+url.PathEscape(in.UserID))
	if panther.IsNotFound(err) {
		return nil, fmt.Errorf("no user found with ID: %s", in.UserID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return map[string]any{"user": user}, nil
}

func listRoles(ctx context.Context, d *Deps, in listRolesInput) (map[string]any, error) {
	limit := in.Limit
	if limit == 0 {
		limit = 100
	}
	if limit < 1 || limit > 1000 {
		return nil, fmt.Errorf("limit must be between 1 and 1000, got %d", limit)
	}
	q := url.Values{}
	if in.NameContains != "" {
		q.Set("name-contains", in.NameContains)
	}
	if in.Name != "" {
		q.Set("name", in.Name)
	}
	if in.RoleIDs != "" {
		q.Set("ids", in.RoleIDs)
	}
	if in.SortDir != "" {
		q.Set("sort-dir", in.SortDir)
	}
	page, err := d.Client.List(ctx, "/roles", limit, in.Cursor, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	roles := make([]panther.Object, 0, len(page.Results))
	for _, r := range page.Results {
		roles = append(roles, panther.Pick(r, roleFields...))
	}
	return map[string]any{
		"roles":         roles,
		"total_roles":   len(roles),
		"has_next_page": page.Next != "",
		"next_cursor":   nullable(page.Next),
	}, nil
}

func getRole(ctx context.Context, d *Deps, in roleIDInput) (map[string]any, error) {
	role, err := d.Client.Fetch(ctx, "/roles/"+url.PathEscape(in.RoleID))
	if panther.IsNotFound(err) {
		return nil, fmt.Errorf("no role found with ID: %s", in.RoleID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch role: %w", err)
	}
	return map[string]any{"role": role}, nil
}
