package auth

import (
	"context"
	"slices"
)

const (
	RoleHQAdmin       = "hq_admin"
	RoleFacilityAdmin = "facility_admin"
	RoleViewer        = "viewer"
)

const (
	PermListsRead    = "lists.read"
	PermListsWrite   = "lists.write"
	PermUploadsWrite = "uploads.write"
	PermJobsRead     = "jobs.read"
	PermMetricsRead  = "metrics.read"
)

var RolePermissions = map[string][]string{
	RoleViewer: {
		PermListsRead,
		PermListsWrite,
		PermJobsRead,
	},
	RoleFacilityAdmin: {
		PermListsRead,
		PermListsWrite,
		PermUploadsWrite,
		PermJobsRead,
	},
	RoleHQAdmin: {
		PermListsRead,
		PermListsWrite,
		PermUploadsWrite,
		PermJobsRead,
		PermMetricsRead,
	},
}

// StaticPermissions answers permission checks from RolePermissions.
type StaticPermissions struct{}

func (StaticPermissions) HasPermission(ctx context.Context, role, permission string) (bool, error) {
	return slices.Contains(RolePermissions[role], permission), nil
}
