package rbac

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	"student": {
		"lesson:view",
		"progress:view-own",
		"progress:record-own",
	},
	"teacher": {
		"lesson:view",
		"lesson:edit",
		"lesson:history",
		"progress:view-own",
		"progress:view-all",
	},
	"admin": {
		"*", // everything
	},
}
