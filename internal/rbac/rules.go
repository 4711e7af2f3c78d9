package rbac

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	"student": {
		"course:view",
		"assignment:view",
		"submission:view-own",
		"grade:view-own",
	},
	"teacher": {
		"course:view",
		"course:sync",
		"assignment:view",
		"assignment:edit",
		"rubric:edit",
		"submission:view-all",
		"submission:grade",
		"analytics:view",
		"analytics:export",
		"events:view",
	},
	"admin": {
		"*", // everything
	},
}
