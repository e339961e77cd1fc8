package shared

// Role names recognised by the admin view policies.
const (
	RoleSuperuser = "superuser"
	RoleSeva      = "seva"
	RoleM88       = "m88"
	RoleSales     = "sales"
	RoleUser      = "user"
)

// PolicyRoles lists the role names that gate admin views.
func PolicyRoles() []string {
	return []string{
		RoleSuperuser,
		RoleSeva,
		RoleM88,
		RoleSales,
	}
}
