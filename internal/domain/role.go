package domain

// Role names carried in the user record and the JWT role claim.
const (
	RoleAdmin  = "admin"
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
)
