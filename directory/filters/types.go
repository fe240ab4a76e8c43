package filters

const (
	AllObjects   = "(objectClass=*)"
	AllGroups    = "(objectClass=group)"
	AllComputers = "(objectClass=computer)"
	AllUsers     = "(&(objectCategory=person)(objectClass=user))"
)
