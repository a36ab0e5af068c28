package schema

// Grant records one grantee holding a privilege
type Grant struct {
	Grantor   string
	Grantee   string
	Grantable bool
}

// Privilege is a named privilege, such as SELECT, on a table or column
type Privilege struct {
	namedObject
	parent NamedObject
	grants []Grant
}

// NewPrivilege creates a privilege on a table or a column.
func NewPrivilege(parent NamedObject, name string) *Privilege {
	return &Privilege{namedObject: namedObject{name: name}, parent: parent}
}

// Parent implements NamedObject.
func (p *Privilege) Parent() NamedObject {
	return p.parent
}

// FullName implements NamedObject.
func (p *Privilege) FullName() string {
	return FullName(p)
}

// AddGrant records a grant. Identical grants are recorded once.
func (p *Privilege) AddGrant(grant Grant) {
	for _, existing := range p.grants {
		if existing == grant {
			return
		}
	}
	p.grants = append(p.grants, grant)
}

// Grants returns the grants in the order they were recorded.
func (p *Privilege) Grants() []Grant {
	return append([]Grant(nil), p.grants...)
}
