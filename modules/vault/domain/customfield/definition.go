package customfield

import (
	"fmt"
	"strings"
	"unicode"
)

// Entity names a row type that carries custom fields.
type Entity string

const (
	EntityPerson     Entity = "person"
	EntityContract   Entity = "contract"
	EntityDepartment Entity = "department"
)

func (e Entity) Table() string {
	switch e {
	case EntityPerson:
		return "persons"
	case EntityContract:
		return "contracts"
	case EntityDepartment:
		return "departments"
	default:
		return ""
	}
}

func ParseEntity(s string) (Entity, error) {
	e := Entity(s)
	if e.Table() == "" {
		return "", fmt.Errorf("unknown custom field entity %q", s)
	}
	return e, nil
}

// ValidateKey rejects keys that cannot be addressed as a single JSON path member:
// blank keys, and keys holding a double quote or a control character.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("custom field key is blank")
	}
	if i := strings.IndexFunc(key, func(r rune) bool { return r == '"' || unicode.IsControl(r) }); i >= 0 {
		return fmt.Errorf("custom field key %q contains an unsupported character at byte %d", key, i)
	}
	return nil
}

// Definition declares a custom field key and the default given to rows lacking it.
type Definition struct {
	Entity  Entity
	Key     string
	Default Value
}
