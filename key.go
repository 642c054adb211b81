package spritecomp

import "strings"

// Known type identifiers. Any other "(X)" prefix is accepted and treated like
// an object-sized item.
const (
	TypeObject       = "(O)"
	TypeBigCraftable = "(BC)"
)

// ItemTypeKey identifies exactly one composited item type.
type ItemTypeKey struct {
	TypeID  string // type identifier including parentheses, e.g. "(O)"
	LocalID string // local item id within the type, e.g. "128"
}

// QualifiedID returns the type identifier followed by the local id.
func (k ItemTypeKey) QualifiedID() string {
	return k.TypeID + k.LocalID
}

// IsZero reports whether the key has neither a type nor a local id.
func (k ItemTypeKey) IsZero() bool {
	return k.TypeID == "" && k.LocalID == ""
}

func (k ItemTypeKey) String() string {
	return k.QualifiedID()
}

// ParseQualifiedID splits a qualified id such as "(BC)12" into its type
// identifier and local id. Ids without a "(...)" prefix are rejected.
func ParseQualifiedID(qid string) (ItemTypeKey, bool) {
	if !strings.HasPrefix(qid, "(") {
		return ItemTypeKey{}, false
	}
	end := strings.IndexByte(qid, ')')
	if end < 2 || end == len(qid)-1 {
		return ItemTypeKey{}, false
	}
	return ItemTypeKey{TypeID: qid[:end+1], LocalID: qid[end+1:]}, true
}
