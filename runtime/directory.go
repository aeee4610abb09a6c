package runtime

import (
	"encoding/json"
	"fmt"
	"os"

	"chat-relay/domain"
)

// Directory is the static group membership mapping, seeded once at
// startup from external configuration. There are no join/leave
// operations; membership changes are an external administrative process.
type Directory struct {
	groups map[string][]string
}

func NewDirectory(groups map[string][]string) *Directory {
	copied := make(map[string][]string, len(groups))
	for id, members := range groups {
		copied[id] = append([]string(nil), members...)
	}
	return &Directory{groups: copied}
}

// LoadDirectory reads a group seed file of the form
// {"#team": ["alice", "bob"]}. An empty path yields an empty directory.
func LoadDirectory(path string) (*Directory, error) {
	if path == "" {
		return NewDirectory(nil), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading group seed: %w", err)
	}
	var groups map[string][]string
	if err := json.Unmarshal(raw, &groups); err != nil {
		return nil, fmt.Errorf("parsing group seed: %w", err)
	}
	for id := range groups {
		if !domain.IsGroupRecipient(id) {
			return nil, fmt.Errorf("group %q missing %q prefix", id, domain.GroupPrefix)
		}
	}
	return NewDirectory(groups), nil
}

// Members returns the usernames belonging to the group, empty for an
// unknown identifier.
func (d *Directory) Members(groupID string) []string {
	members, ok := d.groups[groupID]
	if !ok {
		return nil
	}
	return append([]string(nil), members...)
}
