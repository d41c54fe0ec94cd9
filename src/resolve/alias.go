package resolve

import "sync"

// defaultAliases maps the plain form of a shortcut to the canonical team
// name searched in its place. Entries are data, not logic: they do not have
// to match a catalog entry themselves, resolution happens afterwards.
var defaultAliases = map[string]string{
	"ku":               "Kansas",
	"kansasuniversity": "Kansas",
	"unc":              "North Carolina",
	"uva":              "Virginia",
	"uconn":            "Connecticut",
	"olemiss":          "Mississippi",
	"cuse":             "Syracuse",
	"zags":             "Gonzaga",
	"bama":             "Alabama",
	"smu":              "Southern Methodist",
	"byu":              "Brigham Young",
	"stjoes":           "St. Joseph's",
}

// AliasTable maps normalized shortcut strings to canonical team names.
// Built-in entries ship with the binary; custom entries come from server
// configuration and take precedence.
type AliasTable struct {
	mu       sync.RWMutex
	builtins map[string]string
	custom   map[string]string
}

// NewAliasTable creates an alias table preloaded with the built-in entries.
func NewAliasTable() *AliasTable {
	t := &AliasTable{
		builtins: make(map[string]string, len(defaultAliases)),
		custom:   make(map[string]string),
	}
	for shortcut, name := range defaultAliases {
		t.builtins[shortcut] = name
	}
	return t
}

// SetCustom replaces the custom alias layer. Keys are reduced to their plain
// form so config files may spell shortcuts naturally ("Ole Miss: Mississippi").
func (t *AliasTable) SetCustom(aliases map[string]string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.custom = make(map[string]string, len(aliases))
	for shortcut, name := range aliases {
		key := Plain(shortcut)
		if key == "" || name == "" {
			continue
		}
		t.custom[key] = name
	}
}

// Lookup finds the canonical name for an already-plain shortcut, checking
// custom entries before built-ins. Lookup is exact: no fuzziness at this
// stage.
func (t *AliasTable) Lookup(plain string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if name, ok := t.custom[plain]; ok {
		return name, true
	}
	if name, ok := t.builtins[plain]; ok {
		return name, true
	}
	return "", false
}

// All returns the merged alias table, custom entries shadowing built-ins.
func (t *AliasTable) All() map[string]string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]string, len(t.builtins)+len(t.custom))
	for k, v := range t.builtins {
		out[k] = v
	}
	for k, v := range t.custom {
		out[k] = v
	}
	return out
}
